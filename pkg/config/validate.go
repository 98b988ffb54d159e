package config

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate fails fast on settings a run cannot start without.
func (c *Config) Validate() error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "config is required")
	}
	if strings.TrimSpace(c.Bidding.SpreadsheetURL) == SpreadsheetURLPlaceholder {
		return pkgerrors.New(pkgerrors.CodeValidation, "define spreadsheet URL in config").
			WithDetails(map[string]string{EnvSpreadsheetURL: "is required"})
	}
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	if c.Bidding.MinBid > c.Bidding.MaxBid {
		return pkgerrors.New(pkgerrors.CodeValidation, "min bid exceeds max bid").
			WithDetails(map[string]string{EnvMinBid: fmt.Sprintf("%v > %v", c.Bidding.MinBid, c.Bidding.MaxBid)})
	}
	if !c.Bidding.IncludeSearch && !c.Bidding.IncludeShop {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one campaign type must be included")
	}
	if c.BigQuery.Enabled() && strings.TrimSpace(c.GCP.ProjectID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gcp project id is required for bigquery export").
			WithDetails(map[string]string{EnvGCPProjectID: "is required"})
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	fields := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Namespace()] = validationMessage(fieldErr)
		fields = append(fields, fieldErr.Namespace())
	}
	sort.Strings(fields)
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid config: "+strings.Join(fields, ", ")).WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid url"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
