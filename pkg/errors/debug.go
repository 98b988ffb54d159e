package errors

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	APIStatus  int      `json:"api_status,omitempty"`
	APIMessage string   `json:"api_message,omitempty"`
	APIReasons []string `json:"api_reasons,omitempty"`
}

// Dump flattens an error chain for structured logging, pulling Google API
// status details out when present.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		d.APIStatus = apiErr.Code
		d.APIMessage = apiErr.Message
		for _, item := range apiErr.Errors {
			d.APIReasons = append(d.APIReasons, item.Reason)
		}
	}

	return d
}
