package sheets

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/angelmondragon/hourbid/pkg/config"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
)

var spreadsheetPath = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ParseSpreadsheetURL extracts the spreadsheet ID from a Google Sheets URL.
// A missing URL or the unedited placeholder is a validation error and must
// stop the run before any platform call.
func ParseSpreadsheetURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == config.SpreadsheetURLPlaceholder {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "define spreadsheet URL in config")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid spreadsheet URL")
	}
	match := spreadsheetPath.FindStringSubmatch(parsed.Path)
	if match == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet URL has no document id")
	}
	return match[1], nil
}
