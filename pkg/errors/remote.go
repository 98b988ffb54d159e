package errors

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatusCode() int
}

// CodeForStatus classifies a remote HTTP status. Statuses that point at the
// request itself keep their meaning; everything else is a dependency failure.
func CodeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return CodeDependency
	}
}

// WrapRemote wraps a failed remote call, deriving the code from the HTTP
// status carried by err. Errors without a status are dependency failures.
func WrapRemote(err error, message string) *Error {
	return Wrap(CodeForStatus(RemoteStatus(err)), err, message)
}

// RemoteStatus extracts the HTTP status from a Google API error or any error
// exposing HTTPStatusCode, or 0.
func RemoteStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code
	}
	var coded statusCoder
	if errors.As(err, &coded) {
		return coded.HTTPStatusCode()
	}
	return 0
}
