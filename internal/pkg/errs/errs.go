/*
Package errs provides the application's error type and error code constants.

This file defines the CustomError struct, which implements the standard Go
error interface and carries a business code, a user-facing message, and the
HTTP status associated with the failure, for uniform handling on both the
client engine and the development server.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"parley/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
// It wraps the Go error interface, adding a business code and HTTP status.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a *CustomError from a predefined error code.
// The optional details are printf-style arguments for message templates that
// contain placeholders. Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
			)
		}
	}

	return &customErr
}

// codeOf extracts the business code from err, or 0 when err is not a CustomError.
func codeOf(err error) int {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code
	}
	return 0
}

// IsValidation reports whether err is a form-level validation error (1xxx).
// Validation errors are surfaced inline and never sent to the network.
func IsValidation(err error) bool {
	code := codeOf(err)
	return code >= 1000 && code < 2000
}

// IsAuthentication reports whether err is an authentication failure (3xxx).
// Absent, expired and rejected credentials all map here; callers route every
// one of them to the login flow without distinguishing further.
func IsAuthentication(err error) bool {
	code := codeOf(err)
	return code >= 3000 && code < 4000
}

// IsNetwork reports whether err is a transport-level failure (4xxx).
// Reads recover via the next poll tick; writes are reported and not retried.
func IsNetwork(err error) bool {
	code := codeOf(err)
	return code >= 4000 && code < 5000
}
