package foodscraper

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// EINVALIDURL, EUNSUPPORTED and ENOTCONFIGURED terminate a scrape before
// any extraction happens and are never retried.
const (
	EINVALIDURL    = "invalid_url"
	EUNSUPPORTED   = "unsupported_domain"
	ENOTCONFIGURED = "site_not_configured"
	EINVALID       = "invalid"
	ENOTFOUND      = "not_found"
	EINTERNAL      = "internal"
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code and message.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
