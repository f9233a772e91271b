package schema

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated reports a store API call attempted before the user
// completed device authentication.
var ErrNotAuthenticated = errors.New("user is not authenticated")

// Error is a failure surfaced over the HTTP contracts.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// NewError creates an Error with the supplied HTTP status.
func NewError(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// NewBadRequest creates a 400 Error.
func NewBadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}
