// Package common holds the error vocabulary, retry policy and logger setup shared by
// every package.
package common

import (
	"errors"
	"fmt"
)

// Storage errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Text generation errors. Both are recovered by the template explainer.
var (
	ErrGenerationFailed = errors.New("text generation failed")
	ErrMalformedOutput  = errors.New("malformed generator output")
)

// Configuration errors.
var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError carries a message meant for the person at the terminal alongside the
// underlying cause, which is only logged.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
}

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with msg. err may be nil.
func NewUserError(msg string, err error) error {
	return &UserError{UserMessage: msg, Err: err}
}
