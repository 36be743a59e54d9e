package util

import (
	"fmt"
	"net/http"
	"strings"
)

type MyResponseError struct {
	Msg    string
	Status int
}

func (e MyResponseError) Error() string { return e.Msg }

func NewResponseError(status int, format string, args ...interface{}) error {
	return MyResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}

// ValidationError carries user-facing details about malformed input.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) Status() int { return http.StatusBadRequest }

func NewValidationError(details ...string) error {
	return &ValidationError{Details: details}
}
