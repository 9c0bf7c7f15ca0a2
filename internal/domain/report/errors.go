package report

import (
	"errors"
	"fmt"
)

// Sentinel kinds for decode failures.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingField     = errors.New("missing field")
)

// FieldError ties a decode failure to the document path that caused it.
// It matches its Kind and its Cause under errors.Is.
type FieldError struct {
	Field string
	Kind  error
	Cause error
}

func (e *FieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Field, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Field)
}

func (e *FieldError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func missing(field string) error {
	return &FieldError{Field: field, Kind: ErrMissingField}
}

func malformed(field string, cause error) error {
	return &FieldError{Field: field, Kind: ErrMalformedPayload, Cause: cause}
}
