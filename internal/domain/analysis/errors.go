package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrSchema             = errors.New("schema error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrIncompleteResponse = errors.New("incomplete response")
	ErrRunNotFound        = errors.New("run not found")
	ErrRecordExists       = errors.New("record already exists")
)

// ValidationError means the request carries nothing to analyze.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation error: " + e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldError names one violated constraint.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param == "" {
		return fmt.Sprintf("%s failed %s", f.Field, f.Rule)
	}
	return fmt.Sprintf("%s failed %s=%s", f.Field, f.Rule, f.Param)
}

// SchemaError lists every field that violates its declared constraint.
type SchemaError struct {
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "schema error: " + strings.Join(parts, "; ")
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// MalformedResponseError means the completion was not a JSON object.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IncompleteResponseError names the required top-level keys the completion lacked.
type IncompleteResponseError struct {
	Missing []string
}

func (e *IncompleteResponseError) Error() string {
	return "incomplete response: missing keys " + strings.Join(e.Missing, ", ")
}

func (e *IncompleteResponseError) Is(target error) bool { return target == ErrIncompleteResponse }
