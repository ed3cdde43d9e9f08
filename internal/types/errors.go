package types

import "fmt"

// ParseError represents input that could not be interpreted: a malformed
// response body, or a field value in an unrecognized format.
type ParseError struct {
	Field   string // empty for whole-document errors
	Value   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	prefix := "parse error"
	if e.Field != "" {
		prefix = fmt.Sprintf("parse error in %s %q", e.Field, e.Value)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
