// Package rendering fills .docx receipt templates with per-record values.
package rendering

import "fmt"

// TemplateError represents a missing or malformed template. It affects every
// record identically, so callers treat it as fatal for the run.
type TemplateError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s: %s", e.Path, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a failure to produce one record's document
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
