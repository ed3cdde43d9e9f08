// Package conversion turns rendered .docx receipts into PDF files.
package conversion

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned by a converter that cannot run on this host,
// such as a missing binary or an unconfigured service.
var ErrUnavailable = errors.New("converter unavailable")

// Attempt records one converter's failure inside a ConversionError.
type Attempt struct {
	Converter string
	Err       error
}

// ConversionError represents a failure of every configured converter for a
// single document. The .docx is left in place.
type ConversionError struct {
	Source   string
	Message  string
	Attempts []Attempt
}

func (e *ConversionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("conversion error: %s: %s", e.Source, e.Message)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Converter, a.Err))
	}
	return fmt.Sprintf("conversion error: %s: %s (%s)", e.Source, e.Message, strings.Join(parts, "; "))
}

// Unwrap exposes every attempt's error to errors.Is and errors.As.
func (e *ConversionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Unavailable reports whether every attempt failed because its converter
// could not run, as opposed to failing on this particular document.
func (e *ConversionError) Unavailable() bool {
	if len(e.Attempts) == 0 {
		return true
	}
	for _, a := range e.Attempts {
		if !errors.Is(a.Err, ErrUnavailable) {
			return false
		}
	}
	return true
}

// InstallHint is printed when no converter can run at all.
const InstallHint = "Install LibreOffice or configure converter.gotenberg_url to enable PDF conversion."
