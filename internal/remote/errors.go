// Package remote talks to the spreadsheet web app that generates receipts
// server-side and records which rows have been processed.
package remote

import "fmt"

// RemoteStatusError represents a generation call that completed at the HTTP
// level but reported a non-success status.
type RemoteStatusError struct {
	Status  string
	Message string
}

func (e *RemoteStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote status error: generation returned status %q", e.Status)
	}
	return fmt.Sprintf("remote status error: generation returned status %q: %s", e.Status, e.Message)
}

// MarkError represents a failed mark-processed call. The receipt itself was
// generated; only the write-back to the sheet is in doubt.
type MarkError struct {
	Key     string
	Message string
	Cause   error
}

func (e *MarkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mark processed error for %s: %s: %v", e.Key, e.Message, e.Cause)
	}
	return fmt.Sprintf("mark processed error for %s: %s", e.Key, e.Message)
}

func (e *MarkError) Unwrap() error {
	return e.Cause
}
