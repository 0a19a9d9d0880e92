package source

import (
	"errors"
	"fmt"
)

// UnmatchedLineError reports a single record that did not fit its backend's
// format. It is not fatal: the record is skipped and ingestion continues.
type UnmatchedLineError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *UnmatchedLineError) Error() string {
	msg := fmt.Sprintf("unmatched line %d", e.Line)
	if e.Source != "" {
		msg = fmt.Sprintf("%s:%d: unmatched line", e.Source, e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s: %q", msg, e.Text)
}

func (e *UnmatchedLineError) Unwrap() error { return e.Err }

// IsUnmatched reports whether err is an UnmatchedLineError
func IsUnmatched(err error) bool {
	var u *UnmatchedLineError
	return errors.As(err, &u)
}

// BackendUnavailableError reports that a backend cannot run here: an external
// program is missing or failed, or a required service is absent. During
// dispatch it makes the registry fall through to the next recognizer.
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as a BackendUnavailableError for the named backend
func Unavailable(backend string, err error) error {
	return &BackendUnavailableError{Backend: backend, Err: err}
}

// IsUnavailable reports whether err is a BackendUnavailableError
func IsUnavailable(err error) bool {
	var u *BackendUnavailableError
	return errors.As(err, &u)
}
