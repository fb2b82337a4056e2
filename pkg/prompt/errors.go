package prompt

import "errors"

var (
	// ErrAborted signals the operator aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoEntries is returned when an entry is picked from an empty form.
	ErrNoEntries = errors.New("prompt: form has no consent entries")
)
