package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoFileOpener is returned when a file field is prompted without a
	// FileOpener configured.
	ErrNoFileOpener = errors.New("tui: no file opener configured")
)
