package session

import "errors"

var (
	// ErrNotConfirmed is returned by destructive commands sent without
	// Confirmed. Callers must show the matching preview and ask first.
	ErrNotConfirmed = errors.New("session: destructive command not confirmed")

	// ErrUnknownCommand is returned for command types the session does not
	// handle.
	ErrUnknownCommand = errors.New("session: unknown command")
)
