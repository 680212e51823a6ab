package domain

import "errors"

// Error taxonomy for the missed check-in sweep
var (
	// Bad per-user settings, e.g. an unknown timezone or an out of range grace period
	ErrConfiguration = errors.New("invalid configuration")

	// An outbound notification could not be delivered
	ErrTransport = errors.New("transport error")

	// Reading from or writing to a backing store failed
	ErrRepository = errors.New("repository error")

	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrAlertAlreadyRecorded   = errors.New("alert already recorded for this day")
	ErrUserLocked             = errors.New("user is locked by another sweep")
	ErrUserNotFound           = errors.New("user not found")
)
