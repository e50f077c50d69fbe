package tracker

import "errors"

var (
	// ErrStorageUnavailable wraps journal read/write failures.
	ErrStorageUnavailable = errors.New("journal storage unavailable")
	// ErrInvalidDayState means the current-day pointer does not resolve to a day.
	ErrInvalidDayState = errors.New("invalid day state")
	// ErrNotReady is returned when the first day of a week is advanced before it is done.
	ErrNotReady = errors.New("day not ready to advance")
	// ErrHardwareCommand wraps indicator and audio failures. These are logged, never returned.
	ErrHardwareCommand = errors.New("hardware command failed")
)
