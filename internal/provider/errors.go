package provider

import "errors"

// Error kinds surfaced to the session. All of them are recoverable: the
// screen stays interactive and keeps the last good fix on display.
var (
	// ErrPermissionDenied means the backend's access gate was declined
	// (serial device node not readable, broker rejected the credentials).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLocationUnavailable means the backend reported an error or timed
	// out before producing a fix.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrSwitchFailed wraps a failure to start the new backend's watch in
	// the middle of a provider switch.
	ErrSwitchFailed = errors.New("provider switch failed")
)
