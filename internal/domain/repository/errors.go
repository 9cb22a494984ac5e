package repository

import "errors"

// Error taxonomy shared by collaborator interfaces. All of these are
// recoverable: no error below may abort the polling loop.
var (
	// ErrUnavailable marks a price or list source that is unreachable or
	// timed out. Recovered by retrying on the next tick.
	ErrUnavailable = errors.New("source unavailable")

	// ErrNotFound marks an unknown symbol or a stale level index after a
	// concurrent list modification.
	ErrNotFound = errors.New("not found")

	// ErrPersist marks a rejected store write. Local state stays at the
	// last known good value.
	ErrPersist = errors.New("persist failure")

	// ErrNotifyUnavailable marks a missing or denied notification
	// capability. Delivery silently degrades.
	ErrNotifyUnavailable = errors.New("notification unavailable")
)
