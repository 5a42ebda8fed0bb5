package dispatch

import "errors"

var (
	// ErrClosed is returned by Flush once the dispatcher was closed.
	ErrClosed = errors.New("dispatch: dispatcher closed")
	// ErrNothingPending is returned by Flush when no emission is scheduled.
	ErrNothingPending = errors.New("dispatch: nothing pending")
)
