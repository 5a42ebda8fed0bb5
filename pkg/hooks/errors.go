package hooks

import "errors"

var (
	// ErrUnknownHook is returned when no factory is registered for a name.
	ErrUnknownHook = errors.New("hooks: unknown hook")
	// ErrNoElement is returned when mounting without an element.
	ErrNoElement = errors.New("hooks: element is required")
	// ErrNotMounted is returned for instance ids the session does not hold.
	ErrNotMounted = errors.New("hooks: hook not mounted")
	// ErrSessionClosed is returned once the session has been closed.
	ErrSessionClosed = errors.New("hooks: session closed")
	// ErrBusy is returned when an export is already running.
	ErrBusy = errors.New("hooks: export already in progress")
	// ErrNoSource is returned when an export names an unknown source.
	ErrNoSource = errors.New("hooks: export source not found")
)
