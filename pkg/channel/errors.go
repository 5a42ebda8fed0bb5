package channel

import "errors"

var (
	// ErrNilChannel is returned when sending through a nil channel func.
	ErrNilChannel = errors.New("channel: nil channel")
	// ErrNotConnected is returned by transports used before Connect or after
	// the connection dropped.
	ErrNotConnected = errors.New("channel: not connected")
	// ErrClosed is returned by transports after Close.
	ErrClosed = errors.New("channel: closed")
	// ErrInvalidEvent is returned for empty event names.
	ErrInvalidEvent = errors.New("channel: invalid event name")
)
