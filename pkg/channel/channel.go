// Package channel defines the outbound sync channel hooks push events to,
// together with small in-process implementations. Network transports live
// in the phoenix and natschan subpackages.
package channel

import (
	"context"
	"sync"
	"time"
)

// Channel delivers a named event with its payload to the remote process.
// Delivery is fire-and-forget for callers: an error means the message was
// not handed off, never that the server rejected it.
type Channel interface {
	Send(ctx context.Context, event string, payload map[string]any) error
}

// Closer is implemented by channels that own network resources.
type Closer interface {
	Close() error
}

// Func adapts a function to Channel.
type Func func(ctx context.Context, event string, payload map[string]any) error

// Send calls f.
func (f Func) Send(ctx context.Context, event string, payload map[string]any) error {
	if f == nil {
		return ErrNilChannel
	}
	return f(ctx, event, payload)
}

// Discard drops every message.
var Discard Channel = Func(func(context.Context, string, map[string]any) error { return nil })

// Message is a recorded send.
type Message struct {
	Event   string
	Payload map[string]any
	At      time.Time
}

// Recorder keeps every message it receives. It backs tests and the CLI's
// dry-run transport.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	notify   chan struct{}
	err      error
	now      func() time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1), now: time.Now}
}

// Send records the message, or returns the configured failure.
func (r *Recorder) Send(ctx context.Context, event string, payload map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return err
	}
	r.messages = append(r.messages, Message{Event: event, Payload: payload, At: r.now()})
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// FailWith makes subsequent sends return err. Pass nil to recover.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Len reports the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset clears recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}

// Wait blocks until at least n messages were recorded or ctx ends.
func (r *Recorder) Wait(ctx context.Context, n int) error {
	for {
		if r.Len() >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
		}
	}
}
