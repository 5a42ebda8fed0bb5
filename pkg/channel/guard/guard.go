// Package guard wraps a channel and validates payloads against OpenAPI
// request schemas before forwarding them.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/channel"
)

// ErrUnknownOperation is returned when a binding names an operation the
// document does not define.
var ErrUnknownOperation = errors.New("guard: unknown operation")

// ValidationError reports a payload rejected by its schema.
type ValidationError struct {
	Event     string
	Operation string
	Path      []string
	Err       error
}

func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("guard: %s payload invalid for %s at %v: %v", e.Event, e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("guard: %s payload invalid for %s: %v", e.Event, e.Operation, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Option configures a Channel.
type Option func(*Channel)

// WithBinding validates event payloads against operationID's schema.
func WithBinding(event, operationID string) Option {
	return func(c *Channel) {
		if event != "" && operationID != "" {
			c.bindings[event] = operationID
		}
	}
}

// WithStrict rejects events that have no binding.
func WithStrict(strict bool) Option {
	return func(c *Channel) {
		c.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Channel is a validating decorator around another channel.
type Channel struct {
	next     channel.Channel
	schemas  Schemas
	bindings map[string]string
	strict   bool
	logger   *zap.Logger
}

var _ channel.Channel = (*Channel)(nil)

// New wraps next. Every binding must reference a known operation.
func New(next channel.Channel, schemas Schemas, opts ...Option) (*Channel, error) {
	if next == nil {
		return nil, channel.ErrNilChannel
	}
	c := &Channel{
		next:     next,
		schemas:  schemas,
		bindings: make(map[string]string),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	for _, event := range c.Events() {
		op := c.bindings[event]
		if _, ok := c.schemas[op]; !ok {
			return nil, fmt.Errorf("%w: %s (bound to %s)", ErrUnknownOperation, op, event)
		}
	}
	return c, nil
}

// Events lists bound event names, sorted.
func (c *Channel) Events() []string {
	out := make([]string, 0, len(c.bindings))
	for event := range c.bindings {
		out = append(out, event)
	}
	sort.Strings(out)
	return out
}

// Send validates and forwards.
func (c *Channel) Send(ctx context.Context, event string, payload map[string]any) error {
	if err := c.Validate(event, payload); err != nil {
		c.logger.Warn("guard: rejected payload", zap.String("event", event), zap.Error(err))
		return err
	}
	return c.next.Send(ctx, event, payload)
}

// Validate checks payload against the schema bound to event.
func (c *Channel) Validate(event string, payload map[string]any) error {
	op, ok := c.bindings[event]
	if !ok {
		if c.strict {
			return fmt.Errorf("guard: no schema bound to event %q", event)
		}
		return nil
	}
	schema := c.schemas[op]
	if payload == nil {
		payload = map[string]any{}
	}
	value := make(map[string]any, len(payload))
	for k, v := range payload {
		value[k] = v
	}
	if err := schema.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		verr := &ValidationError{Event: event, Operation: op, Err: err}
		var serr *openapi3.SchemaError
		if errors.As(err, &serr) {
			verr.Path = serr.JSONPointer()
		}
		return verr
	}
	return nil
}
