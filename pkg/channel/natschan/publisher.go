// Package natschan publishes sync events to NATS subjects.
package natschan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/channel"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "formsync.events"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

var _ Conn = (*nats.Conn)(nil)

// Envelope is the JSON body of each published message.
type Envelope struct {
	ID      string         `json:"id"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	SentAt  time.Time      `json:"sent_at"`
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSubjectPrefix sets the subject prefix; events publish to
// <prefix>.<event>.
func WithSubjectPrefix(prefix string) Option {
	return func(p *Publisher) {
		if prefix = strings.Trim(strings.TrimSpace(prefix), "."); prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithFlush makes every Send wait for the server to acknowledge the flush.
func WithFlush(enabled bool) Option {
	return func(p *Publisher) {
		p.flush = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// Publisher implements channel.Channel on a NATS connection.
type Publisher struct {
	conn   Conn
	prefix string
	flush  bool
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

var _ channel.Channel = (*Publisher)(nil)

// New wraps an existing connection.
func New(conn Conn, opts ...Option) *Publisher {
	p := &Publisher{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Connect dials url and wraps the connection.
func Connect(url string, opts ...Option) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("formsync"))
	if err != nil {
		return nil, fmt.Errorf("natschan: connect %s: %w", url, err)
	}
	return New(conn, opts...), nil
}

// Subject returns the subject for event.
func (p *Publisher) Subject(event string) string {
	return p.prefix + "." + event
}

// Send publishes the event envelope.
func (p *Publisher) Send(ctx context.Context, event string, payload map[string]any) error {
	if p == nil || p.conn == nil {
		return channel.ErrNotConnected
	}
	event = strings.TrimSpace(event)
	if event == "" || strings.ContainsAny(event, " \t*>") {
		return channel.ErrInvalidEvent
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	data, err := json.Marshal(Envelope{
		ID:      p.newID(),
		Event:   event,
		Payload: payload,
		SentAt:  p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("natschan: encode %s: %w", event, err)
	}

	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("natschan: publish %s: %w", subject, err)
	}
	if p.flush {
		if err := p.conn.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("natschan: flush %s: %w", subject, err)
		}
	}
	p.logger.Debug("natschan: published", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		return fmt.Errorf("natschan: drain: %w", err)
	}
	return nil
}
