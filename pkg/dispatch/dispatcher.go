// Package dispatch debounces bursts of form events into a single outbound
// snapshot per quiet period.
//
// A Dispatcher is a two-state machine. Notify moves it to PendingEmit and
// (re)starts the one timer it owns; when the timer fires the form is
// collected once and sent, and the machine returns to Idle. Close cancels
// the pending timer and waits for any in-flight send, after which nothing
// is ever sent again.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/channel"
	"github.com/goliatone/go-formsync/pkg/snapshot"
)

const (
	// DefaultQuiet is the quiet period used when none is configured.
	DefaultQuiet = 300 * time.Millisecond
	// DefaultEvent is the event name used for autosave pushes.
	DefaultEvent = "autosave"
)

// State enumerates the dispatcher states.
type State int

const (
	StateIdle State = iota
	StatePending
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CollectFunc produces the snapshot to send. It is called once per emission,
// at emission time.
type CollectFunc func() *snapshot.Snapshot

// PayloadFunc converts a snapshot to the wire payload.
type PayloadFunc func(*snapshot.Snapshot) map[string]any

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQuiet sets the quiet period. Non-positive durations are ignored.
func WithQuiet(d time.Duration) Option {
	return func(dsp *Dispatcher) {
		if d > 0 {
			dsp.quiet = d
		}
	}
}

// WithEvent sets the outbound event name.
func WithEvent(event string) Option {
	return func(dsp *Dispatcher) {
		if event != "" {
			dsp.event = event
		}
	}
}

// WithClock swaps the timer source.
func WithClock(clock Clock) Option {
	return func(dsp *Dispatcher) {
		if clock != nil {
			dsp.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(dsp *Dispatcher) {
		if logger != nil {
			dsp.logger = logger
		}
	}
}

// WithMetrics sets the outcome observer.
func WithMetrics(m Metrics) Option {
	return func(dsp *Dispatcher) {
		if m != nil {
			dsp.metrics = m
		}
	}
}

// WithPayload overrides the snapshot to payload conversion.
func WithPayload(fn PayloadFunc) Option {
	return func(dsp *Dispatcher) {
		if fn != nil {
			dsp.payload = fn
		}
	}
}

// WithContext sets the parent context for sends. Close cancels the derived
// context.
func WithContext(ctx context.Context) Option {
	return func(dsp *Dispatcher) {
		if ctx != nil {
			dsp.parent = ctx
		}
	}
}

// Dispatcher owns one pending emission at a time.
type Dispatcher struct {
	channel channel.Channel
	collect CollectFunc
	payload PayloadFunc
	quiet   time.Duration
	event   string
	clock   Clock
	logger  *zap.Logger
	metrics Metrics
	parent  context.Context

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	timer      Timer
	generation uint64

	emitMu   sync.Mutex
	inflight sync.WaitGroup
}

// New constructs a Dispatcher that sends collect's snapshot through ch.
func New(ch channel.Channel, collect CollectFunc, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		channel: ch,
		collect: collect,
		payload: defaultPayload,
		quiet:   DefaultQuiet,
		event:   DefaultEvent,
		clock:   SystemClock,
		logger:  zap.NewNop(),
		metrics: nopMetrics{},
		parent:  context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.channel == nil {
		d.channel = channel.Discard
	}
	if d.collect == nil {
		d.collect = snapshot.New
	}
	d.ctx, d.cancel = context.WithCancel(d.parent)
	return d
}

// Event returns the outbound event name.
func (d *Dispatcher) Event() string { return d.event }

// Quiet returns the configured quiet period.
func (d *Dispatcher) Quiet() time.Duration { return d.quiet }

// State reports the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Notify records a qualifying event, restarting the quiet period. It is a
// no-op after Close.
func (d *Dispatcher) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return
	}
	if d.timer != nil && d.timer.Stop() {
		d.metrics.Superseded(d.event)
	}
	d.generation++
	gen := d.generation
	d.state = StatePending
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// Flush emits immediately when an emission is pending.
func (d *Dispatcher) Flush() error {
	d.mu.Lock()
	switch d.state {
	case StateClosed:
		d.mu.Unlock()
		return ErrClosed
	case StateIdle:
		d.mu.Unlock()
		return ErrNothingPending
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	d.state = StateIdle
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()
	return d.emit()
}

// Close cancels any pending emission, waits for an in-flight send to
// return and disables the dispatcher. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return nil
	}
	if d.state == StatePending {
		if d.timer != nil {
			d.timer.Stop()
		}
		d.metrics.Cancelled(d.event)
		d.logger.Debug("dispatch: cancelled pending emission", zap.String("event", d.event))
	}
	d.timer = nil
	d.generation++
	d.state = StateClosed
	d.mu.Unlock()

	d.cancel()
	d.inflight.Wait()
	return nil
}

// fire runs on the timer goroutine. A timer whose generation was superseded
// by Notify, Flush or Close returns without sending.
func (d *Dispatcher) fire(gen uint64) {
	d.mu.Lock()
	if d.state != StatePending || gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.state = StateIdle
	d.timer = nil
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()
	_ = d.emit()
}

func (d *Dispatcher) emit() error {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	snap := d.collect()
	payload := d.payload(snap)
	if err := d.channel.Send(d.ctx, d.event, payload); err != nil {
		d.metrics.Failed(d.event)
		d.logger.Warn("dispatch: send failed",
			zap.String("event", d.event),
			zap.Error(err),
		)
		return fmt.Errorf("dispatch: send %s: %w", d.event, err)
	}
	d.metrics.Dispatched(d.event)
	d.logger.Debug("dispatch: sent snapshot",
		zap.String("event", d.event),
		zap.Int("fields", snap.Len()),
	)
	return nil
}

func defaultPayload(snap *snapshot.Snapshot) map[string]any {
	if snap == nil {
		return map[string]any{}
	}
	return snap.Map()
}
