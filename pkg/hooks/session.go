package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/channel"
	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/export"
)

// HookAttr marks elements that carry a hook.
const HookAttr = "phx-hook"

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRegistry swaps the hook registry.
func WithRegistry(r *Registry) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger sets the session logger. Hooks get a named child.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.deps.Logger = logger
		}
	}
}

// WithMetrics sets the metrics observer passed to every hook.
func WithMetrics(m Metrics) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.deps.Metrics = m
		}
	}
}

// WithClock sets the timer source used by debounced hooks.
func WithClock(clock dispatch.Clock) SessionOption {
	return func(s *Session) {
		if clock != nil {
			s.deps.Clock = clock
		}
	}
}

// WithQuiet sets the default debounce period.
func WithQuiet(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.deps.Quiet = d
		}
	}
}

// WithPrefix sets the default autosave field prefix.
func WithPrefix(prefix string) SessionOption {
	return func(s *Session) {
		s.deps.Prefix = strings.TrimSpace(prefix)
	}
}

// WithEvent sets the default autosave event name.
func WithEvent(event string) SessionOption {
	return func(s *Session) {
		if event != "" {
			s.deps.Event = event
		}
	}
}

// WithExports sets the renderers used by export hooks.
func WithExports(r *export.Registry) SessionOption {
	return func(s *Session) {
		s.deps.Exports = r
	}
}

// WithSource registers a named export source.
func WithSource(name string, src ExportSource) SessionOption {
	return func(s *Session) {
		if name == "" || src == nil {
			return
		}
		if s.deps.Sources == nil {
			s.deps.Sources = make(map[string]ExportSource)
		}
		s.deps.Sources[name] = src
	}
}

// WithSink sets where export hooks deliver rendered files.
func WithSink(sink Sink) SessionOption {
	return func(s *Session) {
		s.deps.Sink = sink
	}
}

// WithStyle sets the export style.
func WithStyle(style export.Style) SessionOption {
	return func(s *Session) {
		s.deps.Style = style
	}
}

// WithContext sets the parent context. Closing the session cancels it.
func WithContext(ctx context.Context) SessionOption {
	return func(s *Session) {
		if ctx != nil {
			s.deps.Context = ctx
		}
	}
}

// Instance describes a mounted hook.
type Instance struct {
	ID      string
	Name    string
	Element *dom.Element
}

type mounted struct {
	Instance
	hook Hook
}

// Session owns the hooks mounted for one connected page and the channel
// they push through.
type Session struct {
	id       string
	registry *Registry
	deps     Deps
	cancel   context.CancelFunc

	mu      sync.Mutex
	closed  bool
	order   []string
	mounted map[string]*mounted
}

// NewSession binds a registry to ch. A nil channel is rejected.
func NewSession(ch channel.Channel, opts ...SessionOption) (*Session, error) {
	if ch == nil {
		return nil, fmt.Errorf("hooks: new session: %w", channel.ErrNilChannel)
	}
	s := &Session{
		id:      uuid.NewString(),
		mounted: make(map[string]*mounted),
	}
	s.deps.Channel = ch
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	s.deps = s.deps.withDefaults()
	s.deps.Context, s.cancel = context.WithCancel(s.deps.Context)
	s.deps.Logger = s.deps.Logger.With(zap.String("session", s.id))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Channel returns the injected channel.
func (s *Session) Channel() channel.Channel { return s.deps.Channel }

// Mount builds the named hook for el and runs its Mounted callback. The
// returned id addresses the instance in Update and Destroy.
func (s *Session) Mount(ctx context.Context, name string, el *dom.Element) (string, error) {
	if el == nil {
		return "", ErrNoElement
	}
	factory, err := s.registry.Get(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	s.mu.Unlock()

	id := uuid.NewString()
	deps := s.deps
	deps.Element = el
	deps.Logger = s.deps.Logger.With(zap.String("hook", name), zap.String("instance", id))

	hook, err := factory(deps)
	if err != nil {
		return "", fmt.Errorf("hooks: build %s: %w", name, err)
	}
	if err := hook.Mounted(ctx); err != nil {
		hook.Destroyed()
		return "", fmt.Errorf("hooks: mount %s: %w", name, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		hook.Destroyed()
		return "", ErrSessionClosed
	}
	s.mounted[id] = &mounted{Instance: Instance{ID: id, Name: name, Element: el}, hook: hook}
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.deps.Metrics.Mounted(name)
	deps.Logger.Debug("hooks: mounted")
	return id, nil
}

// MountAll mounts every element of doc carrying a phx-hook attribute, in
// document order. Unknown hook names are skipped and reported together.
func (s *Session) MountAll(ctx context.Context, doc *dom.Document) ([]string, error) {
	if doc == nil {
		return nil, nil
	}
	var (
		ids  []string
		errs []error
	)
	for _, el := range doc.WithAttr(HookAttr) {
		name, _ := el.Attr(HookAttr)
		id, err := s.Mount(ctx, strings.TrimSpace(name), el)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// Update runs the Updated callback of a mounted hook.
func (s *Session) Update(ctx context.Context, id string) error {
	m, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := m.hook.Updated(ctx); err != nil {
		return fmt.Errorf("hooks: update %s: %w", m.Name, err)
	}
	return nil
}

// UpdateAll runs Updated on every mounted hook.
func (s *Session) UpdateAll(ctx context.Context) error {
	var errs []error
	for _, inst := range s.Instances() {
		if err := s.Update(ctx, inst.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Destroy tears down one hook.
func (s *Session) Destroy(id string) error {
	s.mu.Lock()
	m, ok := s.mounted[id]
	if ok {
		delete(s.mounted, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMounted, id)
	}
	m.hook.Destroyed()
	s.deps.Metrics.Destroyed(m.Name)
	return nil
}

// Instances lists mounted hooks in mount order.
func (s *Session) Instances() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Instance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.mounted[id].Instance)
	}
	return out
}

// Hook returns the hook behind an instance id.
func (s *Session) Hook(id string) (Hook, error) {
	m, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return m.hook, nil
}

// Close destroys every hook in reverse mount order and cancels the session
// context. Later mounts fail with ErrSessionClosed. The channel stays open;
// it belongs to the caller.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ids := append([]string(nil), s.order...)
	s.mu.Unlock()

	for i := len(ids) - 1; i >= 0; i-- {
		_ = s.Destroy(ids[i])
	}
	s.cancel()
	return nil
}

func (s *Session) lookup(id string) (*mounted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mounted[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMounted, id)
	}
	return m, nil
}
