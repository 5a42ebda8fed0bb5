package hooks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/channel"
	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/export"
)

// Hook is a client behavior bound to one element.
type Hook interface {
	Mounted(ctx context.Context) error
	Updated(ctx context.Context) error
	Destroyed()
}

// Metrics observes hook and dispatcher outcomes.
type Metrics interface {
	dispatch.Metrics
	Mounted(hook string)
	Destroyed(hook string)
	Exported(format string, err error)
}

type nopMetrics struct{}

func (nopMetrics) Dispatched(string)      {}
func (nopMetrics) Superseded(string)      {}
func (nopMetrics) Cancelled(string)       {}
func (nopMetrics) Failed(string)          {}
func (nopMetrics) Mounted(string)         {}
func (nopMetrics) Destroyed(string)       {}
func (nopMetrics) Exported(string, error) {}

// Deps is everything a factory may use. The session fills it per mount.
type Deps struct {
	// Context outlives individual lifecycle calls; it is cancelled when the
	// session closes.
	Context context.Context
	Channel channel.Channel
	Element *dom.Element
	Logger  *zap.Logger
	Metrics Metrics
	Clock   dispatch.Clock

	// Autosave defaults, overridable per element with data-prefix,
	// data-event and data-quiet.
	Prefix string
	Event  string
	Quiet  time.Duration

	Exports *export.Registry
	Sources map[string]ExportSource
	Sink    Sink
	Style   export.Style
}

// Factory builds a hook. It must not touch the element; that happens in
// Mounted.
type Factory func(deps Deps) (Hook, error)

func (d Deps) withDefaults() Deps {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Channel == nil {
		d.Channel = channel.Discard
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = dispatch.SystemClock
	}
	if d.Quiet <= 0 {
		d.Quiet = dispatch.DefaultQuiet
	}
	if d.Event == "" {
		d.Event = dispatch.DefaultEvent
	}
	if d.Style.Font == "" {
		d.Style = export.DefaultStyle()
	}
	return d
}

// dispatcherOptions are shared by every debounced hook.
func (d Deps) dispatcherOptions(event string, quiet time.Duration) []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithEvent(event),
		dispatch.WithQuiet(quiet),
		dispatch.WithClock(d.Clock),
		dispatch.WithLogger(d.Logger),
		dispatch.WithMetrics(d.Metrics),
		dispatch.WithContext(d.Context),
	}
}
