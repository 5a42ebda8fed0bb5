package hooks

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/collector"
	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/snapshot"
)

// Autosave pushes the form snapshot after each burst of edits. Input and
// change events restart the quiet period; blur sends right away.
type Autosave struct {
	deps Deps

	collector  *collector.Collector
	dispatcher *dispatch.Dispatcher

	mu     sync.Mutex
	form   *dom.Element
	detach []func()
}

// NewAutosave is the Autosave factory.
func NewAutosave(deps Deps) (Hook, error) {
	return &Autosave{deps: deps.withDefaults()}, nil
}

// Mounted resolves the form and starts listening.
func (a *Autosave) Mounted(context.Context) error {
	el := a.deps.Element

	prefix := a.deps.Prefix
	if v := strings.TrimSpace(el.Dataset("prefix")); v != "" {
		prefix = v
	}
	event := a.deps.Event
	if v := strings.TrimSpace(el.Dataset("event")); v != "" {
		event = v
	}
	quiet := a.deps.Quiet
	if v := el.Dataset("quiet"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			quiet = d
		} else {
			a.deps.Logger.Warn("hooks: ignoring invalid data-quiet", zap.String("value", v))
		}
	}

	a.collector = collector.New(collector.WithPrefix(prefix), collector.WithLogger(a.deps.Logger))
	a.dispatcher = dispatch.New(a.deps.Channel, a.collect, a.deps.dispatcherOptions(event, quiet)...)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.form = formFor(el)
	if a.form == nil {
		a.deps.Logger.Warn("hooks: autosave has no form to watch")
		return nil
	}
	a.bind()
	return nil
}

// Updated re-resolves the form; a pending emission survives.
func (a *Autosave) Updated(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unbind()
	a.form = formFor(a.deps.Element)
	if a.form != nil {
		a.bind()
	}
	return nil
}

// Destroyed detaches listeners and cancels any pending emission.
func (a *Autosave) Destroyed() {
	a.mu.Lock()
	a.unbind()
	a.form = nil
	a.mu.Unlock()
	if a.dispatcher != nil {
		_ = a.dispatcher.Close()
	}
}

// State reports the dispatcher state.
func (a *Autosave) State() dispatch.State {
	if a.dispatcher == nil {
		return dispatch.StateIdle
	}
	return a.dispatcher.State()
}

// Collect returns the current snapshot of the watched form.
func (a *Autosave) Collect() *snapshot.Snapshot {
	return a.collect()
}

func (a *Autosave) collect() *snapshot.Snapshot {
	a.mu.Lock()
	form := a.form
	a.mu.Unlock()
	return a.collector.Collect(form)
}

func (a *Autosave) bind() {
	notify := func(dom.Event) { a.dispatcher.Notify() }
	a.detach = append(a.detach,
		a.form.AddEventListener(dom.EventInput, notify),
		a.form.AddEventListener(dom.EventChange, notify),
		a.form.AddEventListener(dom.EventBlur, func(dom.Event) {
			a.dispatcher.Notify()
			if err := a.dispatcher.Flush(); err != nil {
				a.deps.Logger.Debug("hooks: autosave flush on blur", zap.Error(err))
			}
		}),
	)
}

func (a *Autosave) unbind() {
	for _, remove := range a.detach {
		remove()
	}
	a.detach = nil
}

// formFor returns el when it is a form, the form named by data-form, or the
// closest enclosing form.
func formFor(el *dom.Element) *dom.Element {
	if el == nil {
		return nil
	}
	if el.Tag() == "form" {
		return el
	}
	if id := strings.TrimSpace(el.Dataset("form")); id != "" {
		return el.Document().ByID(id)
	}
	return el.Closest("form")
}
