package hooks

import (
	"context"
	"sync"

	"github.com/goliatone/go-formsync/pkg/dispatch"
	"github.com/goliatone/go-formsync/pkg/dom"
	"github.com/goliatone/go-formsync/pkg/snapshot"
)

// SectionCategoryEvent is pushed with {section_id, category}.
const SectionCategoryEvent = "update_section_category"

// SectionCategory debounces edits of a single category control and pushes
// its value together with the element's data-section-id.
type SectionCategory struct {
	deps       Deps
	dispatcher *dispatch.Dispatcher

	mu     sync.Mutex
	detach []func()
}

// NewSectionCategory is the SectionCategory factory.
func NewSectionCategory(deps Deps) (Hook, error) {
	return &SectionCategory{deps: deps.withDefaults()}, nil
}

func (h *SectionCategory) Mounted(context.Context) error {
	opts := append(h.deps.dispatcherOptions(SectionCategoryEvent, h.deps.Quiet), dispatch.WithPayload(h.payload))
	h.dispatcher = dispatch.New(h.deps.Channel, nil, opts...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.bind()
	return nil
}

// Updated re-binds the listener. A pending push restarts its quiet period
// so it carries the value as patched.
func (h *SectionCategory) Updated(context.Context) error {
	h.mu.Lock()
	h.unbind()
	h.bind()
	h.mu.Unlock()
	if h.dispatcher.State() == dispatch.StatePending {
		h.dispatcher.Notify()
	}
	return nil
}

func (h *SectionCategory) Destroyed() {
	h.mu.Lock()
	h.unbind()
	h.mu.Unlock()
	if h.dispatcher != nil {
		_ = h.dispatcher.Close()
	}
}

// State reports the dispatcher state.
func (h *SectionCategory) State() dispatch.State {
	if h.dispatcher == nil {
		return dispatch.StateIdle
	}
	return h.dispatcher.State()
}

func (h *SectionCategory) payload(*snapshot.Snapshot) map[string]any {
	el := h.deps.Element
	return map[string]any{
		"section_id": el.Dataset("section-id"),
		"category":   el.Value(),
	}
}

func (h *SectionCategory) bind() {
	notify := func(dom.Event) { h.dispatcher.Notify() }
	h.detach = append(h.detach,
		h.deps.Element.AddEventListener(dom.EventInput, notify),
		h.deps.Element.AddEventListener(dom.EventChange, notify),
	)
}

func (h *SectionCategory) unbind() {
	for _, remove := range h.detach {
		remove()
	}
	h.detach = nil
}
