package hooks

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formsync/pkg/dom"
)

// Notification dropdown defaults and events.
const (
	NotificationDropdownID  = "notification-dropdown"
	NotificationContainerID = "notification-container"

	ToggleNotificationsEvent = "toggle_notifications"
	CloseNotificationsEvent  = "close_notifications"
)

var (
	dropdownOpen   = []string{"opacity-100", "scale-100", "pointer-events-auto"}
	dropdownClosed = []string{"opacity-0", "scale-95", "pointer-events-none"}
)

// NotificationToggle opens and closes the notification dropdown. Clicking
// the hook element toggles it; clicking anywhere outside the container
// closes it. Without the dropdown or container the hook does nothing.
type NotificationToggle struct {
	deps Deps

	mu        sync.Mutex
	dropdown  *dom.Element
	container *dom.Element
	detach    []func()
}

// NewNotificationToggle is the NotificationToggle factory.
func NewNotificationToggle(deps Deps) (Hook, error) {
	return &NotificationToggle{deps: deps.withDefaults()}, nil
}

func (h *NotificationToggle) Mounted(context.Context) error {
	el := h.deps.Element
	doc := el.Document()
	dropdown := doc.ByID(idOr(el.Dataset("dropdown"), NotificationDropdownID))
	container := doc.ByID(idOr(el.Dataset("container"), NotificationContainerID))
	if dropdown == nil || container == nil {
		h.deps.Logger.Debug("hooks: notification toggle inert, dropdown or container missing")
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropdown, h.container = dropdown, container
	h.detach = append(h.detach,
		el.AddEventListener(dom.EventClick, h.handleClick),
		doc.AddEventListener(dom.EventClick, h.handleClickAway),
	)
	return nil
}

// Updated resyncs the dropdown with data-notifications-open.
func (h *NotificationToggle) Updated(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dropdown == nil {
		return nil
	}
	h.setOpen(h.deps.Element.Dataset("notifications-open") == "true")
	return nil
}

func (h *NotificationToggle) Destroyed() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, remove := range h.detach {
		remove()
	}
	h.detach = nil
}

// Open reports whether the dropdown is shown.
func (h *NotificationToggle) Open() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isOpen()
}

// Inert reports whether the hook found nothing to control.
func (h *NotificationToggle) Inert() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropdown == nil
}

func (h *NotificationToggle) handleClick(dom.Event) {
	h.mu.Lock()
	h.setOpen(!h.isOpen())
	h.mu.Unlock()
	h.push(ToggleNotificationsEvent)
}

// handleClickAway closes an open dropdown. Clicks inside the container,
// including the toggle itself, are left to handleClick.
func (h *NotificationToggle) handleClickAway(ev dom.Event) {
	h.mu.Lock()
	if h.container.Contains(ev.Target) || !h.isOpen() {
		h.mu.Unlock()
		return
	}
	h.setOpen(false)
	h.mu.Unlock()
	h.push(CloseNotificationsEvent)
}

func (h *NotificationToggle) isOpen() bool {
	return h.dropdown != nil && h.dropdown.HasClass(dropdownOpen[0])
}

func (h *NotificationToggle) setOpen(open bool) {
	if open {
		h.dropdown.RemoveClass(dropdownClosed...)
		h.dropdown.AddClass(dropdownOpen...)
	} else {
		h.dropdown.RemoveClass(dropdownOpen...)
		h.dropdown.AddClass(dropdownClosed...)
	}
	h.deps.Element.SetAttr("aria-expanded", strconv.FormatBool(open))
}

func (h *NotificationToggle) push(event string) {
	if err := h.deps.Channel.Send(h.deps.Context, event, map[string]any{}); err != nil {
		h.deps.Logger.Warn("hooks: push failed", zap.String("event", event), zap.Error(err))
	}
}

func idOr(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return id
}
