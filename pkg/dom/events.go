package dom

import "golang.org/x/net/html"

// Event types hooks listen for.
const (
	EventInput  = "input"
	EventChange = "change"
	EventBlur   = "blur"
	EventClick  = "click"
)

// Event describes a dispatched DOM event.
type Event struct {
	Type   string
	Target *Element
}

// Listener reacts to an event.
type Listener func(Event)

type listener struct {
	id        uint64
	eventType string
	fn        Listener
}

func (d *Document) addListener(n *html.Node, eventType string, fn Listener) func() {
	if fn == nil || eventType == "" {
		return func() {}
	}
	d.mu.Lock()
	d.nextID++
	l := &listener{id: d.nextID, eventType: eventType, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		items := d.listeners[n]
		for i, item := range items {
			if item.id == l.id {
				items = append(items[:i], items[i+1:]...)
				break
			}
		}
		if len(items) == 0 {
			delete(d.listeners, n)
		} else {
			d.listeners[n] = items
		}
	}
}

// dispatch collects matching listeners from the target up to the root and
// invokes them without holding the lock. Detached targets only reach their
// own listeners because their ancestor chain ends early.
func (d *Document) dispatch(target *Element, eventType string) {
	d.mu.RLock()
	var chain []Listener
	for n := target.node; n != nil; n = n.Parent {
		for _, l := range d.listeners[n] {
			if l.eventType == eventType {
				chain = append(chain, l.fn)
			}
		}
	}
	d.mu.RUnlock()

	evt := Event{Type: eventType, Target: target}
	for _, fn := range chain {
		fn(evt)
	}
}
