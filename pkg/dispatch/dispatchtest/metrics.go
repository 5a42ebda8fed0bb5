package dispatchtest

import "sync"

// Counts records dispatcher outcomes per kind.
type Counts struct {
	mu         sync.Mutex
	dispatched int
	superseded int
	cancelled  int
	failed     int
}

func (c *Counts) Dispatched(string) { c.add(&c.dispatched) }
func (c *Counts) Superseded(string) { c.add(&c.superseded) }
func (c *Counts) Cancelled(string)  { c.add(&c.cancelled) }
func (c *Counts) Failed(string)     { c.add(&c.failed) }

func (c *Counts) add(field *int) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// Snapshot returns dispatched, superseded, cancelled and failed totals.
func (c *Counts) Snapshot() (dispatched, superseded, cancelled, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatched, c.superseded, c.cancelled, c.failed
}
