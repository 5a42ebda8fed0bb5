package dispatch

// Metrics observes dispatcher outcomes. Each method receives the event name.
type Metrics interface {
	Dispatched(event string)
	Superseded(event string)
	Cancelled(event string)
	Failed(event string)
}

type nopMetrics struct{}

func (nopMetrics) Dispatched(string) {}
func (nopMetrics) Superseded(string) {}
func (nopMetrics) Cancelled(string)  {}
func (nopMetrics) Failed(string)     {}
