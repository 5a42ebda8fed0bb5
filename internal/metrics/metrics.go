// Package metrics exposes dispatcher and hook counters through Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formsync"

// Collector implements dispatch.Metrics and counts hook lifecycle events.
type Collector struct {
	registry   *prometheus.Registry
	dispatched *prometheus.CounterVec
	superseded *prometheus.CounterVec
	cancelled  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	hooks      *prometheus.GaugeVec
	exports    *prometheus.CounterVec
}

// New registers the counters on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatched_total",
			Help:      "Snapshots handed to the sync channel.",
		}, []string{"event"}),
		superseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_total",
			Help:      "Pending emissions replaced by a newer event.",
		}, []string{"event"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancelled_total",
			Help:      "Pending emissions dropped on teardown.",
		}, []string{"event"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_total",
			Help:      "Sends the channel rejected.",
		}, []string{"event"}),
		hooks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mounted_hooks",
			Help:      "Hooks currently mounted, by hook name.",
		}, []string{"hook"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Rendered export documents, by format and outcome.",
		}, []string{"format", "outcome"}),
	}
	c.registry.MustRegister(c.dispatched, c.superseded, c.cancelled, c.failed, c.hooks, c.exports)
	return c
}

func (c *Collector) Dispatched(event string) { c.dispatched.WithLabelValues(event).Inc() }
func (c *Collector) Superseded(event string) { c.superseded.WithLabelValues(event).Inc() }
func (c *Collector) Cancelled(event string)  { c.cancelled.WithLabelValues(event).Inc() }
func (c *Collector) Failed(event string)     { c.failed.WithLabelValues(event).Inc() }

// Mounted and Destroyed track live hook instances.
func (c *Collector) Mounted(hook string)   { c.hooks.WithLabelValues(hook).Inc() }
func (c *Collector) Destroyed(hook string) { c.hooks.WithLabelValues(hook).Dec() }

// Exported counts an export render.
func (c *Collector) Exported(format string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.exports.WithLabelValues(format, outcome).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
