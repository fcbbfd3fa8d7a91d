// Package metrics exposes engine counters through Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts alerts at each pipeline stage.
type Metrics struct {
	Submitted  prometheus.Counter
	Invalid    prometheus.Counter
	Suppressed prometheus.Counter
	Grouped    prometheus.Counter
	Queued     prometheus.Counter
	Delivered  prometheus.Counter
	Failed     prometheus.Counter
	Escalated  prometheus.Counter
	QueueDepth prometheus.Gauge
}

// New creates engine metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_submitted_total",
			Help: "Alerts submitted to the engine.",
		}),
		Invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_invalid_total",
			Help: "Alerts rejected by validation.",
		}),
		Suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_suppressed_total",
			Help: "Alerts dropped by the suppression filter.",
		}),
		Grouped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_grouped_total",
			Help: "Alerts buffered into an open group.",
		}),
		Queued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_queued_total",
			Help: "Alerts placed on the pending queue.",
		}),
		Delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_delivered_total",
			Help: "Alerts delivered on all enabled channels.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_failed_total",
			Help: "Alerts that failed on at least one enabled channel.",
		}),
		Escalated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertpipe_alerts_escalated_total",
			Help: "Escalation alerts synthesized.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertpipe_queue_depth",
			Help: "Alerts currently waiting on the pending queue.",
		}),
	}

	reg.MustRegister(
		m.Submitted, m.Invalid, m.Suppressed, m.Grouped, m.Queued,
		m.Delivered, m.Failed, m.Escalated, m.QueueDepth,
	)
	return m
}
