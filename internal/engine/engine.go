// Package engine implements the alert pipeline: ingestion, suppression,
// time-windowed grouping, batched multi-channel dispatch, escalation, and
// history retention. One Engine owns all of its state; independent engines
// can run side by side.
package engine

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/channel"
	"github.com/alertpipe/alertpipe/internal/clock"
	"github.com/alertpipe/alertpipe/internal/config"
	"github.com/alertpipe/alertpipe/internal/metrics"
)

// Engine accepts alerts, reduces noise, and drives delivery on a fixed tick.
type Engine struct {
	cfg      *config.Config
	registry *channel.Registry
	log      zerolog.Logger
	clk      clock.Clock
	metrics  *metrics.Metrics

	source string
	host   string
	pid    int

	mu          sync.Mutex
	queue       []*alert.Alert
	suppression map[alert.Key]*suppressionEntry
	groups      map[alert.Key]*group
	history     map[string]*Record
	escalations map[string]*escalationRecord

	handlersMu sync.RWMutex
	handlers   []Handler

	cancel context.CancelFunc
	done   chan struct{}
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithClock substitutes the engine's time source, used by tests.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clk = c }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSource overrides the source tag stamped on enriched alerts.
func WithSource(source string) Option {
	return func(e *Engine) { e.source = source }
}

// New creates an engine delivering through the given channel registry.
func New(cfg *config.Config, registry *channel.Registry, log zerolog.Logger, opts ...Option) *Engine {
	host, _ := os.Hostname()
	e := &Engine{
		cfg:         cfg,
		registry:    registry,
		log:         log.With().Str("component", "engine").Logger(),
		clk:         clock.Real(),
		source:      "alertpipe",
		host:        host,
		pid:         os.Getpid(),
		suppression: make(map[alert.Key]*suppressionEntry),
		groups:      make(map[alert.Key]*group),
		history:     make(map[string]*Record),
		escalations: make(map[string]*escalationRecord),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit accepts one alert from a producer. It never blocks on delivery and
// never returns an error: invalid alerts are dropped and reported through an
// alertProcessingError event.
func (e *Engine) Submit(a *alert.Alert) {
	now := e.clk.Now()
	e.countSubmitted()

	if err := a.Validate(); err != nil {
		e.countInvalid()
		e.log.Warn().Err(err).Msg("Alert rejected")
		ev := Event{Type: EventProcessingError, Time: now, Alert: a}
		ev.Fields = map[string]any{"error": err.Error()}
		e.emit(ev)
		return
	}

	e.enrich(a, now)

	e.mu.Lock()
	var events []Event

	// Escalation re-entries skip suppression and grouping.
	if a.Escalated {
		events = append(events, e.enqueueLocked(a, now)...)
	} else {
		suppressed, evs := e.filterLocked(a, now)
		events = append(events, evs...)
		if suppressed {
			e.mu.Unlock()
			e.emit(events...)
			return
		}
		events = append(events, e.aggregateLocked(a, now)...)
	}
	e.mu.Unlock()

	e.emit(events...)
}

// enrich stamps source metadata and the priority descriptor.
func (e *Engine) enrich(a *alert.Alert, now time.Time) {
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
	if a.Source == "" {
		a.Source = e.source
	}
	if a.Host == "" {
		a.Host = e.host
	}
	if a.PID == 0 {
		a.PID = e.pid
	}
	a.Priority = alert.PriorityFor(a.Severity)
}

// enqueueLocked appends an alert to the pending queue. Caller holds e.mu.
func (e *Engine) enqueueLocked(a *alert.Alert, now time.Time) []Event {
	e.queue = append(e.queue, a)
	if e.metrics != nil {
		e.metrics.Queued.Inc()
		e.metrics.QueueDepth.Set(float64(len(e.queue)))
	}
	e.log.Debug().
		Str("alert_id", a.ID).
		Str("type", a.Type).
		Str("severity", string(a.Severity)).
		Int("queue_depth", len(e.queue)).
		Msg("Alert queued")
	return []Event{{Type: EventQueued, Time: now, Alert: a}}
}

// Start launches the scheduling loop. Each tick flushes overdue groups,
// dispatches a batch, scans for escalations, and purges stale state.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go e.run(ctx)
	e.log.Info().
		Dur("tick", e.cfg.Notifications.BatchInterval.Std()).
		Int("batch_size", e.cfg.Notifications.BatchSize).
		Msg("Engine started")
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.Notifications.BatchInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx, e.clk.Now())
		}
	}
}

// tick performs one scheduling pass. In-flight channel deliveries run to
// completion within this pass so their outcomes are recorded.
func (e *Engine) tick(ctx context.Context, now time.Time) {
	e.emit(e.flushDueGroups(now)...)
	e.dispatch(ctx, now)
	e.emit(e.escalate(now)...)
	e.cleanup(now)
}

// Stop halts the scheduling loop and cancels pending group flush timers.
// It does not flush open groups; their alerts are discarded with the rest
// of the in-memory state.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}

	e.mu.Lock()
	for _, g := range e.groups {
		if g.timer != nil {
			g.timer.Stop()
		}
	}
	e.mu.Unlock()

	e.log.Info().Msg("Engine stopped")
}

func (e *Engine) countSubmitted() {
	if e.metrics != nil {
		e.metrics.Submitted.Inc()
	}
}

func (e *Engine) countInvalid() {
	if e.metrics != nil {
		e.metrics.Invalid.Inc()
	}
}

// Stats is a point-in-time summary of engine state.
type Stats struct {
	QueueDepth         int `json:"queue_depth"`
	OpenGroups         int `json:"open_groups"`
	SuppressionEntries int `json:"suppression_entries"`
	HistoryRecords     int `json:"history_records"`
	EscalationRecords  int `json:"escalation_records"`
}

// StatsSnapshot returns current state counts.
func (e *Engine) StatsSnapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		QueueDepth:         len(e.queue),
		OpenGroups:         len(e.groups),
		SuppressionEntries: len(e.suppression),
		HistoryRecords:     len(e.history),
		EscalationRecords:  len(e.escalations),
	}
}
