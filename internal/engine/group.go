package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// group buffers similar alerts until its window expires or it fills up.
// A group is closed exactly once: it is removed from the map under lock
// before its alerts are forwarded.
type group struct {
	Key       alert.Key
	Alerts    []*alert.Alert
	FirstSeen time.Time
	LastSeen  time.Time
	Deadline  time.Time
	timer     *time.Timer
}

// aggregateLocked runs the grouping stage for one alert. Caller holds e.mu.
func (e *Engine) aggregateLocked(a *alert.Alert, now time.Time) []Event {
	rules := e.cfg.Rules.Grouping
	if !rules.Enabled {
		return e.enqueueLocked(a, now)
	}

	key := alert.KeyOf(a)
	g, ok := e.groups[key]

	// A group past its deadline that the timer has not reaped yet (or
	// whose timer was driven by a test clock) closes now; the new alert
	// starts a fresh group below.
	var events []Event
	if ok && !now.Before(g.Deadline) {
		events = append(events, e.closeGroupLocked(g, now)...)
		ok = false
	}

	if !ok {
		g = &group{
			Key:       key,
			Alerts:    []*alert.Alert{a},
			FirstSeen: now,
			LastSeen:  now,
			Deadline:  now.Add(rules.GroupWindow.Std()),
		}
		e.groups[key] = g
		g.timer = time.AfterFunc(rules.GroupWindow.Std(), func() {
			e.flushGroup(g)
		})
		return events
	}

	g.Alerts = append(g.Alerts, a)
	g.LastSeen = now
	if e.metrics != nil {
		e.metrics.Grouped.Inc()
	}
	e.log.Debug().
		Str("alert_id", a.ID).
		Str("key", key.String()).
		Int("group_size", len(g.Alerts)).
		Msg("Alert added to group")

	ev := Event{Type: EventGrouped, Time: now, Alert: a}
	ev.Fields = map[string]any{"key": key.String(), "groupSize": len(g.Alerts)}
	events = append(events, ev)

	if len(g.Alerts) >= rules.MaxGroupSize {
		events = append(events, e.closeGroupLocked(g, now)...)
	}
	return events
}

// flushGroup is the deferred timer callback for a group's window expiry.
func (e *Engine) flushGroup(g *group) {
	now := e.clk.Now()

	e.mu.Lock()
	// The group may already have been closed by the size cap or a tick
	// sweep, and a successor group may occupy the key.
	if e.groups[g.Key] != g {
		e.mu.Unlock()
		return
	}
	events := e.closeGroupLocked(g, now)
	e.mu.Unlock()

	e.emit(events...)
}

// flushDueGroups closes every group whose deadline has passed. The tick
// sweep backs up the per-group timers so flushes stay deterministic under
// a virtual clock.
func (e *Engine) flushDueGroups(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	for _, g := range e.groups {
		if !now.Before(g.Deadline) {
			events = append(events, e.closeGroupLocked(g, now)...)
		}
	}
	return events
}

// closeGroupLocked removes the group and forwards its contents: a single
// alert passes through unmodified, a larger group collapses into one
// summary alert. Caller holds e.mu.
func (e *Engine) closeGroupLocked(g *group, now time.Time) []Event {
	delete(e.groups, g.Key)
	if g.timer != nil {
		g.timer.Stop()
	}

	if len(g.Alerts) == 1 {
		return e.enqueueLocked(g.Alerts[0], now)
	}

	first := g.Alerts[0]
	ids := make([]string, len(g.Alerts))
	for i, member := range g.Alerts {
		ids[i] = member.ID
	}

	summary := &alert.Alert{
		ID:        "group-" + uuid.NewString(),
		Type:      first.Type,
		Severity:  first.Severity,
		Message:   fmt.Sprintf("%d %s alerts of type %q", len(g.Alerts), first.Severity, first.Type),
		Timestamp: now,
		Source:    first.Source,
		Host:      first.Host,
		PID:       first.PID,
		Priority:  first.Priority,
		Grouped:   true,
		Data: map[string]any{
			"groupKey":   g.Key.String(),
			"alertCount": len(g.Alerts),
			"alertIds":   ids,
			"firstSeen":  g.FirstSeen,
			"lastSeen":   g.LastSeen,
		},
	}

	e.log.Info().
		Str("key", g.Key.String()).
		Int("alert_count", len(g.Alerts)).
		Str("summary_id", summary.ID).
		Msg("Group flushed")

	ev := Event{Type: EventGroupProcessed, Time: now, Alert: summary}
	ev.Fields = map[string]any{"key": g.Key.String(), "alertCount": len(g.Alerts)}

	events := []Event{ev}
	return append(events, e.enqueueLocked(summary, now)...)
}
