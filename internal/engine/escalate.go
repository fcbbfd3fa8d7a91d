package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// escalationRecord tracks how far an unresolved alert has been re-raised,
// keyed by the original alert identifier.
type escalationRecord struct {
	AlertID       string
	Level         int
	LastEscalated time.Time
}

// EscalationStatus is the externally visible view of one record.
type EscalationStatus struct {
	AlertID       string    `json:"alert_id"`
	Level         int       `json:"level"`
	LastEscalated time.Time `json:"last_escalated"`
}

// escalate re-raises delivered, escalation-eligible alerts that have been
// outstanding past time_to_escalate, up to the level cap. The trigger is
// time only; there is no acknowledge/resolve signal.
func (e *Engine) escalate(now time.Time) []Event {
	rules := e.cfg.Rules.Escalation
	if !rules.Enabled {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	for id, rec := range e.history {
		if rec.Outcome != alert.OutcomeDelivered || !rec.Alert.Priority.Escalate {
			continue
		}
		// Escalation alerts track their original through its record; they
		// never escalate themselves.
		if rec.Alert.Escalated {
			continue
		}

		esc, ok := e.escalations[id]
		switch {
		case !ok:
			if now.Sub(rec.ProcessedAt) <= rules.TimeToEscalate.Std() {
				continue
			}
			esc = &escalationRecord{AlertID: id, Level: 1, LastEscalated: now}
			e.escalations[id] = esc
		case esc.Level < rules.MaxEscalationLevel:
			if now.Sub(esc.LastEscalated) <= rules.TimeToEscalate.Std() {
				continue
			}
			esc.Level++
			esc.LastEscalated = now
		default:
			// Level cap reached.
			continue
		}

		events = append(events, e.raiseLocked(rec.Alert, esc, now)...)
	}
	return events
}

// raiseLocked synthesizes the escalated alert and re-enters it at the
// pending queue, bypassing suppression and grouping. Caller holds e.mu.
func (e *Engine) raiseLocked(orig *alert.Alert, esc *escalationRecord, now time.Time) []Event {
	severity := orig.Severity
	if esc.Level >= 2 {
		severity = alert.SeverityCritical
	}

	escalated := &alert.Alert{
		ID:        "esc-" + uuid.NewString(),
		Type:      orig.Type,
		Severity:  severity,
		Message:   fmt.Sprintf("[ESCALATION L%d] %s", esc.Level, orig.Message),
		Timestamp: now,
		Source:    orig.Source,
		Host:      orig.Host,
		PID:       orig.PID,
		Priority:  alert.PriorityFor(severity),
		Escalated: true,
		Data: map[string]any{
			"originalId": orig.ID,
			"level":      esc.Level,
		},
	}

	if e.metrics != nil {
		e.metrics.Escalated.Inc()
	}
	e.log.Warn().
		Str("alert_id", orig.ID).
		Str("escalation_id", escalated.ID).
		Int("level", esc.Level).
		Msg("Alert escalated")

	ev := Event{Type: EventEscalated, Time: now, Alert: escalated}
	ev.Fields = map[string]any{"originalId": orig.ID, "level": esc.Level}

	events := []Event{ev}
	return append(events, e.enqueueLocked(escalated, now)...)
}

// Escalations returns a snapshot of active escalation records.
func (e *Engine) Escalations() []EscalationStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]EscalationStatus, 0, len(e.escalations))
	for _, esc := range e.escalations {
		out = append(out, EscalationStatus{
			AlertID:       esc.AlertID,
			Level:         esc.Level,
			LastEscalated: esc.LastEscalated,
		})
	}
	return out
}
