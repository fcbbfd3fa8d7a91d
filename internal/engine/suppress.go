package engine

import (
	"time"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// suppressionEntry tracks repeated alerts of one (type, severity) key.
// Count includes the first alert that created the entry; Count-1 alerts
// have been suppressed.
type suppressionEntry struct {
	Key       alert.Key
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
	Latest    *alert.Alert
}

// SuppressionStatus is the externally visible view of one entry.
type SuppressionStatus struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// filterLocked applies the suppression filter. It returns true when the
// alert is suppressed and must not continue down the pipeline. Once
// max_suppressed_alerts have been dropped inside one window the next alert
// of the key passes through and restarts the entry, so a persistent
// condition still produces periodic notifications. Caller holds e.mu.
func (e *Engine) filterLocked(a *alert.Alert, now time.Time) (bool, []Event) {
	rules := e.cfg.Rules.Suppression
	if !rules.Enabled {
		return false, nil
	}

	key := alert.KeyOf(a)
	entry, ok := e.suppression[key]
	if ok && now.Sub(entry.LastSeen) < rules.SuppressionWindow.Std() {
		if entry.Count-1 >= rules.MaxSuppressedAlerts {
			e.suppression[key] = &suppressionEntry{
				Key:       key,
				Count:     1,
				FirstSeen: now,
				LastSeen:  now,
				Latest:    a,
			}
			return false, nil
		}

		entry.Count++
		entry.LastSeen = now
		entry.Latest = a
		if e.metrics != nil {
			e.metrics.Suppressed.Inc()
		}
		e.log.Debug().
			Str("alert_id", a.ID).
			Str("key", key.String()).
			Int("count", entry.Count).
			Msg("Alert suppressed")

		ev := Event{Type: EventSuppressed, Time: now, Alert: a}
		ev.Fields = map[string]any{"key": key.String(), "count": entry.Count}
		return true, []Event{ev}
	}

	// First alert of the key, or the previous window lapsed.
	e.suppression[key] = &suppressionEntry{
		Key:       key,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
		Latest:    a,
	}
	return false, nil
}

// Suppressions returns a snapshot of active suppression entries.
func (e *Engine) Suppressions() []SuppressionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]SuppressionStatus, 0, len(e.suppression))
	for _, entry := range e.suppression {
		out = append(out, SuppressionStatus{
			Key:       entry.Key.String(),
			Count:     entry.Count,
			FirstSeen: entry.FirstSeen,
			LastSeen:  entry.LastSeen,
		})
	}
	return out
}
