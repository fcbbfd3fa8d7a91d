package engine

import (
	"sort"
	"time"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// Record is the terminal processing outcome of one alert, original or
// derived. Exactly one record exists per processed alert identifier.
type Record struct {
	Alert       *alert.Alert  `json:"alert"`
	Outcome     alert.Outcome `json:"outcome"`
	ProcessedAt time.Time     `json:"processed_at"`
	Error       string        `json:"error,omitempty"`
}

// History returns processed-alert records, most recent first.
func (e *Engine) History() []Record {
	e.mu.Lock()
	out := make([]Record, 0, len(e.history))
	for _, rec := range e.history {
		out = append(out, *rec)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ProcessedAt.After(out[j].ProcessedAt)
	})
	return out
}

// cleanup purges history records past retention, suppression entries
// untouched for twice the suppression window, and escalation records past
// retention. Each map is scanned in full; fine at modest volumes but a
// known bound at high alert rates.
func (e *Engine) cleanup(now time.Time) {
	retention := e.cfg.History.Retention.Std()
	suppressionTTL := 2 * e.cfg.Rules.Suppression.SuppressionWindow.Std()

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for id, rec := range e.history {
		if now.Sub(rec.ProcessedAt) > retention {
			delete(e.history, id)
			removed++
		}
	}
	for key, entry := range e.suppression {
		if now.Sub(entry.LastSeen) > suppressionTTL {
			delete(e.suppression, key)
			removed++
		}
	}
	for id, esc := range e.escalations {
		if now.Sub(esc.LastEscalated) > retention {
			delete(e.escalations, id)
			removed++
		}
	}

	if removed > 0 {
		e.log.Debug().Int("removed", removed).Msg("Cleanup pass")
	}
}
