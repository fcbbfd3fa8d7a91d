package channel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// Console writes one formatted line per alert to a writer, stdout by default.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console channel writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

// Deliver formats the alert as a single human-readable line.
func (c *Console) Deliver(_ context.Context, a *alert.Alert) error {
	marker := severityMarker(a.Severity)
	line := fmt.Sprintf("%s [%s] %s %s: %s\n",
		a.Timestamp.UTC().Format(time.RFC3339), marker, a.ID, a.Type, a.Message)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, line); err != nil {
		return fmt.Errorf("console write: %w", err)
	}
	return nil
}

func severityMarker(s alert.Severity) string {
	switch s {
	case alert.SeverityCritical:
		return "CRIT"
	case alert.SeverityWarning:
		return "WARN"
	default:
		return "INFO"
	}
}
