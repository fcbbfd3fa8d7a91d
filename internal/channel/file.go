package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// File appends one JSON record per alert to a log file.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFile opens (or creates) the log file in append-only mode.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening alert log %s: %w", path, err)
	}
	return &File{path: path, f: f}, nil
}

func (c *File) Name() string { return "file" }

// Deliver appends the alert as a single JSON line.
func (c *File) Deliver(_ context.Context, a *alert.Alert) error {
	record := struct {
		LoggedAt time.Time    `json:"logged_at"`
		Alert    *alert.Alert `json:"alert"`
	}{
		LoggedAt: time.Now().UTC(),
		Alert:    a,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding alert %s: %w", a.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to %s: %w", c.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (c *File) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.f.Close()
}
