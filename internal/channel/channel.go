// Package channel contains the delivery sinks an alert fans out to and the
// registry the engine resolves enabled sinks from.
package channel

import (
	"context"
	"os"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/version"
)

// Channel is the minimal interface all delivery sinks implement.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, a *alert.Alert) error
}

// Identity describes the sending system; it accompanies alerts on outbound
// webhook payloads and email bodies.
type Identity struct {
	Name    string `json:"name"`
	Host    string `json:"host"`
	PID     int    `json:"pid"`
	Version string `json:"version"`
}

// LocalIdentity builds the identity of this process.
func LocalIdentity(name string) Identity {
	host, _ := os.Hostname()
	return Identity{
		Name:    name,
		Host:    host,
		PID:     os.Getpid(),
		Version: version.GetVersion(),
	}
}
