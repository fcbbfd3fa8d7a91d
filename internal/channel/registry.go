package channel

import (
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/config"
)

// Registry holds the active delivery channels keyed by name. Configuration
// changes build a fresh registry and swap it in; adapters themselves are
// never mutated.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds or replaces a channel under its name.
func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Name()] = ch
}

// Get returns a channel by name.
func (r *Registry) Get(name string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Enabled returns the active channels in stable name order.
func (r *Registry) Enabled() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Channel, 0, len(names))
	for _, name := range names {
		out = append(out, r.channels[name])
	}
	return out
}

// BuildRegistry assembles a registry from configuration. A misconfigured
// channel is skipped and reported in the returned ConfigurationError slice
// rather than failing every alert later; callers surface these at startup.
// The email channel needs a Sender collaborator; when sender is nil an
// enabled email channel is reported as misconfigured.
func BuildRegistry(cfg config.ChannelsConfig, identity Identity, sender Sender, log zerolog.Logger) (*Registry, []*alert.ConfigurationError) {
	reg := NewRegistry()
	var errs []*alert.ConfigurationError

	if cfg.Console.Enabled {
		reg.Register(NewConsole(os.Stdout))
	}

	if cfg.File.Enabled {
		switch {
		case cfg.File.Path == "":
			errs = append(errs, &alert.ConfigurationError{Channel: "file", Reason: "path is required"})
		default:
			ch, err := NewFile(cfg.File.Path)
			if err != nil {
				errs = append(errs, &alert.ConfigurationError{Channel: "file", Reason: err.Error()})
			} else {
				reg.Register(ch)
			}
		}
	}

	if cfg.Webhook.Enabled {
		if cfg.Webhook.URL == "" {
			errs = append(errs, &alert.ConfigurationError{Channel: "webhook", Reason: "url is required"})
		} else {
			reg.Register(NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout.Std(), identity))
		}
	}

	if cfg.Email.Enabled {
		switch {
		case sender == nil:
			errs = append(errs, &alert.ConfigurationError{Channel: "email", Reason: "no mail sender configured"})
		case len(cfg.Email.Recipients) == 0:
			errs = append(errs, &alert.ConfigurationError{Channel: "email", Reason: "recipients are required"})
		default:
			reg.Register(NewEmail(sender, cfg.Email.From, cfg.Email.Recipients))
		}
	}

	for _, cfgErr := range errs {
		log.Error().
			Str("channel", cfgErr.Channel).
			Str("reason", cfgErr.Reason).
			Msg("Channel misconfigured, skipping")
	}

	return reg, errs
}
