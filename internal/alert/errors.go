package alert

import "fmt"

// ValidationError rejects a malformed alert at ingestion. It is reported
// through an alertProcessingError event and never queued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid alert: %s: %s", e.Field, e.Reason)
}

// DeliveryError records that one or more channels failed to deliver an
// alert. Channels holds the names of the failed channels; Err aggregates
// the underlying per-channel errors.
type DeliveryError struct {
	AlertID  string
	Channels []string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery of alert %s failed on channels %v: %v", e.AlertID, e.Channels, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ConfigurationError marks a channel that cannot operate with the supplied
// configuration. It is surfaced at startup; the channel is skipped rather
// than failing per alert.
type ConfigurationError struct {
	Channel string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("channel %s misconfigured: %s", e.Channel, e.Reason)
}
