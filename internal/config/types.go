package config

// Config is the complete alertpipe configuration.
type Config struct {
	Channels      ChannelsConfig      `yaml:"channels"`
	Rules         RulesConfig         `yaml:"rules"`
	Notifications NotificationsConfig `yaml:"notifications"`
	History       HistoryConfig       `yaml:"history"`
}

// ChannelsConfig toggles and parameterizes the delivery channels.
type ChannelsConfig struct {
	Console ConsoleChannelConfig `yaml:"console"`
	File    FileChannelConfig    `yaml:"file"`
	Webhook WebhookChannelConfig `yaml:"webhook"`
	Email   EmailChannelConfig   `yaml:"email"`
}

// ConsoleChannelConfig configures the console channel.
type ConsoleChannelConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FileChannelConfig configures the append-only log file channel.
type FileChannelConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WebhookChannelConfig configures the HTTP webhook channel.
type WebhookChannelConfig struct {
	Enabled bool     `yaml:"enabled"`
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// EmailChannelConfig configures the email channel. Recipients are handed
// to the mail-sending collaborator as-is.
type EmailChannelConfig struct {
	Enabled    bool     `yaml:"enabled"`
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
}

// RulesConfig groups the noise-reduction and escalation rules.
type RulesConfig struct {
	Suppression SuppressionConfig `yaml:"suppression"`
	Grouping    GroupingConfig    `yaml:"grouping"`
	Escalation  EscalationConfig  `yaml:"escalation"`
}

// SuppressionConfig controls deduplication of structurally identical alerts.
type SuppressionConfig struct {
	Enabled             bool     `yaml:"enabled"`
	SuppressionWindow   Duration `yaml:"suppression_window"`
	MaxSuppressedAlerts int      `yaml:"max_suppressed_alerts"`
}

// GroupingConfig controls time-windowed batching of similar alerts.
type GroupingConfig struct {
	Enabled      bool     `yaml:"enabled"`
	GroupWindow  Duration `yaml:"group_window"`
	MaxGroupSize int      `yaml:"max_group_size"`
}

// EscalationConfig controls re-raising of unresolved delivered alerts.
type EscalationConfig struct {
	Enabled            bool     `yaml:"enabled"`
	TimeToEscalate     Duration `yaml:"time_to_escalate"`
	MaxEscalationLevel int      `yaml:"max_escalation_level"`
}

// NotificationsConfig controls the dispatch loop. RetryAttempts and
// RetryDelay are recognized and validated but the dispatcher does not yet
// apply them; there is no automatic redelivery.
type NotificationsConfig struct {
	BatchSize     int      `yaml:"batch_size"`
	BatchInterval Duration `yaml:"batch_interval"`
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryDelay    Duration `yaml:"retry_delay"`
}

// HistoryConfig controls retention of processed-alert records.
type HistoryConfig struct {
	Retention Duration `yaml:"retention"`
}
