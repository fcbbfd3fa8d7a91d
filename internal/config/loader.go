package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns a configuration with every default applied and only the
// console channel enabled.
func Default() *Config {
	cfg := &Config{}
	cfg.Channels.Console.Enabled = true
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Channels.Webhook.Timeout == 0 {
		cfg.Channels.Webhook.Timeout = Duration(10 * time.Second)
	}

	if cfg.Rules.Suppression.SuppressionWindow == 0 {
		cfg.Rules.Suppression.SuppressionWindow = Duration(5 * time.Minute)
	}
	if cfg.Rules.Suppression.MaxSuppressedAlerts == 0 {
		cfg.Rules.Suppression.MaxSuppressedAlerts = 100
	}

	if cfg.Rules.Grouping.GroupWindow == 0 {
		cfg.Rules.Grouping.GroupWindow = Duration(time.Minute)
	}
	if cfg.Rules.Grouping.MaxGroupSize == 0 {
		cfg.Rules.Grouping.MaxGroupSize = 10
	}

	if cfg.Rules.Escalation.TimeToEscalate == 0 {
		cfg.Rules.Escalation.TimeToEscalate = Duration(30 * time.Minute)
	}
	if cfg.Rules.Escalation.MaxEscalationLevel == 0 {
		cfg.Rules.Escalation.MaxEscalationLevel = 3
	}

	if cfg.Notifications.BatchSize == 0 {
		cfg.Notifications.BatchSize = 10
	}
	if cfg.Notifications.BatchInterval == 0 {
		cfg.Notifications.BatchInterval = Duration(time.Second)
	}
	if cfg.Notifications.RetryDelay == 0 {
		cfg.Notifications.RetryDelay = Duration(5 * time.Second)
	}

	if cfg.History.Retention == 0 {
		cfg.History.Retention = Duration(24 * time.Hour)
	}
}

// Validate checks the configuration for values the engine cannot run with.
// Channel parameter problems (webhook without URL, file without path) are
// not reported here; the channel registry surfaces those at startup and
// skips the affected channel.
func Validate(cfg *Config) error {
	if cfg.Notifications.BatchSize < 1 {
		return fmt.Errorf("notifications.batch_size must be >= 1")
	}
	if cfg.Notifications.BatchInterval <= 0 {
		return fmt.Errorf("notifications.batch_interval must be positive")
	}
	if cfg.Notifications.RetryAttempts < 0 {
		return fmt.Errorf("notifications.retry_attempts must be >= 0")
	}
	if cfg.Rules.Suppression.SuppressionWindow <= 0 {
		return fmt.Errorf("rules.suppression.suppression_window must be positive")
	}
	if cfg.Rules.Suppression.MaxSuppressedAlerts < 1 {
		return fmt.Errorf("rules.suppression.max_suppressed_alerts must be >= 1")
	}
	if cfg.Rules.Grouping.GroupWindow <= 0 {
		return fmt.Errorf("rules.grouping.group_window must be positive")
	}
	if cfg.Rules.Grouping.MaxGroupSize < 1 {
		return fmt.Errorf("rules.grouping.max_group_size must be >= 1")
	}
	if cfg.Rules.Escalation.TimeToEscalate <= 0 {
		return fmt.Errorf("rules.escalation.time_to_escalate must be positive")
	}
	if cfg.Rules.Escalation.MaxEscalationLevel < 1 {
		return fmt.Errorf("rules.escalation.max_escalation_level must be >= 1")
	}
	if cfg.History.Retention <= 0 {
		return fmt.Errorf("history.retention must be positive")
	}
	return nil
}
