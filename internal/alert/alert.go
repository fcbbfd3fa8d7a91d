package alert

import (
	"time"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Valid reports whether the severity is one of the recognized values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Priority describes how an alert should be treated downstream.
// Level 1 is the highest priority.
type Priority struct {
	Level     int  `json:"level"`
	Escalate  bool `json:"escalate"`
	Immediate bool `json:"immediate"`
}

// priorityTable maps severity to its fixed priority descriptor.
var priorityTable = map[Severity]Priority{
	SeverityCritical: {Level: 1, Escalate: true, Immediate: true},
	SeverityWarning:  {Level: 2, Escalate: false, Immediate: false},
	SeverityInfo:     {Level: 3, Escalate: false, Immediate: false},
}

// PriorityFor returns the priority descriptor for a severity.
func PriorityFor(s Severity) Priority {
	return priorityTable[s]
}

// Alert is a discrete event flowing through the engine. ID uniqueness is
// the producer's responsibility; the engine only generates identifiers for
// synthesized group summaries and escalations.
type Alert struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`

	// Enrichment, filled in by the engine on ingestion.
	Source   string   `json:"source,omitempty"`
	Host     string   `json:"host,omitempty"`
	PID      int      `json:"pid,omitempty"`
	Priority Priority `json:"priority"`

	// Escalated alerts bypass suppression and grouping on re-entry.
	Escalated bool `json:"isEscalated,omitempty"`
	// Grouped marks a synthesized group summary.
	Grouped bool `json:"isGrouped,omitempty"`
}

// Validate checks the fields a producer must supply.
func (a *Alert) Validate() error {
	if a == nil {
		return &ValidationError{Field: "alert", Reason: "alert is nil"}
	}
	if a.ID == "" {
		return &ValidationError{Field: "id", Reason: "identifier is required"}
	}
	if a.Type == "" {
		return &ValidationError{Field: "type", Reason: "type is required"}
	}
	if a.Message == "" {
		return &ValidationError{Field: "message", Reason: "message is required"}
	}
	if !a.Severity.Valid() {
		return &ValidationError{Field: "severity", Reason: "must be critical, warning, or info"}
	}
	return nil
}

// Key identifies structurally similar alerts for suppression and grouping.
type Key struct {
	Type     string
	Severity Severity
}

// KeyOf computes the suppression/grouping key of an alert.
func KeyOf(a *Alert) Key {
	return Key{Type: a.Type, Severity: a.Severity}
}

func (k Key) String() string {
	return k.Type + ":" + string(k.Severity)
}

// Outcome is the terminal processing result recorded in history.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
)
