package core

import (
	"time"

	"github.com/google/uuid"
)

// Alert is the durable record of one rule matching one event. Rule name and
// severity are denormalized at creation time so the alert keeps reporting
// what was detected even after the rule is edited or deleted; source, host
// and user are copied from the event for the same reason.
//
// At most one alert exists per (RuleID, EventID) pair; the storage layer
// enforces this with a unique constraint at the write boundary.
type Alert struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Severity Severity `json:"severity"`

	EventID string `json:"event_id"`
	Source  string `json:"source"`
	Host    string `json:"host,omitempty"`
	User    string `json:"user,omitempty"`

	Summary string `json:"summary"`
}

// NewAlert snapshots a rule match against an event into an Alert.
func NewAlert(rule *Rule, event *Event, summary string) *Alert {
	return &Alert{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Severity:  rule.Severity,
		EventID:   event.ID,
		Source:    event.Source,
		Host:      event.Host,
		User:      event.User,
		Summary:   summary,
	}
}
