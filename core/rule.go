package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity is the shared severity scale for rules, alerts and incidents.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// MatchSourceAny is the wildcard accepted by Rule.MatchSource.
const MatchSourceAny = "*"

// Rule is a declarative detection condition: an event source filter, a
// dot-separated path into the event payload, and a case-insensitive
// substring to look for at that path.
type Rule struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name" validate:"required,min=1,max=200"`
	Severity    Severity  `json:"severity" validate:"required"`
	Mitre       []string  `json:"mitre,omitempty"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Enabled     bool      `json:"enabled"`

	// MatchSource is an exact source tag, or "*" for any source.
	MatchSource string `json:"match_source" validate:"required"`
	// MatchField is a dot path into the event payload, e.g. "event.action".
	MatchField string `json:"match_field" validate:"required"`
	// MatchContains is the substring tested case-insensitively against the
	// resolved field value.
	MatchContains string `json:"match_contains" validate:"required"`
}

// NewRule creates an enabled Rule with a generated ID.
func NewRule(name string, severity Severity, matchSource, matchField, matchContains string) *Rule {
	return &Rule{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		Name:          name,
		Severity:      severity,
		Enabled:       true,
		MatchSource:   matchSource,
		MatchField:    matchField,
		MatchContains: matchContains,
	}
}

// Validate checks the rule's invariants. An empty MatchContains would match
// every event that has the field at all, so it is rejected here even though
// the engine itself tolerates it.
func (r *Rule) Validate() error {
	if r == nil {
		return fmt.Errorf("cannot validate nil rule")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("invalid rule severity: %s", r.Severity)
	}
	if strings.TrimSpace(r.MatchSource) == "" {
		return fmt.Errorf("rule match_source is required (use %q for any source)", MatchSourceAny)
	}
	if strings.TrimSpace(r.MatchField) == "" {
		return fmt.Errorf("rule match_field is required")
	}
	if strings.TrimSpace(r.MatchContains) == "" {
		return fmt.Errorf("rule match_contains is required")
	}
	return nil
}
