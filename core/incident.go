package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IncidentStatus represents the incident lifecycle state.
type IncidentStatus string

const (
	IncidentStatusOpen   IncidentStatus = "open"
	IncidentStatusClosed IncidentStatus = "closed"
)

// IsValid checks if the incident status is valid.
func (s IncidentStatus) IsValid() bool {
	return s == IncidentStatusOpen || s == IncidentStatusClosed
}

// Incident is an investigator-curated grouping of alerts with its own
// lifecycle and append-only audit trail of actions.
type Incident struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Title       string         `json:"title" validate:"required,min=1,max=200"`
	Severity    Severity       `json:"severity" validate:"required"`
	Status      IncidentStatus `json:"status"`
	Description string         `json:"description,omitempty" validate:"max=5000"`
}

// NewIncident creates an open Incident with a generated ID.
func NewIncident(title string, severity Severity, description string) *Incident {
	now := time.Now().UTC()
	return &Incident{
		ID:          uuid.New().String(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       title,
		Severity:    severity,
		Status:      IncidentStatusOpen,
		Description: description,
	}
}

// Validate checks the incident's invariants.
func (i *Incident) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("incident title is required")
	}
	if !i.Severity.IsValid() {
		return fmt.Errorf("invalid incident severity: %s", i.Severity)
	}
	if i.Status != "" && !i.Status.IsValid() {
		return fmt.Errorf("invalid incident status: %s", i.Status)
	}
	return nil
}

// Close transitions the incident to closed. The only permitted transition
// is open -> closed.
func (i *Incident) Close() error {
	if i.Status == IncidentStatusClosed {
		return fmt.Errorf("incident %s is already closed", i.ID)
	}
	i.Status = IncidentStatusClosed
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// ActionType classifies an incident action entry.
type ActionType string

const (
	ActionTypeNote        ActionType = "note"
	ActionTypeTriage      ActionType = "triage"
	ActionTypeFinding     ActionType = "finding"
	ActionTypeDecision    ActionType = "decision"
	ActionTypeContainment ActionType = "containment"
	ActionTypeEradication ActionType = "eradication"
	ActionTypeRecovery    ActionType = "recovery"
	ActionTypeComms       ActionType = "comms"
)

// IsValid checks if the action type is one of the known kinds.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionTypeNote, ActionTypeTriage, ActionTypeFinding, ActionTypeDecision,
		ActionTypeContainment, ActionTypeEradication, ActionTypeRecovery, ActionTypeComms:
		return true
	}
	return false
}

// IncidentAction is a write-once audit entry on an incident. Actions are
// never updated or deleted after creation.
type IncidentAction struct {
	ID         string                 `json:"id"`
	IncidentID string                 `json:"incident_id"`
	CreatedAt  time.Time              `json:"created_at"`
	Actor      string                 `json:"actor,omitempty"`
	ActionType ActionType             `json:"action_type"`
	Summary    string                 `json:"summary" validate:"required"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// NewIncidentAction creates an audit entry with a generated ID. An empty
// action type defaults to "note".
func NewIncidentAction(incidentID, actor string, actionType ActionType, summary string, details map[string]interface{}) *IncidentAction {
	if actionType == "" {
		actionType = ActionTypeNote
	}
	return &IncidentAction{
		ID:         uuid.New().String(),
		IncidentID: incidentID,
		CreatedAt:  time.Now().UTC(),
		Actor:      actor,
		ActionType: actionType,
		Summary:    summary,
		Details:    details,
	}
}

// Validate checks the action's invariants.
func (a *IncidentAction) Validate() error {
	if a.IncidentID == "" {
		return fmt.Errorf("action incident_id is required")
	}
	if strings.TrimSpace(a.Summary) == "" {
		return fmt.Errorf("action summary is required")
	}
	if !a.ActionType.IsValid() {
		return fmt.Errorf("invalid action type: %s", a.ActionType)
	}
	return nil
}
