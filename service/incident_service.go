package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workbench/core"
	"workbench/report"
	"workbench/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// IncidentStorage defines the incident storage operations the service needs.
type IncidentStorage interface {
	CreateIncident(ctx context.Context, incident *core.Incident) error
	GetIncident(ctx context.Context, id string) (*core.Incident, error)
	GetIncidents(ctx context.Context, limit int) ([]core.Incident, error)
	UpdateIncident(ctx context.Context, incident *core.Incident) error
	DeleteIncident(ctx context.Context, id string) error
	LinkAlert(ctx context.Context, incidentID, alertID string) (bool, error)
}

// AlertStorage defines the alert storage operations the service needs.
type AlertStorage interface {
	GetAlert(ctx context.Context, id string) (*core.Alert, error)
	GetAlertsByIncident(ctx context.Context, incidentID string) ([]core.Alert, error)
}

// ActionStorage defines the audit trail operations the service needs.
type ActionStorage interface {
	InsertAction(ctx context.Context, action *core.IncidentAction) error
	GetActionsByIncident(ctx context.Context, incidentID string) ([]core.IncidentAction, error)
}

// EventLookup defines the event lookups packet assembly needs.
type EventLookup interface {
	GetEventsByIDs(ctx context.Context, ids []string) (map[string]core.Event, error)
}

// IncidentService implements the incident lifecycle and packet assembly
// orchestration. The packet itself is recomputed from storage snapshots on
// every call; nothing is cached between reads.
type IncidentService struct {
	incidents IncidentStorage
	alerts    AlertStorage
	actions   ActionStorage
	events    EventLookup
	ipFields  []string
	validate  *validator.Validate
	logger    *zap.SugaredLogger
}

// NewIncidentService creates an incident service. ipFields configures which
// event payload keys packet assembly scans for scope IPs; nil uses the
// report package defaults.
func NewIncidentService(incidents IncidentStorage, alerts AlertStorage, actions ActionStorage, events EventLookup, ipFields []string, logger *zap.SugaredLogger) *IncidentService {
	return &IncidentService{
		incidents: incidents,
		alerts:    alerts,
		actions:   actions,
		events:    events,
		ipFields:  ipFields,
		validate:  validator.New(),
		logger:    logger,
	}
}

// CreateIncidentInput is the inbound shape for incident creation.
type CreateIncidentInput struct {
	Title       string        `json:"title" validate:"required,min=1,max=200"`
	Severity    core.Severity `json:"severity"`
	Description string        `json:"description" validate:"max=5000"`
	AlertIDs    []string      `json:"alert_ids"`
}

// CreateIncident validates the input, stores an open incident, and links
// any referenced alerts that exist. Unknown alert IDs are skipped rather
// than failing creation.
func (s *IncidentService) CreateIncident(ctx context.Context, input CreateIncidentInput) (*core.Incident, error) {
	if input.Severity == "" {
		input.Severity = core.SeverityMedium
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidf("invalid incident: %v", err)
	}

	incident := core.NewIncident(input.Title, input.Severity, input.Description)
	if err := incident.Validate(); err != nil {
		return nil, invalidf("invalid incident: %v", err)
	}

	if err := s.incidents.CreateIncident(ctx, incident); err != nil {
		return nil, err
	}

	for _, alertID := range input.AlertIDs {
		if _, err := s.alerts.GetAlert(ctx, alertID); err != nil {
			if errors.Is(err, storage.ErrAlertNotFound) {
				s.logger.Warnw("Skipping unknown alert during incident creation",
					"incident_id", incident.ID, "alert_id", alertID)
				continue
			}
			return nil, err
		}
		if _, err := s.incidents.LinkAlert(ctx, incident.ID, alertID); err != nil {
			return nil, err
		}
	}

	s.logger.Infow("Incident created", "incident_id", incident.ID, "title", incident.Title)
	return incident, nil
}

// ListIncidents returns the newest incidents.
func (s *IncidentService) ListIncidents(ctx context.Context, limit int) ([]core.Incident, error) {
	return s.incidents.GetIncidents(ctx, limit)
}

// GetIncident returns one incident.
func (s *IncidentService) GetIncident(ctx context.Context, id string) (*core.Incident, error) {
	return s.incidents.GetIncident(ctx, id)
}

// DeleteIncident removes an incident with its links and audit trail.
func (s *IncidentService) DeleteIncident(ctx context.Context, id string) error {
	return s.incidents.DeleteIncident(ctx, id)
}

// LinkAlert links an existing alert to an existing incident. The link is
// idempotent; re-linking reports linked=false with no error.
func (s *IncidentService) LinkAlert(ctx context.Context, incidentID, alertID string) (bool, error) {
	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return false, err
	}
	if _, err := s.alerts.GetAlert(ctx, alertID); err != nil {
		return false, err
	}

	created, err := s.incidents.LinkAlert(ctx, incidentID, alertID)
	if err != nil {
		return false, err
	}
	if created {
		incident.UpdatedAt = time.Now().UTC()
		if err := s.incidents.UpdateIncident(ctx, incident); err != nil {
			return false, err
		}
	}
	return created, nil
}

// AddActionInput is the inbound shape for audit entries.
type AddActionInput struct {
	Actor      string                 `json:"actor"`
	ActionType core.ActionType        `json:"action_type"`
	Summary    string                 `json:"summary" validate:"required"`
	Details    map[string]interface{} `json:"details"`
}

// AddAction appends a write-once audit entry to an incident and touches the
// incident's updated_at.
func (s *IncidentService) AddAction(ctx context.Context, incidentID string, input AddActionInput) (*core.IncidentAction, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidf("invalid action: %v", err)
	}

	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	action := core.NewIncidentAction(incidentID, input.Actor, input.ActionType, input.Summary, input.Details)
	if err := action.Validate(); err != nil {
		return nil, invalidf("invalid action: %v", err)
	}

	if err := s.actions.InsertAction(ctx, action); err != nil {
		return nil, err
	}

	incident.UpdatedAt = time.Now().UTC()
	if err := s.incidents.UpdateIncident(ctx, incident); err != nil {
		return nil, err
	}

	return action, nil
}

// ListActions returns an incident's audit trail in insertion order.
func (s *IncidentService) ListActions(ctx context.Context, incidentID string) ([]core.IncidentAction, error) {
	if _, err := s.incidents.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}
	return s.actions.GetActionsByIncident(ctx, incidentID)
}

// CloseIncident transitions an incident open -> closed, the only permitted
// transition.
func (s *IncidentService) CloseIncident(ctx context.Context, id string) (*core.Incident, error) {
	incident, err := s.incidents.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := incident.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIncidentClosed, err)
	}
	if err := s.incidents.UpdateIncident(ctx, incident); err != nil {
		return nil, err
	}
	s.logger.Infow("Incident closed", "incident_id", id)
	return incident, nil
}

// BuildPacket assembles the incident packet from current storage snapshots.
// It fails only when the incident itself does not exist; an incident with
// no alerts and no actions yields a minimal well-formed packet.
func (s *IncidentService) BuildPacket(ctx context.Context, incidentID string) (*core.IncidentPacket, error) {
	incident, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	alerts, err := s.alerts.GetAlertsByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	actions, err := s.actions.GetActionsByIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	eventIDs := make([]string, 0, len(alerts))
	for i := range alerts {
		if alerts[i].EventID != "" {
			eventIDs = append(eventIDs, alerts[i].EventID)
		}
	}
	events, err := s.events.GetEventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	packet := report.Assemble(incident, alerts, actions, events, s.ipFields)
	return &packet, nil
}
