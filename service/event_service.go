package service

import (
	"context"
	"encoding/json"

	"workbench/core"
	"workbench/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	defaultEventPageSize = 100
	maxEventPageSize     = 10000
)

// EventStorage defines the event storage operations the service needs.
type EventStorage interface {
	InsertEvent(ctx context.Context, event *core.Event) error
	InsertEvents(ctx context.Context, events []*core.Event) error
	GetRecentEvents(ctx context.Context, limit int) ([]core.Event, error)
	GetEvent(ctx context.Context, id string) (*core.Event, error)
	GetEventCount(ctx context.Context) (int64, error)
}

// EventService implements event ingestion and retrieval.
type EventService struct {
	storage  EventStorage
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

// NewEventService creates an event service.
func NewEventService(storage EventStorage, logger *zap.SugaredLogger) *EventService {
	return &EventService{
		storage:  storage,
		validate: validator.New(),
		logger:   logger,
	}
}

// IngestEventInput is the inbound shape for single-event ingestion. Raw
// carries the original log payload and is stored byte for byte.
type IngestEventInput struct {
	Source string          `json:"source" validate:"required,min=1,max=200"`
	Host   string          `json:"host" validate:"max=200"`
	User   string          `json:"user" validate:"max=200"`
	Raw    json.RawMessage `json:"raw" validate:"required"`
}

// IngestEvent validates and stores one event. The raw payload must be a
// JSON object; anything else is rejected before storage.
func (s *EventService) IngestEvent(ctx context.Context, input IngestEventInput) (*core.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, invalidf("invalid event: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(input.Raw, &raw); err != nil {
		return nil, invalidf("event raw payload must be a JSON object: %v", err)
	}

	event := core.NewEvent(input.Source, input.Host, input.User, raw)
	if err := s.storage.InsertEvent(ctx, event); err != nil {
		return nil, err
	}

	metrics.EventsIngested.WithLabelValues(event.Source).Inc()
	return event, nil
}

// ListEvents returns the newest events, bounded to the page-size cap.
func (s *EventService) ListEvents(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	return s.storage.GetRecentEvents(ctx, limit)
}

// GetEvent returns one event.
func (s *EventService) GetEvent(ctx context.Context, id string) (*core.Event, error) {
	return s.storage.GetEvent(ctx, id)
}

// CountEvents returns the total number of stored events.
func (s *EventService) CountEvents(ctx context.Context) (int64, error) {
	return s.storage.GetEventCount(ctx)
}
