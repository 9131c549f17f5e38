package service

import (
	"context"

	"workbench/core"

	"go.uber.org/zap"
)

const (
	defaultAlertPageSize = 100
	maxAlertPageSize     = 10000
)

// AlertStore defines the alert storage operations the service needs.
type AlertStore interface {
	GetAlerts(ctx context.Context, limit int) ([]core.Alert, error)
	GetAlert(ctx context.Context, id string) (*core.Alert, error)
	DeleteAlert(ctx context.Context, id string) error
	GetAlertCount(ctx context.Context) (int64, error)
}

// AlertService implements alert retrieval and deletion. Alerts are created
// only by detection runs; there is no create path here.
type AlertService struct {
	storage AlertStore
	logger  *zap.SugaredLogger
}

// NewAlertService creates an alert service.
func NewAlertService(storage AlertStore, logger *zap.SugaredLogger) *AlertService {
	return &AlertService{storage: storage, logger: logger}
}

// ListAlerts returns the newest alerts, bounded to the page-size cap.
func (s *AlertService) ListAlerts(ctx context.Context, limit int) ([]core.Alert, error) {
	if limit <= 0 {
		limit = defaultAlertPageSize
	}
	if limit > maxAlertPageSize {
		limit = maxAlertPageSize
	}
	return s.storage.GetAlerts(ctx, limit)
}

// GetAlert returns one alert.
func (s *AlertService) GetAlert(ctx context.Context, id string) (*core.Alert, error) {
	return s.storage.GetAlert(ctx, id)
}

// DeleteAlert removes an alert and its incident links.
func (s *AlertService) DeleteAlert(ctx context.Context, id string) error {
	if err := s.storage.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("Alert deleted", "alert_id", id)
	return nil
}

// CountAlerts returns the total number of stored alerts.
func (s *AlertService) CountAlerts(ctx context.Context) (int64, error) {
	return s.storage.GetAlertCount(ctx)
}
