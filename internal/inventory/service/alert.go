package service

import (
	"context"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// AlertService exposes the alert lifecycle to the API: listing active
// alerts and acknowledging or resolving them.
type AlertService struct {
	alertRepo *repository.AlertRepository
	logger    *logger.Logger
}

// NewAlertService creates a new alert service.
func NewAlertService(alertRepo *repository.AlertRepository, log *logger.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		logger:    log.WithComponent("inventory.alert"),
	}
}

// ListActive lists open and acknowledged alerts, critical first.
func (s *AlertService) ListActive(ctx context.Context) ([]*repository.ExpiryAlert, error) {
	return s.alertRepo.ListActive(ctx)
}

// CountOpen counts unresolved alerts.
func (s *AlertService) CountOpen(ctx context.Context) (int64, error) {
	return s.alertRepo.CountOpen(ctx)
}

// Acknowledge marks an alert as seen by the current user.
func (s *AlertService) Acknowledge(ctx context.Context, id string) error {
	userID := actorID(ctx)
	if userID == "" {
		return errors.Unauthorized("authentication required")
	}
	return s.alertRepo.Acknowledge(ctx, id, userID)
}

// Resolve manually resolves an alert.
func (s *AlertService) Resolve(ctx context.Context, id string) error {
	resolvedBy := actorID(ctx)
	if resolvedBy == "" {
		resolvedBy = "system"
	}
	return s.alertRepo.Resolve(ctx, id, resolvedBy)
}
