package service

import (
	"context"
	"fmt"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/expiry"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/inventory/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// criticalWindowDays marks expiring alerts as critical when the
// validity date is this close.
const criticalWindowDays = 7

// AlertScanner scans the stock for alert conditions: batches near or
// past their validity date and batches with no stock left. Alerts are
// deduplicated so each condition raises at most one active alert per
// product, and alerts whose condition has cleared are auto-resolved.
type AlertScanner struct {
	productRepo   *repository.ProductRepository
	alertRepo     *repository.AlertRepository
	publisher     EventPublisher
	thresholdDays int
	logger        *logger.Logger
}

// NewAlertScanner creates a new alert scanner.
func NewAlertScanner(
	productRepo *repository.ProductRepository,
	alertRepo *repository.AlertRepository,
	publisher EventPublisher,
	thresholdDays int,
	log *logger.Logger,
) *AlertScanner {
	if thresholdDays <= 0 {
		thresholdDays = expiry.DefaultThresholdDays
	}
	return &AlertScanner{
		productRepo:   productRepo,
		alertRepo:     alertRepo,
		publisher:     publisher,
		thresholdDays: thresholdDays,
		logger:        log.WithComponent("inventory.alert_scanner"),
	}
}

// ScanAll runs every scanner. Individual scan failures are logged and
// do not stop the remaining scans; the last error is returned.
func (s *AlertScanner) ScanAll(ctx context.Context) error {
	scanners := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"expiry", s.scanExpiry},
		{"zero_stock", s.scanZeroStock},
		{"resolve_cleared", s.resolveCleared},
	}

	var lastErr error
	for _, scanner := range scanners {
		if err := scanner.fn(ctx); err != nil {
			s.logger.Error().Err(err).Str("scanner", scanner.name).Msg("alert scan failed")
			lastErr = err
		}
	}
	return lastErr
}

// scanExpiry raises alerts for batches that are expiring or expired.
func (s *AlertScanner) scanExpiry(ctx context.Context) error {
	rows, err := s.productRepo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return fmt.Errorf("scanExpiry: list products: %w", err)
	}

	opts := expiry.Options{ThresholdDays: s.thresholdDays, DateOnly: true}
	for _, row := range rows {
		result := expiry.Classify(row.ValidityDate, opts)

		switch {
		case result.IsExpired:
			message := fmt.Sprintf("Produto %q está vencido desde %s",
				row.Name, expiry.Format(row.ValidityDate, "02/01/2006"))
			s.raise(ctx, row, repository.AlertTypeExpired, SeverityCritical, message)

		case result.IsExpiring:
			severity := SeverityWarning
			if result.DaysUntilExpiry <= criticalWindowDays {
				severity = SeverityCritical
			}
			message := fmt.Sprintf("Produto %q vence em %d dia(s), em %s",
				row.Name, result.DaysUntilExpiry, expiry.Format(row.ValidityDate, "02/01/2006"))
			s.raise(ctx, row, repository.AlertTypeExpiring, severity, message)
		}
	}
	return nil
}

// scanZeroStock raises alerts for batches whose quantity reached zero.
func (s *AlertScanner) scanZeroStock(ctx context.Context) error {
	rows, err := s.productRepo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return fmt.Errorf("scanZeroStock: list products: %w", err)
	}

	for _, row := range rows {
		if row.Quantity > 0 {
			continue
		}
		message := fmt.Sprintf("Produto %q está sem estoque", row.Name)
		s.raise(ctx, row, repository.AlertTypeZeroStock, SeverityWarning, message)
	}
	return nil
}

// raise creates an alert unless an active one of the same type already
// exists for the product.
func (s *AlertScanner) raise(ctx context.Context, row *repository.ProductRow, alertType, severity, message string) {
	exists, err := s.alertRepo.ExistsByTypeAndProduct(ctx, alertType, row.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", row.ID).Msg("failed to check existing alert")
		return
	}
	if exists {
		return
	}

	alert := &repository.ExpiryAlert{
		ProductID: row.ID,
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.logger.Error().Err(err).Str("product_id", row.ID).Msg("failed to create alert")
		return
	}

	s.logger.Info().
		Str("alert_type", alertType).
		Str("severity", severity).
		Str("product_id", row.ID).
		Msg("alert raised")

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, messaging.EventAlertGenerated, messaging.AlertGeneratedEvent{
		AlertID:   alert.ID,
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
		ProductID: row.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish alert event")
	}
}

// resolveCleared auto-resolves alerts whose condition no longer holds:
// the batch was deleted, restocked, or its validity status changed.
func (s *AlertScanner) resolveCleared(ctx context.Context) error {
	alerts, err := s.alertRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("resolveCleared: list active alerts: %w", err)
	}

	opts := expiry.Options{ThresholdDays: s.thresholdDays, DateOnly: true}
	for _, alert := range alerts {
		row, err := s.productRepo.GetByID(ctx, alert.ProductID)
		if errors.Is(err, errors.ErrNotFound) {
			// Product deleted: the alert no longer applies.
			s.resolve(ctx, alert.ID)
			continue
		}
		if err != nil {
			// Transient lookup failure: keep the alert and retry next scan.
			s.logger.Error().Err(err).Str("product_id", alert.ProductID).Msg("failed to load product for alert")
			continue
		}

		cleared := false
		switch alert.AlertType {
		case repository.AlertTypeExpired:
			cleared = !expiry.Classify(row.ValidityDate, opts).IsExpired
		case repository.AlertTypeExpiring:
			result := expiry.Classify(row.ValidityDate, opts)
			cleared = !result.IsExpiring && !result.IsExpired
		case repository.AlertTypeZeroStock:
			cleared = row.Quantity > 0
		}

		if cleared {
			s.resolve(ctx, alert.ID)
		}
	}
	return nil
}

func (s *AlertScanner) resolve(ctx context.Context, alertID string) {
	if err := s.alertRepo.Resolve(ctx, alertID, "system"); err != nil {
		s.logger.Error().Err(err).Str("alert_id", alertID).Msg("failed to resolve cleared alert")
		return
	}
	s.logger.Info().Str("alert_id", alertID).Msg("alert auto-resolved")
}
