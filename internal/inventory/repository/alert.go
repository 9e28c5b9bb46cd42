package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// Alert lifecycle statuses.
const (
	AlertStatusOpen         = "open"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Alert types raised by the expiry scanner.
const (
	AlertTypeExpiring  = "product_expiring"
	AlertTypeExpired   = "product_expired"
	AlertTypeZeroStock = "product_zero_stock"
)

// ExpiryAlert is a scanner-raised alert tied to a product batch.
type ExpiryAlert struct {
	ID             string     `db:"id" json:"id"`
	ProductID      string     `db:"product_id" json:"product_id"`
	AlertType      string     `db:"alert_type" json:"alert_type"`
	Severity       string     `db:"severity" json:"severity"`
	Message        string     `db:"message" json:"message"`
	Status         string     `db:"status" json:"status"`
	AcknowledgedBy *string    `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	ResolvedBy     *string    `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// AlertRepository handles alert persistence.
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create creates a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *ExpiryAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Status == "" {
		alert.Status = AlertStatusOpen
	}

	query := `
		INSERT INTO expiry_alerts (id, product_id, alert_type, severity, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.ProductID, alert.AlertType, alert.Severity,
		alert.Message, alert.Status,
	).Scan(&alert.CreatedAt)
}

// GetByID gets an alert by ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*ExpiryAlert, error) {
	var alert ExpiryAlert
	query := `SELECT * FROM expiry_alerts WHERE id = $1`
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("alert")
		}
		return nil, err
	}
	return &alert, nil
}

// ExistsByTypeAndProduct checks if an open or acknowledged alert
// already exists for the given alert type and product. Used for
// deduplication in the expiry scanner.
func (r *AlertRepository) ExistsByTypeAndProduct(ctx context.Context, alertType, productID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM expiry_alerts
			WHERE alert_type = $1
			AND product_id = $2
			AND status IN ('open', 'acknowledged')
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, alertType, productID); err != nil {
		return false, err
	}
	return exists, nil
}

// ListActive returns all open and acknowledged alerts, critical first.
func (r *AlertRepository) ListActive(ctx context.Context) ([]*ExpiryAlert, error) {
	var alerts []*ExpiryAlert
	query := `
		SELECT * FROM expiry_alerts
		WHERE status IN ('open', 'acknowledged')
		ORDER BY CASE severity WHEN 'critical' THEN 0 ELSE 1 END, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Acknowledge acknowledges an alert.
func (r *AlertRepository) Acknowledge(ctx context.Context, id, userID string) error {
	query := `
		UPDATE expiry_alerts
		SET status = 'acknowledged', acknowledged_by = $2, acknowledged_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}
	return nil
}

// Resolve marks an alert as resolved.
func (r *AlertRepository) Resolve(ctx context.Context, id, resolvedBy string) error {
	query := `
		UPDATE expiry_alerts
		SET status = 'resolved', resolved_by = $2, resolved_at = NOW()
		WHERE id = $1 AND status IN ('open', 'acknowledged')
	`

	result, err := r.db.ExecContext(ctx, query, id, resolvedBy)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}
	return nil
}

// CountOpen counts unresolved alerts.
func (r *AlertRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM expiry_alerts WHERE status IN ('open', 'acknowledged')`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOld deletes resolved alerts older than the given age.
func (r *AlertRepository) DeleteOld(ctx context.Context, olderThan time.Duration) error {
	query := `DELETE FROM expiry_alerts WHERE status = 'resolved' AND resolved_at < $1`
	_, err := r.db.ExecContext(ctx, query, time.Now().Add(-olderThan))
	return err
}
