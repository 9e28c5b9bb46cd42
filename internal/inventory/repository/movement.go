package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
)

// Movement types.
const (
	MovementIntake  = "INTAKE"
	MovementOutflow = "OUTFLOW"
)

// StockMovement is one intake or outflow applied to a product batch.
// Quantity is always positive; the movement type carries the sign.
type StockMovement struct {
	ID           string    `db:"id" json:"id"`
	ProductID    string    `db:"product_id" json:"product_id"`
	MovementType string    `db:"movement_type" json:"movement_type"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	PerformedBy  *string   `db:"performed_by" json:"performed_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MovementRow is a movement joined with its product name.
type MovementRow struct {
	StockMovement
	ProductName string `db:"product_name" json:"product_name"`
}

// MovementRepository handles stock movement persistence.
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository.
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// CreateTx records a movement inside an existing transaction, so the
// movement row and the product quantity adjustment commit together.
func (r *MovementRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, movement *StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_movements (id, product_id, movement_type, quantity, reason, performed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		movement.ID, movement.ProductID, movement.MovementType,
		movement.Quantity, movement.Reason, movement.PerformedBy,
	).Scan(&movement.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// ListByProduct lists movements for one product, newest first.
func (r *MovementRepository) ListByProduct(ctx context.Context, productID string) ([]*StockMovement, error) {
	var movements []*StockMovement
	query := `
		SELECT * FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &movements, query, productID); err != nil {
		return nil, err
	}
	return movements, nil
}

// ListRecent lists the latest movements across all products.
func (r *MovementRepository) ListRecent(ctx context.Context, limit int) ([]*MovementRow, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []*MovementRow
	query := `
		SELECT m.*, p.name AS product_name
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		ORDER BY m.created_at DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
