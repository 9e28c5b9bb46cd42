// Package repository persists inventory data: product batches, stock
// movements, and expiry alerts.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// Receipt types.
const (
	ReceiptDonation = "DONATION"
	ReceiptPurchase = "PURCHASE"
)

// Product is a registered batch of a product: one row per intake lot,
// each with its own validity date and unit-tagged quantity.
type Product struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Quantity     float64    `db:"quantity" json:"quantity"`
	Unit         string     `db:"unit" json:"unit"`
	ValidityDate time.Time  `db:"validity_date" json:"validity_date"`
	ReceiptDate  time.Time  `db:"receipt_date" json:"receipt_date"`
	ReceiptType  string     `db:"receipt_type" json:"receipt_type"`
	CategoryID   *string    `db:"category_id" json:"category_id,omitempty"`
	GroupID      *string    `db:"group_id" json:"group_id,omitempty"`
	SubgroupID   *string    `db:"subgroup_id" json:"subgroup_id,omitempty"`
	DonorID      *string    `db:"donor_id" json:"donor_id,omitempty"`
	SupplierID   *string    `db:"supplier_id" json:"supplier_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// ProductRow is a product joined with its reference names, as listed
// in tables and reports.
type ProductRow struct {
	Product
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
	GroupName    *string `db:"group_name" json:"group_name,omitempty"`
	SubgroupName *string `db:"subgroup_name" json:"subgroup_name,omitempty"`
	DonorName    *string `db:"donor_name" json:"donor_name,omitempty"`
	SupplierName *string `db:"supplier_name" json:"supplier_name,omitempty"`
}

// UnitTotal is a per-unit quantity sum straight from the database.
type UnitTotal struct {
	Unit  string  `db:"unit" json:"unit"`
	Total float64 `db:"total" json:"total"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search      string
	ReceiptType string
	GroupID     string
}

const productRowSelect = `
	SELECT p.*,
		c.name AS category_name,
		g.name AS group_name,
		sg.name AS subgroup_name,
		d.name AS donor_name,
		s.name AS supplier_name
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN product_groups g ON g.id = p.group_id
	LEFT JOIN product_subgroups sg ON sg.id = p.subgroup_id
	LEFT JOIN donors d ON d.id = p.donor_id
	LEFT JOIN suppliers s ON s.id = p.supplier_id
`

// ProductRepository handles product persistence.
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product batch.
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	query := `
		INSERT INTO products (
			id, name, quantity, unit, validity_date, receipt_date, receipt_type,
			category_id, group_id, subgroup_id, donor_id, supplier_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		product.ID, product.Name, product.Quantity, product.Unit,
		product.ValidityDate, product.ReceiptDate, product.ReceiptType,
		product.CategoryID, product.GroupID, product.SubgroupID,
		product.DonorID, product.SupplierID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a live product with its reference names.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*ProductRow, error) {
	var row ProductRow
	query := productRowSelect + ` WHERE p.id = $1 AND p.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &row, nil
}

// List lists live products with reference names, earliest validity
// first.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]*ProductRow, error) {
	query := productRowSelect + ` WHERE p.deleted_at IS NULL`
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, filter.Search)
		query += ` AND p.name ILIKE '%' || $` + itoa(len(args)) + ` || '%'`
	}
	if filter.ReceiptType != "" {
		args = append(args, filter.ReceiptType)
		query += ` AND p.receipt_type = $` + itoa(len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += ` AND p.group_id = $` + itoa(len(args))
	}

	query += ` ORDER BY p.validity_date, p.name`

	var rows []*ProductRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update updates a product batch.
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products SET
			name = $2, quantity = $3, unit = $4, validity_date = $5,
			receipt_date = $6, receipt_type = $7, category_id = $8,
			group_id = $9, subgroup_id = $10, donor_id = $11,
			supplier_id = $12, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Quantity, product.Unit,
		product.ValidityDate, product.ReceiptDate, product.ReceiptType,
		product.CategoryID, product.GroupID, product.SubgroupID,
		product.DonorID, product.SupplierID,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("product")
	}
	return nil
}

// SoftDelete marks a product as deleted.
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE products SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("product")
	}
	return nil
}

// AdjustQuantity applies a signed delta to a product's quantity inside
// a transaction and returns the new quantity. The quantity check
// constraint surfaces an invalid-quantity error when an outflow would
// drive the stock negative.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, tx *sqlx.Tx, id string, delta float64) (float64, error) {
	var newQuantity float64
	query := `
		UPDATE products SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING quantity
	`
	if err := tx.QueryRowxContext(ctx, query, id, delta).Scan(&newQuantity); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.NotFound("product")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return 0, appErr
		}
		return 0, err
	}
	return newQuantity, nil
}

// CountActive counts live products.
func (r *ProductRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}

// UnitTotals sums live stock per unit.
func (r *ProductRepository) UnitTotals(ctx context.Context) ([]UnitTotal, error) {
	var totals []UnitTotal
	query := `
		SELECT unit, COALESCE(SUM(quantity), 0) AS total
		FROM products
		WHERE deleted_at IS NULL
		GROUP BY unit
	`
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, err
	}
	return totals, nil
}

// ExpiringWithin lists live products whose validity date falls within
// the next days, earliest first.
func (r *ProductRepository) ExpiringWithin(ctx context.Context, days int) ([]*ProductRow, error) {
	var rows []*ProductRow
	query := productRowSelect + `
		WHERE p.deleted_at IS NULL
		AND p.validity_date >= CURRENT_DATE
		AND p.validity_date <= CURRENT_DATE + $1 * INTERVAL '1 day'
		ORDER BY p.validity_date
	`
	if err := r.db.SelectContext(ctx, &rows, query, days); err != nil {
		return nil, err
	}
	return rows, nil
}

// Expired lists live products whose validity date has passed.
func (r *ProductRepository) Expired(ctx context.Context) ([]*ProductRow, error) {
	var rows []*ProductRow
	query := productRowSelect + `
		WHERE p.deleted_at IS NULL
		AND p.validity_date < CURRENT_DATE
		ORDER BY p.validity_date
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// itoa is a simple int-to-string helper for building query parameter indices
func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}
