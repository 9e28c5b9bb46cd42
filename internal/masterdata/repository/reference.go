// Package repository persists the reference-data collections: the
// free-text-but-constrained lookup values (categories, groups,
// subgroups, donors, suppliers) products point at.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// ReferenceEntry is a row in one of the reference collections.
type ReferenceEntry struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Collection identifies one reference table and the product column that
// references it.
type Collection struct {
	Resource      string
	Table         string
	ProductColumn string
}

// The five reference collections.
var (
	Categories = Collection{Resource: "category", Table: "categories", ProductColumn: "category_id"}
	Groups     = Collection{Resource: "group", Table: "product_groups", ProductColumn: "group_id"}
	Subgroups  = Collection{Resource: "subgroup", Table: "product_subgroups", ProductColumn: "subgroup_id"}
	Donors     = Collection{Resource: "donor", Table: "donors", ProductColumn: "donor_id"}
	Suppliers  = Collection{Resource: "supplier", Table: "suppliers", ProductColumn: "supplier_id"}
)

// AllCollections lists every reference collection, for route wiring.
var AllCollections = []Collection{Categories, Groups, Subgroups, Donors, Suppliers}

// ReferenceRepository handles persistence for one reference collection.
// All five collections share the same shape, so the repository is
// parameterized by Collection rather than written five times.
type ReferenceRepository struct {
	db  *database.DB
	col Collection
}

// NewReferenceRepository creates a repository for the given collection.
func NewReferenceRepository(db *database.DB, col Collection) *ReferenceRepository {
	return &ReferenceRepository{db: db, col: col}
}

// Collection returns the collection this repository persists.
func (r *ReferenceRepository) Collection() Collection {
	return r.col
}

// Create inserts a new entry. A name collision surfaces as a
// duplicate-reference error.
func (r *ReferenceRepository) Create(ctx context.Context, name string) (*ReferenceEntry, error) {
	entry := &ReferenceEntry{
		ID:   uuid.New().String(),
		Name: name,
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name) VALUES ($1, $2)
		RETURNING created_at
	`, r.col.Table)

	if err := r.db.QueryRowxContext(ctx, query, entry.ID, entry.Name).Scan(&entry.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.DuplicateReference(name)
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	return entry, nil
}

// GetByID gets an entry by ID.
func (r *ReferenceRepository) GetByID(ctx context.Context, id string) (*ReferenceEntry, error) {
	var entry ReferenceEntry
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1`, r.col.Table)
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(r.col.Resource)
		}
		return nil, err
	}
	return &entry, nil
}

// GetAll lists all entries ordered by name.
func (r *ReferenceRepository) GetAll(ctx context.Context) ([]*ReferenceEntry, error) {
	var entries []*ReferenceEntry
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY name`, r.col.Table)
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

// SearchByName lists entries whose name contains the query,
// case-insensitively, ordered by name.
func (r *ReferenceRepository) SearchByName(ctx context.Context, q string, limit int) ([]*ReferenceEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []*ReferenceEntry
	query := fmt.Sprintf(`
		SELECT * FROM %s
		WHERE name ILIKE '%%' || $1 || '%%'
		ORDER BY name
		LIMIT $2
	`, r.col.Table)
	if err := r.db.SelectContext(ctx, &entries, query, q, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes an entry.
func (r *ReferenceRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.col.Table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound(r.col.Resource)
	}
	return nil
}

// UsageCount counts live products referencing the entry.
func (r *ReferenceRepository) UsageCount(ctx context.Context, id string) (int, error) {
	var count int
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM products
		WHERE %s = $1 AND deleted_at IS NULL
	`, r.col.ProductColumn)
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, err
	}
	return count, nil
}
