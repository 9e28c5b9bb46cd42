package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/domain"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
)

// AuditRepository handles audit log persistence.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, resource, resource_id, changes, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.Resource,
		entry.ResourceID, entry.Changes, entry.IPAddress,
	).Scan(&entry.CreatedAt)
}

// List lists audit entries newest first with optional filters.
func (r *AuditRepository) List(ctx context.Context, userID, action string, page, perPage int) ([]*domain.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 50
	}

	args := []interface{}{}
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	query := `SELECT * FROM audit_logs WHERE 1=1`

	if userID != "" {
		args = append(args, userID)
		clause := fmt.Sprintf(` AND user_id = $%d`, len(args))
		countQuery += clause
		query += clause
	}
	if action != "" {
		args = append(args, action)
		clause := fmt.Sprintf(` AND action = $%d`, len(args))
		countQuery += clause
		query += clause
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	var entries []*domain.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
