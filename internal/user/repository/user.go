// Package repository persists users, roles, and audit log entries.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/domain"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// UserRepository handles user persistence.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// userRow is the user joined with its role columns.
type userRow struct {
	domain.User
	RoleName        *string                `db:"role_name"`
	RoleDisplayName *string                `db:"role_display_name"`
	RoleLevel       *int                   `db:"role_level"`
	RolePermissions *domain.PermissionList `db:"role_permissions"`
}

const userSelect = `
	SELECT u.*,
		r.name AS role_name,
		r.display_name AS role_display_name,
		r.level AS role_level,
		r.permissions AS role_permissions
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id
`

func (row *userRow) toUser() *domain.User {
	user := row.User
	if row.RoleID != nil && row.RoleName != nil {
		role := &domain.Role{
			ID:          *row.RoleID,
			Name:        *row.RoleName,
			DisplayName: *row.RoleDisplayName,
		}
		if row.RoleLevel != nil {
			role.Level = *row.RoleLevel
		}
		if row.RolePermissions != nil {
			role.Permissions = *row.RolePermissions
		}
		user.Role = role
	}
	return &user
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Status == "" {
		user.Status = domain.StatusActive
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, status, role_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Status, user.RoleID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a live user with their role.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	query := userSelect + ` WHERE u.id = $1 AND u.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}
	return row.toUser(), nil
}

// GetByEmail gets a live user by email with their role. Used by the
// login flow.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	query := userSelect + ` WHERE LOWER(u.email) = LOWER($1) AND u.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}
	return row.toUser(), nil
}

// List lists live users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var rows []*userRow
	query := userSelect + ` WHERE u.deleted_at IS NULL ORDER BY u.name`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

// Update updates a user's profile fields.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET email = $2, name = $3, status = $4, role_id = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Status, user.RoleID,
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
		return errors.NotFound("user")
	}
	return nil
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// SoftDelete marks a user as deleted.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("user")
	}
	return nil
}
