package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/domain"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

// RoleRepository handles role persistence.
type RoleRepository struct {
	db *database.DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a new role.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}

	query := `
		INSERT INTO roles (id, name, display_name, level, permissions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		role.ID, role.Name, role.DisplayName, role.Level, role.Permissions,
	).Scan(&role.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a role by ID.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	var role domain.Role
	query := `SELECT * FROM roles WHERE id = $1`
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("role")
		}
		return nil, err
	}
	return &role, nil
}

// GetByName gets a role by name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	query := `SELECT * FROM roles WHERE name = $1`
	if err := r.db.GetContext(ctx, &role, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("role")
		}
		return nil, err
	}
	return &role, nil
}

// GetAll lists roles ordered by level, highest first.
func (r *RoleRepository) GetAll(ctx context.Context) ([]*domain.Role, error) {
	var roles []*domain.Role
	query := `SELECT * FROM roles ORDER BY level DESC, name`
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, err
	}
	return roles, nil
}

// EnsureDefaults creates the admin and operator roles when missing.
// Called at startup so a fresh database is usable immediately.
func (r *RoleRepository) EnsureDefaults(ctx context.Context) error {
	defaults := []*domain.Role{
		{
			Name:        domain.RoleAdmin,
			DisplayName: "Administrador",
			Level:       100,
			Permissions: domain.PermissionList{"*"},
		},
		{
			Name:        domain.RoleOperator,
			DisplayName: "Operador",
			Level:       50,
			Permissions: domain.PermissionList{
				"inventory.read", "inventory.write",
				"masterdata.read", "masterdata.write",
				"reports.read",
			},
		},
	}

	query := `
		INSERT INTO roles (id, name, display_name, level, permissions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO NOTHING
	`
	for _, role := range defaults {
		if _, err := r.db.ExecContext(ctx, query,
			uuid.New().String(), role.Name, role.DisplayName, role.Level, role.Permissions,
		); err != nil {
			return err
		}
	}
	return nil
}
