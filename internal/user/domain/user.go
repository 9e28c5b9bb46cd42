// Package domain holds the user and role model shared by the user
// repositories, services, and handlers.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Default role names.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User represents a user in the system.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Status       string     `json:"status" db:"status"`
	RoleID       *string    `json:"-" db:"role_id"`
	Role         *Role      `json:"role,omitempty" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}

// Role represents a role with its permission set.
type Role struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Level       int            `json:"level" db:"level"`
	Permissions PermissionList `json:"permissions" db:"permissions"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// PermissionList is a JSONB-backed list of permission names.
type PermissionList []string

// Scan implements sql.Scanner for the JSONB column.
func (p *PermissionList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into PermissionList", src)
	}
}

// Value implements driver.Valuer for the JSONB column.
func (p PermissionList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// AuditLog records who did what to which resource.
type AuditLog struct {
	ID         string     `json:"id" db:"id"`
	UserID     *string    `json:"user_id,omitempty" db:"user_id"`
	Action     string     `json:"action" db:"action"`
	Resource   string     `json:"resource" db:"resource"`
	ResourceID *string    `json:"resource_id,omitempty" db:"resource_id"`
	Changes    ChangeSet  `json:"changes,omitempty" db:"changes"`
	IPAddress  *string    `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ChangeSet is a JSONB-backed map of changed fields.
type ChangeSet map[string]interface{}

// Scan implements sql.Scanner for the JSONB column.
func (c *ChangeSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into ChangeSet", src)
	}
}

// Value implements driver.Valuer for the JSONB column.
func (c ChangeSet) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
