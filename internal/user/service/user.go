// Package service implements user management: account lifecycle,
// password handling, role assignment, and audit trail.
package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/domain"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/actor"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// Audit actions recorded by the user service.
const (
	ActionUserCreated     = "user.created"
	ActionUserUpdated     = "user.updated"
	ActionUserDeleted     = "user.deleted"
	ActionUserRoleChanged = "user.role_changed"
	ActionPasswordChanged = "user.password_changed"
)

// EventPublisher publishes domain events. Satisfied by
// messaging.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// UserService handles user management logic.
type UserService struct {
	userRepo  *repository.UserRepository
	roleRepo  *repository.RoleRepository
	auditRepo *repository.AuditRepository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	auditRepo *repository.AuditRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		publisher: publisher,
		logger:    log.WithComponent("user"),
	}
}

// CreateInput holds the fields for creating a user.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	RoleName string
}

// UpdateInput holds the fields for updating a user.
type UpdateInput struct {
	Email  string
	Name   string
	Status string
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" {
		return nil, errors.Validation(map[string]string{"email": "email and name are required"})
	}
	if len(input.Password) < 8 {
		return nil, errors.Validation(map[string]string{"password": "password must be at least 8 characters"})
	}

	roleName := input.RoleName
	if roleName == "" {
		roleName = domain.RoleOperator
	}
	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.StatusActive,
		RoleID:       &role.ID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role

	s.audit(ctx, ActionUserCreated, user.ID, domain.ChangeSet{"email": email, "role": role.Name})
	s.publish(ctx, messaging.EventUserCreated, messaging.UserCreatedEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		RoleName: role.Name,
	})

	return user, nil
}

// Get gets a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List lists all users.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// Update updates a user's profile.
func (s *UserService) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := domain.ChangeSet{}
	if email := strings.TrimSpace(strings.ToLower(input.Email)); email != "" && email != user.Email {
		changes["email"] = email
		user.Email = email
	}
	if name := strings.TrimSpace(input.Name); name != "" && name != user.Name {
		changes["name"] = name
		user.Name = name
	}
	if input.Status != "" && input.Status != user.Status {
		if input.Status != domain.StatusActive && input.Status != domain.StatusDisabled {
			return nil, errors.Validation(map[string]string{"status": "status must be active or disabled"})
		}
		changes["status"] = input.Status
		user.Status = input.Status
	}

	if len(changes) == 0 {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit(ctx, ActionUserUpdated, user.ID, changes)
	s.publish(ctx, messaging.EventUserUpdated, messaging.UserUpdatedEvent{
		UserID: user.ID,
		Fields: changes,
	})

	return user, nil
}

// SetRole assigns a new role to a user.
func (s *UserService) SetRole(ctx context.Context, id, roleName string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	oldRole := ""
	if user.Role != nil {
		oldRole = user.Role.Name
	}
	if oldRole == role.Name {
		return user, nil
	}

	user.RoleID = &role.ID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role

	s.audit(ctx, ActionUserRoleChanged, user.ID, domain.ChangeSet{"old_role": oldRole, "new_role": role.Name})
	s.publish(ctx, messaging.EventUserRoleChanged, messaging.UserRoleChangedEvent{
		UserID:      user.ID,
		OldRoleName: oldRole,
		NewRoleName: role.Name,
	})

	return user, nil
}

// ChangePassword verifies the current password and sets a new one.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.InvalidCredentials()
	}
	if len(newPassword) < 8 {
		return errors.Validation(map[string]string{"password": "password must be at least 8 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("failed to hash password")
	}

	if err := s.userRepo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}

	s.audit(ctx, ActionPasswordChanged, id, nil)
	return nil
}

// Delete soft-deletes a user. Users cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if a := actor.FromContext(ctx); a != nil && a.ID == id {
		return errors.Forbidden("cannot delete your own account")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, ActionUserDeleted, id, domain.ChangeSet{"email": user.Email})
	s.publish(ctx, messaging.EventUserDeleted, messaging.UserDeletedEvent{
		UserID: user.ID,
		Email:  user.Email,
	})

	return nil
}

// ListRoles lists all roles.
func (s *UserService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.roleRepo.GetAll(ctx)
}

// ListAuditLog lists audit entries with optional filters.
func (s *UserService) ListAuditLog(ctx context.Context, userID, action string, page, perPage int) ([]*domain.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, userID, action, page, perPage)
}

// audit records an entry attributed to the acting user. Failures are
// logged, not surfaced; the primary operation already succeeded.
func (s *UserService) audit(ctx context.Context, action, targetID string, changes domain.ChangeSet) {
	entry := &domain.AuditLog{
		Action:     action,
		Resource:   "user",
		ResourceID: &targetID,
		Changes:    changes,
	}
	if a := actor.FromContext(ctx); a != nil {
		entry.UserID = &a.ID
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to write audit log")
		return
	}

	s.publish(ctx, messaging.EventAuditLogCreated, messaging.AuditLogCreatedEvent{
		LogID:      entry.ID,
		UserID:     deref(entry.UserID),
		Action:     action,
		Resource:   "user",
		ResourceID: targetID,
		Changes:    changes,
	})
}

func (s *UserService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
