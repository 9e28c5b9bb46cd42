package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/actor"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/testutil"
)

func newTestUserService(t *testing.T) (*UserService, *testutil.MockDB, *testutil.MockPublisher) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("user-test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)
	publisher := testutil.NewMockPublisher()

	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewRoleRepository(db),
		repository.NewAuditRepository(db),
		publisher,
		log,
	)
	return svc, mockDB, publisher
}

func roleColumns() []string {
	return []string{"id", "name", "display_name", "level", "permissions", "created_at"}
}

func userColumns() []string {
	return []string{
		"id", "email", "password_hash", "name", "status", "role_id",
		"created_at", "updated_at", "deleted_at",
		"role_name", "role_display_name", "role_level", "role_permissions",
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, mockDB, publisher := newTestUserService(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("SELECT * FROM roles WHERE name = $1").
		WillReturnRows(sqlmock.NewRows(roleColumns()).AddRow(
			"role-op", "operator", "Operador", 50, []byte(`["inventory.read"]`), now,
		))
	mockDB.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mockDB.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	user, err := svc.Create(context.Background(), CreateInput{
		Email:    "  Maria@ONG.org ",
		Name:     "Maria",
		Password: "senha-segura",
	})
	require.NoError(t, err)

	assert.Equal(t, "maria@ong.org", user.Email)
	assert.NotEqual(t, "senha-segura", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("senha-segura")))
	require.NotNil(t, user.Role)
	assert.Equal(t, "operator", user.Role.Name)

	publisher.AssertEventPublished(t, messaging.EventUserCreated)
	mockDB.ExpectationsWereMet(t)
}

func TestCreateUserShortPassword(t *testing.T) {
	svc, mockDB, publisher := newTestUserService(t)
	defer mockDB.Close()

	_, err := svc.Create(context.Background(), CreateInput{
		Email:    "maria@ong.org",
		Name:     "Maria",
		Password: "curta",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	publisher.AssertNoEventsPublished(t)
}

func TestSetRolePublishesChange(t *testing.T) {
	svc, mockDB, publisher := newTestUserService(t)
	defer mockDB.Close()

	now := time.Now()
	roleID := "role-op"
	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", "hash", "Maria", "active", &roleID,
			now, now, nil,
			"operator", "Operador", 50, []byte(`["inventory.read"]`),
		))
	mockDB.ExpectQuery("SELECT * FROM roles WHERE name = $1").
		WillReturnRows(sqlmock.NewRows(roleColumns()).AddRow(
			"role-admin", "admin", "Administrador", 100, []byte(`["*"]`), now,
		))
	mockDB.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	user, err := svc.SetRole(context.Background(), "user-1", "admin")
	require.NoError(t, err)
	require.NotNil(t, user.Role)
	assert.Equal(t, "admin", user.Role.Name)

	publisher.AssertEventPublished(t, messaging.EventUserRoleChanged)
	mockDB.ExpectationsWereMet(t)
}

func TestSetRoleNoChange(t *testing.T) {
	svc, mockDB, publisher := newTestUserService(t)
	defer mockDB.Close()

	now := time.Now()
	roleID := "role-op"
	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", "hash", "Maria", "active", &roleID,
			now, now, nil,
			"operator", "Operador", 50, []byte(`["inventory.read"]`),
		))
	mockDB.ExpectQuery("SELECT * FROM roles WHERE name = $1").
		WillReturnRows(sqlmock.NewRows(roleColumns()).AddRow(
			"role-op", "operator", "Operador", 50, []byte(`["inventory.read"]`), now,
		))

	_, err := svc.SetRole(context.Background(), "user-1", "operator")
	require.NoError(t, err)

	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestDeleteOwnAccountForbidden(t *testing.T) {
	svc, mockDB, publisher := newTestUserService(t)
	defer mockDB.Close()

	ctx := actor.WithActor(context.Background(), &actor.Actor{
		ID:    "user-1",
		Name:  "Maria",
		Email: "maria@ong.org",
	})

	err := svc.Delete(ctx, "user-1")
	require.Error(t, err)

	appErr := &errors.AppError{}
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.StatusCode)

	publisher.AssertNoEventsPublished(t)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, mockDB, publisher := newTestUserService(t)
	defer mockDB.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("senha-atual"), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()
	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", string(hash), "Maria", "active", nil,
			now, now, nil,
			nil, nil, nil, nil,
		))

	err = svc.ChangePassword(context.Background(), "user-1", "senha-errada", "nova-senha-longa")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	publisher.AssertNoEventsPublished(t)
}
