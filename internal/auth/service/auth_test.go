package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/jwt"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/repository"
	userrepo "github.com/GabrielSchiavo/smartstock-sub002/internal/user/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/config"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/database"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/testutil"
)

func newTestAuthService(t *testing.T) (*AuthService, *testutil.MockDB, *jwt.Manager) {
	mockDB := testutil.NewMockDB(t)
	log := logger.New("auth-test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)

	manager := jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret-for-unit-tests",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "smartstock-test",
	})

	svc := NewAuthService(
		repository.NewSessionRepository(db),
		userrepo.NewUserRepository(db),
		manager,
		log,
	)
	return svc, mockDB, manager
}

func userColumns() []string {
	return []string{
		"id", "email", "password_hash", "name", "status", "role_id",
		"created_at", "updated_at", "deleted_at",
		"role_name", "role_display_name", "role_level", "role_permissions",
	}
}

func mustHash(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	svc, mockDB, _ := newTestAuthService(t)
	defer mockDB.Close()

	now := time.Now()
	roleID := "role-1"
	hash := mustHash(t, "senha-segura")

	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", hash, "Maria", "active", &roleID,
			now, now, nil,
			"operator", "Operador", 50, []byte(`["inventory.read","inventory.write"]`),
		))
	mockDB.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@ong.org",
		Password: "senha-segura",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "maria@ong.org", resp.User.Email)
	assert.Equal(t, "operator", resp.User.Role)
	assert.Contains(t, resp.User.Permissions, "inventory.write")

	mockDB.ExpectationsWereMet(t)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mockDB, _ := newTestAuthService(t)
	defer mockDB.Close()

	now := time.Now()
	hash := mustHash(t, "outra-senha")

	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", hash, "Maria", "active", nil,
			now, now, nil,
			nil, nil, nil, nil,
		))

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@ong.org",
		Password: "senha-errada",
	}, "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	mockDB.ExpectationsWereMet(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mockDB, _ := newTestAuthService(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ninguem@ong.org",
		Password: "qualquer-coisa",
	}, "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, mockDB, _ := newTestAuthService(t)
	defer mockDB.Close()

	now := time.Now()
	hash := mustHash(t, "senha-segura")

	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", hash, "Maria", "disabled", nil,
			now, now, nil,
			nil, nil, nil, nil,
		))

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "maria@ong.org",
		Password: "senha-segura",
	}, "", "")
	require.Error(t, err)

	appErr := &errors.AppError{}
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, mockDB, manager := newTestAuthService(t)
	defer mockDB.Close()

	tokens, err := manager.GenerateTokenPair(&jwt.UserInfo{
		ID:    "user-1",
		Email: "maria@ong.org",
		Name:  "Maria",
		Role:  "operator",
	}, "sess-1")
	require.NoError(t, err)

	now := time.Now()
	roleID := "role-1"

	mockDB.ExpectQuery("SELECT id, user_id, refresh_token_hash").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "refresh_token_hash", "user_agent", "ip_address",
			"expires_at", "created_at", "last_used_at", "revoked_at",
		}).AddRow(
			"sess-1", "user-1", "hash", nil, nil,
			now.Add(24*time.Hour), now, now, nil,
		))
	mockDB.ExpectQuery("SELECT u.*").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(
			"user-1", "maria@ong.org", "hash", "Maria", "active", &roleID,
			now, now, nil,
			"operator", "Operador", 50, []byte(`["inventory.read"]`),
		))
	mockDB.ExpectExec("UPDATE sessions SET refresh_token_hash").
		WillReturnResult(sqlmock.NewResult(1, 1))

	newTokens, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newTokens.AccessToken)
	assert.NotEqual(t, tokens.RefreshToken, newTokens.RefreshToken)

	// The rotated refresh token stays bound to the same session.
	claims, err := manager.ValidateRefreshToken(newTokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)

	mockDB.ExpectationsWereMet(t)
}

func TestRefreshUnknownSession(t *testing.T) {
	svc, mockDB, manager := newTestAuthService(t)
	defer mockDB.Close()

	tokens, err := manager.GenerateTokenPair(&jwt.UserInfo{ID: "user-1"}, "sess-1")
	require.NoError(t, err)

	mockDB.ExpectQuery("SELECT id, user_id, refresh_token_hash").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "refresh_token_hash", "user_agent", "ip_address",
			"expires_at", "created_at", "last_used_at", "revoked_at",
		}))

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	require.Error(t, err)

	appErr := &errors.AppError{}
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestRefreshInvalidToken(t *testing.T) {
	svc, mockDB, _ := newTestAuthService(t)
	defer mockDB.Close()

	_, err := svc.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, mockDB, _ := newTestAuthService(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE sessions SET revoked_at").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := svc.Logout(context.Background(), "some-refresh-token")
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}
