// Package service implements authentication against locally stored credentials.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/jwt"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/user/domain"
	userrepo "github.com/GabrielSchiavo/smartstock-sub002/internal/user/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// generateSessionID generates a unique session ID
func generateSessionID() string {
	return uuid.New().String()
}

// AuthService handles authentication logic
type AuthService struct {
	sessions   *repository.SessionRepository
	users      *userrepo.UserRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(sessions *repository.SessionRepository, users *userrepo.UserRepository, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		sessions:   sessions,
		users:      users,
		jwtManager: jwtManager,
		logger:     log.WithComponent("auth"),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
	User         *UserInfo `json:"user"`
}

// UserInfo represents user information returned to the client
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	user, err := s.validateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	info := toUserInfo(user)
	expiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())

	// The session ID is generated before the token pair so the refresh
	// claims can embed it.
	sessionID := generateSessionID()

	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:          info.ID,
		Email:       info.Email,
		Name:        info.Name,
		Role:        info.Role,
		Permissions: info.Permissions,
	}, sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	_, err = s.sessions.CreateWithID(ctx, sessionID, info.ID, tokens.RefreshToken, expiresAt, userAgent, ipAddress)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	s.logger.Info().
		Str("user_id", info.ID).
		Str("email", info.Email).
		Msg("user logged in")

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         info,
	}, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.RevokeByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// Refresh rotates the refresh token and returns a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}

	if session.RevokedAt != nil {
		return nil, errors.Unauthorized("session revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}
	if !user.IsActive() {
		return nil, errors.Unauthorized("account disabled")
	}

	info := toUserInfo(user)
	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:          info.ID,
		Email:       info.Email,
		Name:        info.Name,
		Role:        info.Role,
		Permissions: info.Permissions,
	}, session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	// Rotate: the old refresh token stops matching once the hash is replaced.
	if err := s.sessions.UpdateRefreshTokenHash(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Error().Err(err).Msg("failed to rotate refresh token")
		return nil, errors.Internal("failed to refresh session")
	}

	return tokens, nil
}

// GetCurrentUser gets the current user's profile
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// RevokeAllSessions revokes every active session for a user
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

// CleanExpiredSessions removes expired and revoked sessions
func (s *AuthService) CleanExpiredSessions(ctx context.Context) error {
	return s.sessions.CleanExpired(ctx)
}

func (s *AuthService) validateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	if !user.IsActive() {
		return nil, errors.Unauthorized("account disabled")
	}

	return user, nil
}

func toUserInfo(user *domain.User) *UserInfo {
	info := &UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Permissions: []string{},
	}
	if user.Role != nil {
		info.Role = user.Role.Name
		info.Permissions = user.Role.Permissions
	}
	return info
}
