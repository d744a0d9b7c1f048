package services

import (
	"time"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/users"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/performance"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
	"github.com/formflowhq/formflow-go/pkg/config"
)

// AuthService handles registration, login and refresh token rotation.
// Access and refresh tokens are both HS256 JWTs signed with separate
// secrets; every issued refresh token also gets a database row so rotation
// and logout can revoke it.
type AuthService struct {
	userRepo    users.Repository
	tokenRepo   users.RefreshTokenRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo users.Repository, tokenRepo users.RefreshTokenRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// RegisterInput carries the attributes for a new account.
type RegisterInput struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is a user plus a freshly issued token pair.
type AuthResult struct {
	User         *users.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register creates an account and signs the first token pair.
func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	marker := s.perfTracker.StartOperation("register")
	defer marker.Complete()

	existing, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("an account with this email already exists")
	}

	hash, err := security.HashPassword(input.Password, config.BcryptCost)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	now := time.Now().UTC()
	user := &users.User{
		ID:           security.GenerateULID(),
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         "USER",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Store(user); err != nil {
		marker.SetError(err)
		return nil, err
	}

	result, err := s.issueTokens(user)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Auth().Info("User registered", "userId", user.ID)
	marker.SetSuccess(true)
	return result, nil
}

// Login verifies credentials and signs a new token pair. A missing account
// and a wrong password produce the same Unauthorized message.
func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	marker := s.perfTracker.StartOperation("login")
	defer marker.Complete()

	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if user == nil || !security.ComparePassword(user.PasswordHash, input.Password) {
		s.logger.Auth().Warn("Failed login attempt", "email", input.Email)
		return nil, apperr.Unauthorized("invalid email or password")
	}

	result, err := s.issueTokens(user)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Auth().Info("User logged in", "userId", user.ID)
	marker.SetSuccess(true)
	return result, nil
}

// Refresh rotates a refresh token: the presented token's row is revoked and
// a brand new pair is issued. A revoked, expired or unknown token is
// rejected, so a stolen token can be used at most once.
func (s *AuthService) Refresh(refreshToken string) (*AuthResult, error) {
	marker := s.perfTracker.StartOperation("refresh_token")
	defer marker.Complete()

	if _, err := security.VerifyToken(refreshToken, config.JWTRefreshSecret); err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	row, err := s.tokenRepo.FindByToken(refreshToken)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if row == nil || row.RevokedAt != nil || time.Now().UTC().After(row.ExpiresAt) {
		s.logger.Auth().Warn("Rejected refresh token", "known", row != nil)
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.FindByID(row.UserID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	if err := s.tokenRepo.Revoke(row.ID); err != nil {
		marker.SetError(err)
		return nil, err
	}

	result, err := s.issueTokens(user)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Auth().Info("Refresh token rotated", "userId", user.ID)
	marker.SetSuccess(true)
	return result, nil
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenRepo.RevokeByToken(refreshToken)
}

// CurrentUser loads the account behind an access token's subject.
func (s *AuthService) CurrentUser(userID string) (*users.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("account no longer exists")
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *users.User) (*AuthResult, error) {
	claims := security.TokenClaims{UserID: user.ID, Email: user.Email, Role: user.Role}

	accessToken, err := security.SignToken(claims, config.JWTAccessSecret, config.JWTAccessExpiration)
	if err != nil {
		return nil, err
	}
	refreshToken, err := security.SignToken(claims, config.JWTRefreshSecret, config.JWTRefreshExpiration)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &users.RefreshToken{
		ID:        security.GenerateULID(),
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(config.JWTRefreshExpiration),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Store(row); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
