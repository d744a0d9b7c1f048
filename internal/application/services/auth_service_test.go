package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/formflowhq/formflow-go/internal/domain/apperr"
	"github.com/formflowhq/formflow-go/internal/domain/users"
	"github.com/formflowhq/formflow-go/internal/infrastructure/security"
	"github.com/formflowhq/formflow-go/pkg/config"
)

type authFixture struct {
	service   *AuthService
	userRepo  *fakeUserRepo
	tokenRepo *fakeTokenRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	// Full-cost hashing makes the suite crawl.
	previousCost := config.BcryptCost
	config.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { config.BcryptCost = previousCost })

	userRepo := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	return &authFixture{
		service:   NewAuthService(userRepo, tokenRepo, testLogger(t), testTracker()),
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	fixture := newAuthFixture(t)

	registered, err := fixture.service.Register(RegisterInput{
		Email:    "owner@example.com",
		Password: "correct horse",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "USER", registered.User.Role)
	assert.NotEqual(t, "correct horse", registered.User.PasswordHash)

	claims, err := security.VerifyToken(registered.AccessToken, config.JWTAccessSecret)
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)

	loggedIn, err := fixture.service.Login(LoginInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)

	_, err = fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "another pass"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestLoginBadCredentialsIndistinguishable(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)

	_, wrongPassword := fixture.service.Login(LoginInput{Email: "owner@example.com", Password: "wrong"})
	_, unknownEmail := fixture.service.Login(LoginInput{Email: "nobody@example.com", Password: "wrong"})

	assert.True(t, apperr.IsKind(wrongPassword, apperr.KindUnauthorized))
	assert.True(t, apperr.IsKind(unknownEmail, apperr.KindUnauthorized))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

// seedRefreshRow signs a refresh token with a non-default lifetime so its
// string can never collide with the pair Refresh issues afterwards.
func (f *authFixture) seedRefreshRow(t *testing.T, user *users.User, lifetime time.Duration) *users.RefreshToken {
	t.Helper()
	token, err := security.SignToken(
		security.TokenClaims{UserID: user.ID, Email: user.Email, Role: user.Role},
		config.JWTRefreshSecret, lifetime)
	assert.NoError(t, err)

	now := time.Now().UTC()
	row := &users.RefreshToken{
		ID:        "row-" + user.ID,
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(lifetime),
		CreatedAt: now,
	}
	assert.NoError(t, f.tokenRepo.Store(row))
	return row
}

func TestRefreshRotatesToken(t *testing.T) {
	fixture := newAuthFixture(t)

	registered, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)
	row := fixture.seedRefreshRow(t, registered.User, time.Hour)

	rotated, err := fixture.service.Refresh(row.Token)
	assert.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, row.Token, rotated.RefreshToken)

	// The presented token's row is revoked, so replaying it fails.
	stored, err := fixture.tokenRepo.FindByToken(row.Token)
	assert.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)

	_, err = fixture.service.Refresh(row.Token)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestRefreshRejectsExpiredRow(t *testing.T) {
	fixture := newAuthFixture(t)

	registered, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)

	// Signature still verifies but the row's expiry has passed.
	row := fixture.seedRefreshRow(t, registered.User, time.Hour)
	expired := time.Now().UTC().Add(-time.Minute)
	row.ExpiresAt = expired

	_, err = fixture.service.Refresh(row.Token)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	fixture := newAuthFixture(t)

	registered, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)

	// A validly signed token with no backing row is rejected.
	token, err := security.SignToken(
		security.TokenClaims{UserID: registered.User.ID, Email: registered.User.Email, Role: "USER"},
		config.JWTRefreshSecret, 30*time.Minute)
	assert.NoError(t, err)

	_, err = fixture.service.Refresh(token)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = fixture.service.Refresh("not even a jwt")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestLogoutRevokesToken(t *testing.T) {
	fixture := newAuthFixture(t)

	registered, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)
	row := fixture.seedRefreshRow(t, registered.User, time.Hour)

	assert.NoError(t, fixture.service.Logout(row.Token))

	_, err = fixture.service.Refresh(row.Token)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	// Empty and unknown tokens are no-ops.
	assert.NoError(t, fixture.service.Logout(""))
	assert.NoError(t, fixture.service.Logout("unknown"))
}

func TestCurrentUser(t *testing.T) {
	fixture := newAuthFixture(t)

	registered, err := fixture.service.Register(RegisterInput{Email: "owner@example.com", Password: "correct horse"})
	assert.NoError(t, err)

	user, err := fixture.service.CurrentUser(registered.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)

	_, err = fixture.service.CurrentUser("ghost")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}
