package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

func newAuthFixture(t *testing.T, status models.UserStatus) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {
			ID:           "u1",
			Email:        "alice@campus.edu",
			PasswordHash: string(hash),
			FullName:     "Alice Chen",
			Role:         models.RoleStudent,
			Status:       status,
		},
	}}

	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "arp-api-test",
	})
	return svc, repo
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	svc, repo := newAuthFixture(t, models.UserStatusActive)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@campus.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Len(t, repo.refreshTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, models.UserStatusActive)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@campus.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginPendingAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, models.UserStatusPending)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@campus.edu",
		Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPendingApproval.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginDisabledAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, models.UserStatusDisabled)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@campus.edu",
		Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t, models.UserStatusActive)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@campus.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked; replaying it fails.
	used := repo.refreshTokens[resp.RefreshToken]
	assert.True(t, used.Revoked)
	_, err = svc.Refresh(context.Background(), resp.RefreshToken, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t, models.UserStatusActive)

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
