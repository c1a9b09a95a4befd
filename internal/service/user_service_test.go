package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type mockUserRepo struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	revokedUsers  []string
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var result []models.User
	for _, user := range m.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && user.Status != *filter.Status {
			continue
		}
		result = append(result, user)
	}
	return result, len(result), nil
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Status = status
	m.users[id] = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.LastLogin = &ts
	m.users[id] = user
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]models.RefreshToken)
	}
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &stored, nil
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			m.refreshTokens[key] = token
		}
	}
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func TestUserServiceRegisterCreatesPendingAccount(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "alice@campus.edu",
		Password: "correct horse",
		FullName: "Alice Chen",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	assert.Equal(t, models.UserStatusPending, user.Status)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
}

func TestUserServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "alice@campus.edu"},
	}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "alice@campus.edu",
		Password: "correct horse",
		FullName: "Alice Chen",
		Role:     models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceRegisterRejectsAdminRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "root@campus.edu",
		Password: "correct horse",
		FullName: "Root",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceApprovalLifecycle(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "alice@campus.edu", Status: models.UserStatusPending},
	}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Approve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)

	// A second approval is a conflict, not a silent no-op.
	_, err = svc.Approve(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceRejectPendingAccount(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Status: models.UserStatusPending},
	}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Reject(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRejected, user.Status)
}

func TestUserServiceDisableRevokesTokens(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u1": {ID: "u1", Status: models.UserStatusActive},
	}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Disable(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusDisabled, user.Status)
	assert.Contains(t, repo.revokedUsers, "u1")
}

func TestUserServiceApproveUnknownUser(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)

	_, err := svc.Approve(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResourceNotFound.Code, appErrors.FromError(err).Code)
}
