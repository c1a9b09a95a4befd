package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/middleware"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type stubUserRepo struct {
	users []models.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *models.User) error { return nil }

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			return &r.users[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	return r.users, len(r.users), nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, _ string, _ models.UserStatus) error {
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, _ *models.User) error { return nil }

func (r *stubUserRepo) RevokeUserRefreshTokens(_ context.Context, _ string) error { return nil }

func newUserFixture(t *testing.T) (*UserHandler, *recordingAudit) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubUserRepo{users: []models.User{
		{ID: "u-student", Email: "me@campus.edu", FullName: "Me", Role: models.RoleStudent, Status: models.UserStatusActive},
		{ID: "u-other", Email: "someone.else@campus.edu", FullName: "Someone Else", Role: models.RoleStudent, Status: models.UserStatusActive},
		{ID: "u-prof", Email: "prof@campus.edu", FullName: "Professor", Role: models.RoleFaculty, Status: models.UserStatusActive},
	}}
	resolver := &stubResolver{
		ownerships: map[string]*authz.Ownership{
			string(authz.KindUserRecord) + ":u-student": {OwnerID: "u-student"},
			string(authz.KindUserRecord) + ":u-other":   {OwnerID: "u-other"},
		},
	}
	audit := &recordingAudit{}
	engine := authz.NewEngine(resolver, audit, nil, nil)
	svc := service.NewUserService(repo, nil, nil)

	return NewUserHandler(svc, engine), audit
}

func listUsersRequest(claims *models.JWTClaims) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/users", nil)
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return w, c
}

func TestUserHandlerListAdminSeesDirectory(t *testing.T) {
	h, _ := newUserFixture(t)
	w, c := listUsersRequest(&models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "someone.else@campus.edu")
}

func TestUserHandlerListDeniedForStudent(t *testing.T) {
	h, _ := newUserFixture(t)
	w, c := listUsersRequest(&models.JWTClaims{UserID: "u-student", Role: models.RoleStudent})

	h.List(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "@campus.edu")
	assert.Contains(t, w.Body.String(), appErrors.ErrInsufficientPerms.Code)
}

func TestUserHandlerListDeniedForFaculty(t *testing.T) {
	h, _ := newUserFixture(t)
	w, c := listUsersRequest(&models.JWTClaims{UserID: "u-prof", Role: models.RoleFaculty})

	h.List(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "@campus.edu")
}

func TestUserHandlerGetOwnRecord(t *testing.T) {
	h, _ := newUserFixture(t)
	w, c := listUsersRequest(&models.JWTClaims{UserID: "u-student", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "u-student"}}

	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "me@campus.edu")
}

func TestUserHandlerGetForeignRecordDenied(t *testing.T) {
	h, audit := newUserFixture(t)
	w, c := listUsersRequest(&models.JWTClaims{UserID: "u-student", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "u-other"}}

	h.Get(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "someone.else@campus.edu")
	require.Len(t, audit.events, 1)
	assert.Equal(t, appErrors.ErrDataAccessViolation.Code, audit.events[0].Reason)
}
