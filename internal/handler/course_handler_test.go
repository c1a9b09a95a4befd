package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
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

type stubCourseRepo struct {
	course      *models.Course
	enrollments []*models.Enrollment
}

func (r *stubCourseRepo) Create(_ context.Context, _ *models.Course) error { return nil }

func (r *stubCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	if r.course != nil && r.course.ID == id {
		return r.course, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubCourseRepo) List(_ context.Context, _ models.CourseFilter) ([]models.Course, int, error) {
	return nil, 0, nil
}

func (r *stubCourseRepo) Update(_ context.Context, _ *models.Course) error { return nil }

func (r *stubCourseRepo) Delete(_ context.Context, _ string) error { return nil }

func (r *stubCourseRepo) Enroll(_ context.Context, enrollment *models.Enrollment) error {
	r.enrollments = append(r.enrollments, enrollment)
	return nil
}

func (r *stubCourseRepo) SetEnrollmentStatus(_ context.Context, _, _ string, _ models.EnrollmentStatus) error {
	return nil
}

func (r *stubCourseRepo) ListEnrollments(_ context.Context, _ string) ([]models.Enrollment, error) {
	return nil, nil
}

func (r *stubCourseRepo) ListActiveByStudent(_ context.Context, _ string) ([]models.Enrollment, error) {
	return nil, nil
}

type stubInstructorLookup struct {
	users map[string]*models.User
}

func (l *stubInstructorLookup) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := l.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type noopRosterInvalidator struct {
	invalidated []string
}

func (n *noopRosterInvalidator) InvalidateRoster(_ context.Context, courseID string) {
	n.invalidated = append(n.invalidated, courseID)
}

const (
	testInstructorID = "a0a0a0a0-0000-0000-0000-000000000001"
	testStudentID    = "b0b0b0b0-0000-0000-0000-000000000002"
)

type courseFixture struct {
	handler *CourseHandler
	repo    *stubCourseRepo
	rosters *noopRosterInvalidator
	audit   *recordingAudit
}

func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubCourseRepo{course: &models.Course{
		ID:           "c1",
		Code:         "CS101",
		Name:         "Algorithms",
		InstructorID: testInstructorID,
		Credits:      4,
	}}
	lookup := &stubInstructorLookup{users: map[string]*models.User{
		testStudentID: {ID: testStudentID, Role: models.RoleStudent, Status: models.UserStatusActive},
	}}
	rosters := &noopRosterInvalidator{}
	resolver := &stubResolver{
		rosters: map[string]*models.Roster{
			"c1": {CourseID: "c1", InstructorID: testInstructorID},
		},
	}
	audit := &recordingAudit{}
	engine := authz.NewEngine(resolver, audit, nil, nil)
	svc := service.NewCourseService(repo, lookup, rosters, nil, nil)

	return &courseFixture{
		handler: NewCourseHandler(svc, engine),
		repo:    repo,
		rosters: rosters,
		audit:   audit,
	}
}

func enrollRequest(claims *models.JWTClaims, studentID string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.EnrollRequest{StudentID: studentID})
	req, _ := http.NewRequest(http.MethodPost, "/courses/c1/enrollments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return w, c
}

func TestCourseHandlerEnrollByInstructor(t *testing.T) {
	fx := newCourseFixture(t)
	w, c := enrollRequest(&models.JWTClaims{UserID: testInstructorID, Role: models.RoleFaculty}, testStudentID)

	fx.handler.Enroll(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, fx.repo.enrollments, 1)
	assert.Equal(t, models.EnrollmentActive, fx.repo.enrollments[0].Status)
	assert.Equal(t, []string{"c1"}, fx.rosters.invalidated)
}

func TestCourseHandlerEnrollSelfServiceDenied(t *testing.T) {
	fx := newCourseFixture(t)
	w, c := enrollRequest(&models.JWTClaims{UserID: testStudentID, Role: models.RoleStudent}, testStudentID)

	fx.handler.Enroll(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, fx.repo.enrollments)
	require.Len(t, fx.audit.events, 1)
	assert.Equal(t, appErrors.ErrInsufficientPerms.Code, fx.audit.events[0].Reason)
}

func TestCourseHandlerEnrollForeignInstructorDenied(t *testing.T) {
	fx := newCourseFixture(t)
	w, c := enrollRequest(&models.JWTClaims{
		UserID: "c0c0c0c0-0000-0000-0000-000000000003",
		Role:   models.RoleFaculty,
	}, testStudentID)

	fx.handler.Enroll(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, fx.repo.enrollments)
	require.Len(t, fx.audit.events, 1)
	assert.Equal(t, appErrors.ErrCourseOwnership.Code, fx.audit.events[0].Reason)
}
