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

type stubResolver struct {
	ownerships map[string]*authz.Ownership
	rosters    map[string]*models.Roster
}

func (s *stubResolver) Resolve(_ context.Context, kind authz.ResourceKind, id string) (*authz.Ownership, error) {
	if o, ok := s.ownerships[string(kind)+":"+id]; ok {
		return o, nil
	}
	return nil, authz.ErrNotFound
}

func (s *stubResolver) Roster(_ context.Context, courseID string) (*models.Roster, error) {
	if r, ok := s.rosters[courseID]; ok {
		return r, nil
	}
	return nil, authz.ErrNotFound
}

type recordingAudit struct {
	events []authz.Event
}

func (a *recordingAudit) Record(_ context.Context, event authz.Event) {
	a.events = append(a.events, event)
}

type stubMarksRepo struct {
	upserts []*models.Marks
}

func (r *stubMarksRepo) Upsert(_ context.Context, marks *models.Marks) error {
	r.upserts = append(r.upserts, marks)
	return nil
}

func (r *stubMarksRepo) FindByID(_ context.Context, _ string) (*models.Marks, error) {
	return nil, sql.ErrNoRows
}

func (r *stubMarksRepo) List(_ context.Context, _ models.MarksFilter) ([]models.Marks, error) {
	return nil, nil
}

func (r *stubMarksRepo) Finalize(_ context.Context, _ *models.Marks) error {
	return nil
}

func (r *stubMarksRepo) GradedRecords(_ context.Context, _ string) ([]models.Marks, error) {
	return nil, nil
}

type stubCourseLookup struct {
	course *models.Course
}

func (l *stubCourseLookup) FindByID(_ context.Context, id string) (*models.Course, error) {
	if l.course != nil && l.course.ID == id {
		return l.course, nil
	}
	return nil, sql.ErrNoRows
}

type marksFixture struct {
	handler *MarksHandler
	repo    *stubMarksRepo
	audit   *recordingAudit
}

func newMarksFixture(t *testing.T) *marksFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubMarksRepo{}
	courses := &stubCourseLookup{course: &models.Course{
		ID:           "c1",
		Code:         "CS101",
		Name:         "Algorithms",
		InstructorID: "a0a0a0a0-0000-0000-0000-000000000001",
		Credits:      4,
	}}
	resolver := &stubResolver{
		rosters: map[string]*models.Roster{
			"c1": {
				CourseID:     "c1",
				InstructorID: "a0a0a0a0-0000-0000-0000-000000000001",
				ActiveStudents: map[string]struct{}{
					"b0b0b0b0-0000-0000-0000-000000000002": {},
				},
			},
		},
	}
	audit := &recordingAudit{}
	engine := authz.NewEngine(resolver, audit, nil, nil)
	svc := service.NewMarksService(repo, courses, nil, 0, nil, nil)

	return &marksFixture{
		handler: NewMarksHandler(svc, engine),
		repo:    repo,
		audit:   audit,
	}
}

func recordMarksRequest(claims *models.JWTClaims, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses/c1/marks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return w, c
}

func TestMarksHandlerRecordOwnCourse(t *testing.T) {
	fx := newMarksFixture(t)
	body, _ := json.Marshal(models.UpsertMarksRequest{
		StudentID:  "b0b0b0b0-0000-0000-0000-000000000002",
		Components: models.ScoreComponents{"final": 75},
		Maxima:     models.ScoreComponents{"final": 100},
	})
	w, c := recordMarksRequest(&models.JWTClaims{
		UserID: "a0a0a0a0-0000-0000-0000-000000000001",
		Role:   models.RoleFaculty,
	}, body)

	fx.handler.Record(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, fx.repo.upserts, 1)
	assert.Equal(t, "B+", fx.repo.upserts[0].Letter)
	assert.Equal(t, 4, fx.repo.upserts[0].Credits)
	assert.Empty(t, fx.audit.events)
}

func TestMarksHandlerRecordDeniedForStudent(t *testing.T) {
	fx := newMarksFixture(t)
	body, _ := json.Marshal(models.UpsertMarksRequest{
		StudentID:  "b0b0b0b0-0000-0000-0000-000000000002",
		Components: models.ScoreComponents{"final": 75},
		Maxima:     models.ScoreComponents{"final": 100},
	})
	w, c := recordMarksRequest(&models.JWTClaims{
		UserID: "b0b0b0b0-0000-0000-0000-000000000002",
		Role:   models.RoleStudent,
	}, body)

	fx.handler.Record(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, fx.repo.upserts)
	require.Len(t, fx.audit.events, 1)
	assert.Equal(t, appErrors.ErrInsufficientPerms.Code, fx.audit.events[0].Reason)
}

func TestMarksHandlerRecordDeniedForForeignCourse(t *testing.T) {
	fx := newMarksFixture(t)
	body, _ := json.Marshal(models.UpsertMarksRequest{
		StudentID:  "b0b0b0b0-0000-0000-0000-000000000002",
		Components: models.ScoreComponents{"final": 75},
		Maxima:     models.ScoreComponents{"final": 100},
	})
	w, c := recordMarksRequest(&models.JWTClaims{
		UserID: "c0c0c0c0-0000-0000-0000-000000000003",
		Role:   models.RoleFaculty,
	}, body)

	fx.handler.Record(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, fx.repo.upserts)
	require.Len(t, fx.audit.events, 1)
	assert.Equal(t, appErrors.ErrCourseOwnership.Code, fx.audit.events[0].Reason)
}

func TestMarksHandlerRecordInvalidBody(t *testing.T) {
	fx := newMarksFixture(t)
	w, c := recordMarksRequest(&models.JWTClaims{
		UserID: "a0a0a0a0-0000-0000-0000-000000000001",
		Role:   models.RoleFaculty,
	}, []byte(`not json`))

	fx.handler.Record(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fx.repo.upserts)
}

func TestMarksHandlerRecordUnauthenticated(t *testing.T) {
	fx := newMarksFixture(t)
	w, c := recordMarksRequest(nil, []byte(`{}`))

	fx.handler.Record(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, fx.audit.events, 1)
	assert.Equal(t, appErrors.ErrAuthRequired.Code, fx.audit.events[0].Reason)
}
