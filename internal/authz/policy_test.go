package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type mockResolver struct {
	ownership map[string]*Ownership // keyed by kind/id
	rosters   map[string]*models.Roster
	err       error
}

func (m *mockResolver) Resolve(ctx context.Context, kind ResourceKind, id string) (*Ownership, error) {
	if m.err != nil {
		return nil, m.err
	}
	if o, ok := m.ownership[string(kind)+"/"+id]; ok {
		return o, nil
	}
	return nil, ErrNotFound
}

func (m *mockResolver) Roster(ctx context.Context, courseID string) (*models.Roster, error) {
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.rosters[courseID]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

type mockSink struct {
	events []Event
}

func (m *mockSink) Record(ctx context.Context, e Event) {
	m.events = append(m.events, e)
}

func activeRoster(courseID, instructorID string, studentIDs ...string) *models.Roster {
	students := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		students[id] = struct{}{}
	}
	return &models.Roster{CourseID: courseID, InstructorID: instructorID, ActiveStudents: students}
}

func newTestEngine(resolver *mockResolver, sink *mockSink) *Engine {
	return NewEngine(resolver, sink, nil, zap.NewNop())
}

func TestDecideUnauthenticated(t *testing.T) {
	sink := &mockSink{}
	engine := newTestEngine(&mockResolver{}, sink)

	d := engine.Decide(context.Background(), nil, ActionRead, ResourceDescriptor{Kind: KindMarks, ID: "m1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrAuthRequired.Code, d.Reason)
	require.Len(t, sink.events, 1)
}

func TestDecideAdminOverride(t *testing.T) {
	engine := newTestEngine(&mockResolver{}, &mockSink{})
	admin := &Principal{UserID: "adm", Role: models.RoleAdmin}

	actions := []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionApprove}
	kinds := []ResourceKind{KindUserRecord, KindCourse, KindAssignment, KindSubmission, KindMarks, KindAttendance, KindNotice, KindLeave}
	for _, action := range actions {
		for _, kind := range kinds {
			d := engine.Decide(context.Background(), admin, action, ResourceDescriptor{Kind: kind, ID: "x"})
			assert.True(t, d.Allowed, "%s %s", action, kind)
		}
	}
}

func TestDecideApproveRequiresAdmin(t *testing.T) {
	sink := &mockSink{}
	engine := newTestEngine(&mockResolver{}, sink)

	for _, role := range []models.UserRole{models.RoleFaculty, models.RoleStudent} {
		d := engine.Decide(context.Background(), &Principal{UserID: "u", Role: role}, ActionApprove, ResourceDescriptor{Kind: KindUserRecord, ID: "u2"})
		assert.False(t, d.Allowed)
		assert.Equal(t, appErrors.ErrInsufficientPerms.Code, d.Reason)
	}
}

func TestDecideApproveAllowIsAudited(t *testing.T) {
	sink := &mockSink{}
	engine := newTestEngine(&mockResolver{}, sink)

	d := engine.Decide(context.Background(), &Principal{UserID: "adm", Role: models.RoleAdmin}, ActionApprove, ResourceDescriptor{Kind: KindUserRecord, ID: "u2"})
	assert.True(t, d.Allowed)
	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].Allowed)
}

func TestDecideStudentOwnRecord(t *testing.T) {
	resolver := &mockResolver{ownership: map[string]*Ownership{
		"MARKS/m1": {OwnerID: "s1", CourseID: "c1"},
	}}
	engine := newTestEngine(resolver, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindMarks, ID: "m1"})
	assert.True(t, d.Allowed)
}

func TestDecideStudentForeignRecordDenied(t *testing.T) {
	resolver := &mockResolver{ownership: map[string]*Ownership{
		"MARKS/m1": {OwnerID: "s1", CourseID: "c1"},
	}}
	sink := &mockSink{}
	engine := newTestEngine(resolver, sink)

	d := engine.Decide(context.Background(), &Principal{UserID: "s2", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindMarks, ID: "m1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrDataAccessViolation.Code, d.Reason)
	require.Len(t, sink.events, 1)
	assert.Equal(t, appErrors.ErrDataAccessViolation.Code, sink.events[0].Reason)
}

func TestDecideStudentEnrollmentGate(t *testing.T) {
	resolver := &mockResolver{
		ownership: map[string]*Ownership{"ASSIGNMENT/a1": {CourseID: "c1"}},
		rosters:   map[string]*models.Roster{"c1": activeRoster("c1", "f1", "s1")},
	}
	engine := newTestEngine(resolver, &mockSink{})

	enrolled := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindAssignment, ID: "a1"})
	assert.True(t, enrolled.Allowed)

	outsider := engine.Decide(context.Background(), &Principal{UserID: "s9", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindAssignment, ID: "a1"})
	assert.False(t, outsider.Allowed)
	assert.Equal(t, appErrors.ErrCourseAccessDenied.Code, outsider.Reason)
}

func TestDecideDroppedStudentLosesAccess(t *testing.T) {
	// s1 dropped the course: the roster no longer lists them as active.
	resolver := &mockResolver{
		ownership: map[string]*Ownership{"ASSIGNMENT/a1": {CourseID: "c1"}},
		rosters:   map[string]*models.Roster{"c1": activeRoster("c1", "f1", "s2")},
	}
	engine := newTestEngine(resolver, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindAssignment, ID: "a1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrCourseAccessDenied.Code, d.Reason)
}

func TestDecideStudentCreateSubmissionNeedsActiveMembership(t *testing.T) {
	resolver := &mockResolver{rosters: map[string]*models.Roster{"c1": activeRoster("c1", "f1", "s1")}}
	engine := newTestEngine(resolver, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionCreate, ResourceDescriptor{Kind: KindSubmission, CourseID: "c1"})
	assert.True(t, d.Allowed)

	d = engine.Decide(context.Background(), &Principal{UserID: "s9", Role: models.RoleStudent}, ActionCreate, ResourceDescriptor{Kind: KindSubmission, CourseID: "c1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrCourseAccessDenied.Code, d.Reason)
}

func TestDecideFacultyInstructorOwnership(t *testing.T) {
	resolver := &mockResolver{
		ownership: map[string]*Ownership{"MARKS/m1": {OwnerID: "s1", CourseID: "c1"}},
		rosters:   map[string]*models.Roster{"c1": activeRoster("c1", "f1", "s1")},
	}
	sink := &mockSink{}
	engine := newTestEngine(resolver, sink)

	owner := engine.Decide(context.Background(), &Principal{UserID: "f1", Role: models.RoleFaculty}, ActionUpdate, ResourceDescriptor{Kind: KindMarks, ID: "m1"})
	assert.True(t, owner.Allowed)

	other := engine.Decide(context.Background(), &Principal{UserID: "f2", Role: models.RoleFaculty}, ActionUpdate, ResourceDescriptor{Kind: KindMarks, ID: "m1"})
	assert.False(t, other.Allowed)
	assert.Equal(t, appErrors.ErrCourseOwnership.Code, other.Reason)
	require.Len(t, sink.events, 1)
	assert.Equal(t, appErrors.ErrCourseOwnership.Code, sink.events[0].Reason)
}

func TestDecideFacultyUpdatingCourseRequiresOwnership(t *testing.T) {
	resolver := &mockResolver{rosters: map[string]*models.Roster{"c1": activeRoster("c1", "f1")}}
	engine := newTestEngine(resolver, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "f2", Role: models.RoleFaculty}, ActionUpdate, ResourceDescriptor{Kind: KindCourse, ID: "c1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrCourseOwnership.Code, d.Reason)
}

func TestDecideResourceNotFoundDenies(t *testing.T) {
	engine := newTestEngine(&mockResolver{}, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindMarks, ID: "missing"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrResourceNotFound.Code, d.Reason)
}

func TestDecideResolverTimeoutDenies(t *testing.T) {
	engine := newTestEngine(&mockResolver{err: context.DeadlineExceeded}, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindMarks, ID: "m1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrResolverTimeout.Code, d.Reason)
}

func TestDecideNoMatchingRuleFailsClosed(t *testing.T) {
	engine := newTestEngine(&mockResolver{}, &mockSink{})

	// Approve on courses is not a declared rule.
	d := engine.Decide(context.Background(), &Principal{UserID: "f1", Role: models.RoleFaculty}, ActionApprove, ResourceDescriptor{Kind: KindCourse, ID: "c1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, appErrors.ErrNoMatchingRule.Code, d.Reason)
}

func TestDecideIdempotent(t *testing.T) {
	resolver := &mockResolver{ownership: map[string]*Ownership{
		"MARKS/m1": {OwnerID: "s1", CourseID: "c1"},
	}}
	engine := newTestEngine(resolver, &mockSink{})
	principal := &Principal{UserID: "s2", Role: models.RoleStudent}
	resource := ResourceDescriptor{Kind: KindMarks, ID: "m1"}

	first := engine.Decide(context.Background(), principal, ActionRead, resource)
	second := engine.Decide(context.Background(), principal, ActionRead, resource)
	assert.Equal(t, first, second)
}

func TestDecideGlobalNoticeReadableByStudents(t *testing.T) {
	resolver := &mockResolver{ownership: map[string]*Ownership{
		"NOTICE/n1": {OwnerID: "adm", CourseID: ""},
	}}
	engine := newTestEngine(resolver, &mockSink{})

	d := engine.Decide(context.Background(), &Principal{UserID: "s1", Role: models.RoleStudent}, ActionRead, ResourceDescriptor{Kind: KindNotice, ID: "n1"})
	assert.True(t, d.Allowed)
}

func TestDenyError(t *testing.T) {
	assert.Nil(t, DenyError(Allow()))

	err := DenyError(Deny(appErrors.ErrCourseAccessDenied.Code))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseAccessDenied.Code, appErrors.FromError(err).Code)
}
