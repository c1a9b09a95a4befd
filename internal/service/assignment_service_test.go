package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[string]models.Assignment
	submissions *mockSubmissionRepo
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.assignments == nil {
		m.assignments = make(map[string]models.Assignment)
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &assignment, nil
}

func (m *mockAssignmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, a := range m.assignments {
		if a.CourseID == courseID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return sql.ErrNoRows
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *mockAssignmentRepo) UpdateDeadline(ctx context.Context, assignmentID string, deadline time.Time,
	recompute func(deadline time.Time, submissions []models.Submission) []models.Submission) error {
	assignment, ok := m.assignments[assignmentID]
	if !ok {
		return sql.ErrNoRows
	}
	assignment.Deadline = deadline
	m.assignments[assignmentID] = assignment

	if m.submissions != nil {
		var all []models.Submission
		for _, s := range m.submissions.store[assignmentID] {
			all = append(all, s)
		}
		for _, changed := range recompute(deadline, all) {
			for i, s := range m.submissions.store[assignmentID] {
				if s.ID == changed.ID {
					m.submissions.store[assignmentID][i] = changed
				}
			}
		}
	}
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.assignments, id)
	return nil
}

type mockSubmissionRepo struct {
	assignments *mockAssignmentRepo
	store       map[string][]models.Submission
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	for _, subs := range m.store {
		for _, s := range subs {
			if s.ID == id {
				copied := s
				return &copied, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID, studentID string) ([]models.Submission, error) {
	var result []models.Submission
	for _, s := range m.store[assignmentID] {
		if studentID != "" && s.StudentID != studentID {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockSubmissionRepo) CreateSerialized(ctx context.Context, assignmentID, studentID string,
	build func(assignment *models.Assignment, existing []models.Submission) (*models.Submission, error)) (*models.Submission, error) {
	assignment, err := m.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	created, err := build(assignment, m.store[assignmentID])
	if err != nil {
		return nil, err
	}
	if m.store == nil {
		m.store = make(map[string][]models.Submission)
	}
	m.store[assignmentID] = append(m.store[assignmentID], *created)
	return created, nil
}

type countingCapObserver struct {
	rejections int
}

func (c *countingCapObserver) ObserveSubmissionCapRejection() { c.rejections++ }

func newAssignmentFixture(t *testing.T, deadline time.Time, maxSubmissions int) (*AssignmentService, *mockAssignmentRepo, *countingCapObserver, string) {
	t.Helper()
	assignments := &mockAssignmentRepo{}
	submissions := &mockSubmissionRepo{assignments: assignments}
	assignments.submissions = submissions
	observer := &countingCapObserver{}
	svc := NewAssignmentService(assignments, submissions, observer, nil, nil)

	created, err := svc.Create(context.Background(), "faculty-1", models.CreateAssignmentRequest{
		CourseID:       "11111111-1111-1111-1111-111111111111",
		Title:          "Problem set 1",
		Deadline:       deadline,
		MaxSubmissions: maxSubmissions,
	})
	require.NoError(t, err)
	return svc, assignments, observer, created.ID
}

func TestAssignmentServiceSubmitSequencesPerStudent(t *testing.T) {
	deadline := time.Now().UTC().Add(24 * time.Hour)
	svc, _, _, assignmentID := newAssignmentFixture(t, deadline, 3)

	first, err := svc.Submit(context.Background(), assignmentID, "alice", models.CreateSubmissionRequest{})
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), assignmentID, "alice", models.CreateSubmissionRequest{})
	require.NoError(t, err)
	other, err := svc.Submit(context.Background(), assignmentID, "bob", models.CreateSubmissionRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, first.SubmissionNumber)
	assert.Equal(t, 2, second.SubmissionNumber)
	assert.Equal(t, 1, other.SubmissionNumber, "sequence is per student")
	assert.False(t, first.IsLate)
}

func TestAssignmentServiceSubmitEnforcesCap(t *testing.T) {
	deadline := time.Now().UTC().Add(24 * time.Hour)
	svc, _, observer, assignmentID := newAssignmentFixture(t, deadline, 1)

	_, err := svc.Submit(context.Background(), assignmentID, "alice", models.CreateSubmissionRequest{})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), assignmentID, "alice", models.CreateSubmissionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMaxSubmissions.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, observer.rejections)

	subs, err := svc.Submissions(context.Background(), assignmentID, "alice")
	require.NoError(t, err)
	assert.Len(t, subs, 1, "rejected attempt must not be stored")
}

func TestAssignmentServiceSubmitAfterDeadlineIsLate(t *testing.T) {
	deadline := time.Now().UTC().Add(-time.Hour)
	svc, _, _, assignmentID := newAssignmentFixture(t, deadline, 3)

	sub, err := svc.Submit(context.Background(), assignmentID, "alice", models.CreateSubmissionRequest{})
	require.NoError(t, err)
	assert.True(t, sub.IsLate)
}

func TestAssignmentServiceDeadlineEditRecomputesLateness(t *testing.T) {
	deadline := time.Now().UTC().Add(time.Hour)
	svc, _, _, assignmentID := newAssignmentFixture(t, deadline, 3)

	sub, err := svc.Submit(context.Background(), assignmentID, "alice", models.CreateSubmissionRequest{})
	require.NoError(t, err)
	require.False(t, sub.IsLate)

	// Moving the deadline before the submission flips it to late.
	_, err = svc.UpdateDeadline(context.Background(), assignmentID, models.UpdateDeadlineRequest{
		Deadline: sub.SubmittedAt.Add(-time.Minute),
	})
	require.NoError(t, err)

	stored, err := svc.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLate)

	// Moving it back past the submission flips it on time again.
	_, err = svc.UpdateDeadline(context.Background(), assignmentID, models.UpdateDeadlineRequest{
		Deadline: sub.SubmittedAt.Add(time.Minute),
	})
	require.NoError(t, err)

	stored, err = svc.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLate)
}

func TestAssignmentServiceSubmitUnknownAssignment(t *testing.T) {
	deadline := time.Now().UTC().Add(time.Hour)
	svc, _, _, _ := newAssignmentFixture(t, deadline, 3)

	_, err := svc.Submit(context.Background(), "missing", "alice", models.CreateSubmissionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrResourceNotFound.Code, appErrors.FromError(err).Code)
}
