package submission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

func testAssignment(deadline time.Time, max int) *models.Assignment {
	return &models.Assignment{ID: "a1", CourseID: "c1", Deadline: deadline, MaxSubmissions: max}
}

func TestEvaluateFirstSubmission(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	now := deadline.Add(-time.Hour)

	sub, err := Evaluate(testAssignment(deadline, 3), "s1", nil, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.SubmissionNumber)
	assert.False(t, sub.IsLate)
}

func TestEvaluateLate(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	now := deadline.Add(time.Minute)

	sub, err := Evaluate(testAssignment(deadline, 3), "s1", nil, now)
	require.NoError(t, err)
	assert.True(t, sub.IsLate)
}

func TestEvaluateCapExceeded(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	existing := []models.Submission{
		{StudentID: "s1", SubmissionNumber: 1},
		{StudentID: "s1", SubmissionNumber: 2},
		{StudentID: "s1", SubmissionNumber: 3},
	}

	_, err := Evaluate(testAssignment(deadline, 3), "s1", existing, deadline)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMaxSubmissions.Code, appErrors.FromError(err).Code)
	// prior submissions untouched
	for i, s := range existing {
		assert.Equal(t, i+1, s.SubmissionNumber)
	}
}

func TestEvaluateCountsOnlyOwnSubmissions(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	existing := []models.Submission{
		{StudentID: "s2", SubmissionNumber: 1},
		{StudentID: "s2", SubmissionNumber: 2},
		{StudentID: "s1", SubmissionNumber: 1},
	}

	sub, err := Evaluate(testAssignment(deadline, 3), "s1", existing, deadline)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.SubmissionNumber)
}

func TestRecomputeLatenessDeadlineExtended(t *testing.T) {
	oldDeadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	subs := []models.Submission{
		{ID: "1", SubmittedAt: oldDeadline.Add(time.Hour), IsLate: true},
		{ID: "2", SubmittedAt: oldDeadline.Add(-time.Hour), IsLate: false},
	}

	changed := RecomputeLateness(oldDeadline.Add(24*time.Hour), subs)
	require.Len(t, changed, 1)
	assert.Equal(t, "1", changed[0].ID)
	assert.False(t, changed[0].IsLate)
	assert.False(t, subs[0].IsLate)
}

func TestRecomputeLatenessDeadlineMovedEarlier(t *testing.T) {
	oldDeadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	subs := []models.Submission{
		{ID: "1", SubmittedAt: oldDeadline.Add(-time.Hour), IsLate: false},
	}

	changed := RecomputeLateness(oldDeadline.Add(-2*time.Hour), subs)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].IsLate)
}

func TestRecomputeLatenessNoChanges(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	subs := []models.Submission{
		{ID: "1", SubmittedAt: deadline.Add(-time.Hour), IsLate: false},
	}
	assert.Empty(t, RecomputeLateness(deadline, subs))
}
