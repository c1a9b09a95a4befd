// Package submission enforces per-assignment submission limits and lateness
// at the moment a submission is recorded. The functions are pure; the write
// path is responsible for running count-then-append atomically against the
// store.
package submission

import (
	"time"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

// Evaluate produces the next submission for a student given the ones already
// recorded for (student, assignment). The sequence number is 1-based and
// capped at the assignment's limit; prior submissions are never touched.
func Evaluate(assignment *models.Assignment, studentID string, existing []models.Submission, now time.Time) (*models.Submission, error) {
	count := 0
	for _, s := range existing {
		if s.StudentID == studentID {
			count++
		}
	}
	if assignment.MaxSubmissions > 0 && count >= assignment.MaxSubmissions {
		return nil, appErrors.ErrMaxSubmissions
	}
	return &models.Submission{
		AssignmentID:     assignment.ID,
		StudentID:        studentID,
		SubmissionNumber: count + 1,
		SubmittedAt:      now,
		IsLate:           now.After(assignment.Deadline),
	}, nil
}

// RecomputeLateness re-evaluates every submission's IsLate flag against a
// deadline. Called when an assignment's deadline is edited after submissions
// exist: an on-time submission can become late and vice versa. Returns the
// submissions whose flag changed.
func RecomputeLateness(deadline time.Time, submissions []models.Submission) []models.Submission {
	var changed []models.Submission
	for i := range submissions {
		late := submissions[i].SubmittedAt.After(deadline)
		if submissions[i].IsLate != late {
			submissions[i].IsLate = late
			changed = append(changed, submissions[i])
		}
	}
	return changed
}
