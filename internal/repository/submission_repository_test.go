package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/submission"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreateSerialized(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	now := deadline.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, course_id, title, description, deadline, max_submissions, created_by, created_at, updated_at\\s+FROM assignments WHERE id = \\$1 FOR UPDATE").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "title", "description", "deadline", "max_submissions", "created_by", "created_at", "updated_at"}).
			AddRow("a1", "c1", "Essay", nil, deadline, 3, "f1", now, now))
	mock.ExpectQuery("SELECT id, assignment_id, student_id, submission_number, file_url, submitted_at, is_late, created_at FROM submissions WHERE assignment_id = \\$1 AND student_id = \\$2").
		WithArgs("a1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "submission_number", "file_url", "submitted_at", "is_late", "created_at"}))
	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sub, err := repo.CreateSerialized(context.Background(), "a1", "s1",
		func(assignment *models.Assignment, existing []models.Submission) (*models.Submission, error) {
			return submission.Evaluate(assignment, "s1", existing, now)
		})
	require.NoError(t, err)
	require.Equal(t, 1, sub.SubmissionNumber)
	require.False(t, sub.IsLate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateSerializedCapAbortsWithoutInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	now := deadline.Add(-time.Hour)

	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "submission_number", "file_url", "submitted_at", "is_late", "created_at"})
	for i := 1; i <= 3; i++ {
		rows.AddRow(string(rune('0'+i)), "a1", "s1", i, nil, now, false, now)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM assignments WHERE id = \\$1 FOR UPDATE").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "title", "description", "deadline", "max_submissions", "created_by", "created_at", "updated_at"}).
			AddRow("a1", "c1", "Essay", nil, deadline, 3, "f1", now, now))
	mock.ExpectQuery("FROM submissions WHERE assignment_id = \\$1 AND student_id = \\$2").
		WithArgs("a1", "s1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := repo.CreateSerialized(context.Background(), "a1", "s1",
		func(assignment *models.Assignment, existing []models.Submission) (*models.Submission, error) {
			return submission.Evaluate(assignment, "s1", existing, now)
		})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateDeadlineRecomputesLateness(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	oldDeadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	newDeadline := oldDeadline.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET deadline = $1, updated_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM submissions WHERE assignment_id = \\$1 FOR UPDATE").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "submission_number", "file_url", "submitted_at", "is_late", "created_at"}).
			AddRow("sub1", "a1", "s1", 1, nil, oldDeadline.Add(time.Hour), true, oldDeadline))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET is_late = $1 WHERE id = $2")).
		WithArgs(false, "sub1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateDeadline(context.Background(), "a1", newDeadline, submission.RecomputeLateness)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
