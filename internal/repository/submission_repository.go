package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/arp-api/internal/models"
)

// SubmissionRepository handles persistence for assignment submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new repository instance.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = "id, assignment_id, student_id, submission_number, file_url, submitted_at, is_late, created_at"

// FindByID fetches one submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByAssignment returns submissions for an assignment, optionally scoped
// to one student.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID, studentID string) ([]models.Submission, error) {
	var submissions []models.Submission
	if studentID != "" {
		query := fmt.Sprintf("SELECT %s FROM submissions WHERE assignment_id = $1 AND student_id = $2 ORDER BY submission_number", submissionColumns)
		if err := r.db.SelectContext(ctx, &submissions, query, assignmentID, studentID); err != nil {
			return nil, fmt.Errorf("list submissions: %w", err)
		}
		return submissions, nil
	}
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE assignment_id = $1 ORDER BY student_id, submission_number", submissionColumns)
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// CreateSerialized runs count-then-append as one serialized operation: the
// assignment row is locked for the duration of the transaction, so two
// concurrent submissions from the same student cannot both observe a count
// below the cap. The build function applies the pure submission policy to
// the state read under the lock; returning an error aborts without mutation.
func (r *SubmissionRepository) CreateSerialized(ctx context.Context, assignmentID, studentID string,
	build func(assignment *models.Assignment, existing []models.Submission) (*models.Submission, error)) (*models.Submission, error) {

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	var assignment models.Assignment
	const assignmentQuery = `SELECT id, course_id, title, description, deadline, max_submissions, created_by, created_at, updated_at
        FROM assignments WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &assignment, assignmentQuery, assignmentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	var existing []models.Submission
	existingQuery := fmt.Sprintf("SELECT %s FROM submissions WHERE assignment_id = $1 AND student_id = $2 ORDER BY submission_number", submissionColumns)
	if err := tx.SelectContext(ctx, &existing, existingQuery, assignmentID, studentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("load existing submissions: %w", err)
	}

	sub, err := build(&assignment, existing)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = time.Now().UTC()

	const insert = `INSERT INTO submissions (id, assignment_id, student_id, submission_number, file_url, submitted_at, is_late, created_at)
        VALUES (:id, :assignment_id, :student_id, :submission_number, :file_url, :submitted_at, :is_late, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, sub); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}
	return sub, nil
}
