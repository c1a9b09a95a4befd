package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/arp-api/internal/models"
)

// AssignmentRepository handles persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new repository instance.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = "id, course_id, title, description, deadline, max_submissions, created_by, created_at, updated_at"

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, course_id, title, description, deadline, max_submissions, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :deadline, :max_submissions, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// FindByID fetches one assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentColumns)
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByCourse returns a course's assignments.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE course_id = $1 ORDER BY deadline", assignmentColumns)
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// Update persists mutable assignment fields other than the deadline.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description,
        max_submissions = :max_submissions, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// UpdateDeadline moves the deadline and re-evaluates every existing
// submission's lateness in the same transaction, so readers never observe a
// deadline inconsistent with the stored flags. The recompute function is the
// pure lateness rule; it returns only the submissions whose flag changed.
func (r *AssignmentRepository) UpdateDeadline(ctx context.Context, assignmentID string, deadline time.Time,
	recompute func(deadline time.Time, submissions []models.Submission) []models.Submission) error {

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE assignments SET deadline = $1, updated_at = $2 WHERE id = $3",
		deadline, time.Now().UTC(), assignmentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update deadline: %w", err)
	}

	var submissions []models.Submission
	const query = `SELECT id, assignment_id, student_id, submission_number, file_url, submitted_at, is_late, created_at
        FROM submissions WHERE assignment_id = $1 FOR UPDATE`
	if err := tx.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("load submissions for recompute: %w", err)
	}

	for _, changed := range recompute(deadline, submissions) {
		if _, err := tx.ExecContext(ctx,
			"UPDATE submissions SET is_late = $1 WHERE id = $2", changed.IsLate, changed.ID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update submission lateness: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deadline update: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
