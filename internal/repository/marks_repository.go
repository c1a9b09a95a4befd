package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/arp-api/internal/models"
)

// MarksRepository handles persistence for graded records.
type MarksRepository struct {
	db *sqlx.DB
}

// NewMarksRepository creates a new repository instance.
func NewMarksRepository(db *sqlx.DB) *MarksRepository {
	return &MarksRepository{db: db}
}

const marksColumns = "id, course_id, student_id, components, maxima, total, percentage, letter, grade_point, credits, finalized, recorded_by, created_at, updated_at"

// Upsert inserts or replaces the component scores for (course, student).
// Finalized records are never overwritten.
func (r *MarksRepository) Upsert(ctx context.Context, marks *models.Marks) error {
	if marks.ID == "" {
		marks.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	marks.CreatedAt = now
	marks.UpdatedAt = now
	const query = `INSERT INTO marks (id, course_id, student_id, components, maxima, total, percentage, letter, grade_point, credits, finalized, recorded_by, created_at, updated_at)
        VALUES (:id, :course_id, :student_id, :components, :maxima, :total, :percentage, :letter, :grade_point, :credits, :finalized, :recorded_by, :created_at, :updated_at)
        ON CONFLICT (course_id, student_id) WHERE NOT finalized
        DO UPDATE SET components = EXCLUDED.components, maxima = EXCLUDED.maxima, total = EXCLUDED.total,
            percentage = EXCLUDED.percentage, letter = EXCLUDED.letter, grade_point = EXCLUDED.grade_point,
            credits = EXCLUDED.credits, recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, marks); err != nil {
		return fmt.Errorf("upsert marks: %w", err)
	}
	return nil
}

// FindByID fetches one marks record.
func (r *MarksRepository) FindByID(ctx context.Context, id string) (*models.Marks, error) {
	var marks models.Marks
	query := fmt.Sprintf("SELECT %s FROM marks WHERE id = $1", marksColumns)
	if err := r.db.GetContext(ctx, &marks, query, id); err != nil {
		return nil, err
	}
	return &marks, nil
}

// List returns marks records matching the filter.
func (r *MarksRepository) List(ctx context.Context, filter models.MarksFilter) ([]models.Marks, error) {
	base := fmt.Sprintf("SELECT %s FROM marks WHERE 1=1", marksColumns)
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Finalized != nil {
		conditions = append(conditions, fmt.Sprintf("finalized = $%d", len(args)+1))
		args = append(args, *filter.Finalized)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY created_at"

	var records []models.Marks
	if err := r.db.SelectContext(ctx, &records, base, args...); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return records, nil
}

// Finalize locks a record with its derived grade fields.
func (r *MarksRepository) Finalize(ctx context.Context, marks *models.Marks) error {
	marks.UpdatedAt = time.Now().UTC()
	marks.Finalized = true
	const query = `UPDATE marks SET total = :total, percentage = :percentage, letter = :letter,
        grade_point = :grade_point, finalized = :finalized, updated_at = :updated_at
        WHERE id = :id AND NOT finalized`
	res, err := r.db.NamedExecContext(ctx, query, marks)
	if err != nil {
		return fmt.Errorf("finalize marks: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// GradedRecords reads, in one statement, the consistent snapshot of a
// student's finalized grade points and credits that CGPA recomputation needs.
func (r *MarksRepository) GradedRecords(ctx context.Context, studentID string) ([]models.Marks, error) {
	var records []models.Marks
	query := fmt.Sprintf("SELECT %s FROM marks WHERE student_id = $1 AND finalized ORDER BY created_at", marksColumns)
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("load graded records: %w", err)
	}
	return records, nil
}

// Delete removes a non-finalized marks record.
func (r *MarksRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM marks WHERE id = $1 AND NOT finalized", id)
	if err != nil {
		return fmt.Errorf("delete marks: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
