package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/arp-api/internal/models"
)

// AttendanceRepository handles persistence for attendance counters.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new repository instance.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "id, course_id, student_id, total_classes, attended_classes, updated_by, created_at, updated_at"

// Upsert writes the counters for (course, student).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (id, course_id, student_id, total_classes, attended_classes, updated_by, created_at, updated_at)
        VALUES (:id, :course_id, :student_id, :total_classes, :attended_classes, :updated_by, :created_at, :updated_at)
        ON CONFLICT (course_id, student_id)
        DO UPDATE SET total_classes = EXCLUDED.total_classes, attended_classes = EXCLUDED.attended_classes,
            updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// FindByID fetches one attendance record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	var record models.Attendance
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE id = $1", attendanceColumns)
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByCourseStudent fetches the counters for one (course, student) pair.
func (r *AttendanceRepository) FindByCourseStudent(ctx context.Context, courseID, studentID string) (*models.Attendance, error) {
	var record models.Attendance
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE course_id = $1 AND student_id = $2", attendanceColumns)
	if err := r.db.GetContext(ctx, &record, query, courseID, studentID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCourse returns a course's attendance records.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Attendance, error) {
	var records []models.Attendance
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE course_id = $1 ORDER BY student_id", attendanceColumns)
	if err := r.db.SelectContext(ctx, &records, query, courseID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListByStudent returns a student's attendance across courses.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	var records []models.Attendance
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE student_id = $1 ORDER BY course_id", attendanceColumns)
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}
