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

// CourseRepository handles persistence for courses and roster membership.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, code, name, description, instructor_id, credits, capacity, created_at, updated_at"

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, name, description, instructor_id, credits, capacity, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :instructor_id, :credits, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// FindByID fetches one course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses matching filters with pagination metadata.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "name": true, "credits": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", courseColumns, base, sortBy, order, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Update persists mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, name = :name, description = :description,
        credits = :credits, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Enroll upserts a (student, course) membership back to ACTIVE. Re-enrolling
// a dropped student reactivates the original row.
func (r *CourseRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	enrollment.Status = models.EnrollmentActive
	const query = `INSERT INTO enrollments (id, course_id, student_id, status, created_at, updated_at)
        VALUES (:id, :course_id, :student_id, :status, :created_at, :updated_at)
        ON CONFLICT (course_id, student_id)
        DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// SetEnrollmentStatus transitions membership (drop/complete).
func (r *CourseRepository) SetEnrollmentStatus(ctx context.Context, courseID, studentID string, status models.EnrollmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE enrollments SET status = $1, updated_at = $2 WHERE course_id = $3 AND student_id = $4",
		status, time.Now().UTC(), courseID, studentID)
	if err != nil {
		return fmt.Errorf("set enrollment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// ListEnrollments returns the roster rows for a course.
func (r *CourseRepository) ListEnrollments(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	const query = `SELECT id, course_id, student_id, status, created_at, updated_at
        FROM enrollments WHERE course_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveByStudent returns a student's active enrollments.
func (r *CourseRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	const query = `SELECT id, course_id, student_id, status, created_at, updated_at
        FROM enrollments WHERE student_id = $1 AND status = $2 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentActive); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Roster builds the membership view used for access decisions: the course
// instructor plus the set of currently ACTIVE student ids.
func (r *CourseRepository) Roster(ctx context.Context, courseID string) (*models.Roster, error) {
	var instructorID string
	if err := r.db.GetContext(ctx, &instructorID, "SELECT instructor_id FROM courses WHERE id = $1", courseID); err != nil {
		return nil, err
	}

	var studentIDs []string
	const query = "SELECT student_id FROM enrollments WHERE course_id = $1 AND status = $2"
	if err := r.db.SelectContext(ctx, &studentIDs, query, courseID, models.EnrollmentActive); err != nil {
		return nil, fmt.Errorf("load roster members: %w", err)
	}

	active := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		active[id] = struct{}{}
	}
	return &models.Roster{CourseID: courseID, InstructorID: instructorID, ActiveStudents: active}, nil
}
