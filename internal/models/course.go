package models

import "time"

// Course represents a taught course owned by a faculty instructor.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Credits      int       `db:"credits" json:"credits"`
	Capacity     int       `db:"capacity" json:"capacity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines listing filters for courses.
type CourseFilter struct {
	InstructorID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Code         string  `json:"code" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  *string `json:"description,omitempty"`
	InstructorID string  `json:"instructor_id" validate:"required,uuid"`
	Credits      int     `json:"credits" validate:"required,min=1,max=10"`
	Capacity     int     `json:"capacity" validate:"required,min=1"`
}

// UpdateCourseRequest carries the mutable course fields.
type UpdateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Credits     int     `json:"credits" validate:"required,min=1,max=10"`
	Capacity    int     `json:"capacity" validate:"required,min=1"`
}

// EnrollRequest adds a student to a course roster.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

// EnrollmentStatus is the roster membership state of a student in a course.
// Only ACTIVE members have course-scoped access.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment is one (student, course) roster row.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Roster is the course membership view used for access decisions.
type Roster struct {
	CourseID     string
	InstructorID string
	// ActiveStudents holds ids of students whose membership status is ACTIVE.
	ActiveStudents map[string]struct{}
}

// IsActiveMember reports whether the student currently belongs to the roster.
func (r *Roster) IsActiveMember(studentID string) bool {
	if r == nil {
		return false
	}
	_, ok := r.ActiveStudents[studentID]
	return ok
}
