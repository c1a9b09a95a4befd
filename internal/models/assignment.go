package models

import "time"

// Assignment is a graded task published to a course.
type Assignment struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Title          string    `db:"title" json:"title"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Deadline       time.Time `db:"deadline" json:"deadline"`
	MaxSubmissions int       `db:"max_submissions" json:"max_submissions"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateAssignmentRequest is the payload for publishing an assignment.
type CreateAssignmentRequest struct {
	CourseID       string    `json:"course_id" validate:"required,uuid"`
	Title          string    `json:"title" validate:"required"`
	Description    *string   `json:"description,omitempty"`
	Deadline       time.Time `json:"deadline" validate:"required"`
	MaxSubmissions int       `json:"max_submissions" validate:"required,min=1"`
}

// UpdateDeadlineRequest moves an assignment deadline. Lateness flags of
// existing submissions are recomputed against the new value.
type UpdateDeadlineRequest struct {
	Deadline time.Time `json:"deadline" validate:"required"`
}

// CreateSubmissionRequest is the payload for one submission attempt.
type CreateSubmissionRequest struct {
	FileURL *string `json:"file_url,omitempty"`
}

// Submission is a 1-based, per (student, assignment) sequenced upload.
type Submission struct {
	ID               string    `db:"id" json:"id"`
	AssignmentID     string    `db:"assignment_id" json:"assignment_id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	SubmissionNumber int       `db:"submission_number" json:"submission_number"`
	FileURL          *string   `db:"file_url" json:"file_url,omitempty"`
	SubmittedAt      time.Time `db:"submitted_at" json:"submitted_at"`
	IsLate           bool      `db:"is_late" json:"is_late"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
