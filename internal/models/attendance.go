package models

import "time"

// Attendance holds the raw class counters for one (student, course) pair.
// Invariant: 0 <= AttendedClasses <= TotalClasses.
type Attendance struct {
	ID              string    `db:"id" json:"id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	TotalClasses    int       `db:"total_classes" json:"total_classes"`
	AttendedClasses int       `db:"attended_classes" json:"attended_classes"`
	UpdatedBy       string    `db:"updated_by" json:"updated_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UpsertAttendanceRequest sets the raw counters for one student in one course.
type UpsertAttendanceRequest struct {
	StudentID       string `json:"student_id" validate:"required,uuid"`
	TotalClasses    int    `json:"total_classes" validate:"min=0"`
	AttendedClasses int    `json:"attended_classes" validate:"min=0"`
}

// AttendanceView decorates a record with the derived percentage and status.
type AttendanceView struct {
	Attendance
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}
