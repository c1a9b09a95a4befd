package models

import "time"

// Notice is an announcement, either global (CourseID nil, admin-owned) or
// scoped to a course (instructor-owned).
type Notice struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	CourseID  *string   `db:"course_id" json:"course_id,omitempty"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateNoticeRequest is the payload for publishing a notice. CourseID nil
// means a global notice.
type CreateNoticeRequest struct {
	Title    string  `json:"title" validate:"required"`
	Body     string  `json:"body" validate:"required"`
	CourseID *string `json:"course_id,omitempty" validate:"omitempty,uuid"`
}

// NoticeFilter defines listing filters for notices.
type NoticeFilter struct {
	CourseID   string
	GlobalOnly bool
	Page       int
	PageSize   int
}
