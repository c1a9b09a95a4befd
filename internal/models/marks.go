package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScoreComponents maps a component name (test1, presentation, ...) to the
// awarded value. Stored as JSONB.
type ScoreComponents map[string]float64

// Value implements driver.Valuer.
func (s ScoreComponents) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *ScoreComponents) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ScoreComponents{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported score components type %T", src)
	}
}

// Marks is one student's graded record for a course. Raw component scores are
// the source of truth; total, letter and grade point are derived on finalize.
type Marks struct {
	ID         string          `db:"id" json:"id"`
	CourseID   string          `db:"course_id" json:"course_id"`
	StudentID  string          `db:"student_id" json:"student_id"`
	Components ScoreComponents `db:"components" json:"components"`
	Maxima     ScoreComponents `db:"maxima" json:"maxima"`
	Total      float64         `db:"total" json:"total"`
	Percentage float64         `db:"percentage" json:"percentage"`
	Letter     string          `db:"letter" json:"letter"`
	GradePoint float64         `db:"grade_point" json:"grade_point"`
	Credits    int             `db:"credits" json:"credits"`
	Finalized  bool            `db:"finalized" json:"finalized"`
	RecordedBy string          `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// UpsertMarksRequest carries raw component scores for one student in one
// course. Maxima declare the per-component upper bounds.
type UpsertMarksRequest struct {
	StudentID  string          `json:"student_id" validate:"required,uuid"`
	Components ScoreComponents `json:"components" validate:"required"`
	Maxima     ScoreComponents `json:"maxima" validate:"required"`
}

// MarksFilter defines listing filters for marks records.
type MarksFilter struct {
	CourseID  string
	StudentID string
	Finalized *bool
}

// CGPAView is the derived, cacheable CGPA snapshot for a student.
type CGPAView struct {
	StudentID  string    `json:"student_id"`
	CGPA       float64   `json:"cgpa"`
	Credits    int       `json:"credits"`
	ComputedAt time.Time `json:"computed_at"`
}
