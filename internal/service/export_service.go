package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/attendance"
	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/export"
)

// ExportFormat selects the report card rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportMarksSource interface {
	GradedRecords(ctx context.Context, studentID string) ([]models.Marks, error)
}

type exportAttendanceSource interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
}

type exportUserSource interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type exportCourseSource interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type cgpaSource interface {
	CGPA(ctx context.Context, studentID string) (*models.CGPAView, error)
}

// ExportResult carries rendered report bytes with transport metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders student report cards.
type ExportService struct {
	marks       exportMarksSource
	attendances exportAttendanceSource
	users       exportUserSource
	courses     exportCourseSource
	cgpa        cgpaSource
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs an ExportService instance.
func NewExportService(marks exportMarksSource, attendances exportAttendanceSource, users exportUserSource, courses exportCourseSource, cgpa cgpaSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		marks:       marks,
		attendances: attendances,
		users:       users,
		courses:     courses,
		cgpa:        cgpa,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// ReportCard renders one student's finalized grades, attendance and CGPA.
func (s *ExportService) ReportCard(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "student not found")
	}

	records, err := s.marks.GradedRecords(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded records")
	}

	attendances, err := s.attendances.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	attendanceByCourse := make(map[string]models.Attendance, len(attendances))
	for _, a := range attendances {
		attendanceByCourse[a.CourseID] = a
	}

	view, err := s.cgpa.CGPA(ctx, studentID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Course", "Total", "Percentage", "Letter", "Grade Point", "Credits", "Attendance %"}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		courseName := rec.CourseID
		if course, err := s.courses.FindByID(ctx, rec.CourseID); err == nil {
			courseName = fmt.Sprintf("%s %s", course.Code, course.Name)
		}

		attendanceCell := "-"
		if a, ok := attendanceByCourse[rec.CourseID]; ok {
			if pct, err := attendance.Percentage(a.AttendedClasses, a.TotalClasses); err == nil {
				attendanceCell = strconv.FormatFloat(pct, 'f', 1, 64)
			}
		}

		rows = append(rows, map[string]string{
			"Course":       courseName,
			"Total":        strconv.FormatFloat(rec.Total, 'f', 2, 64),
			"Percentage":   strconv.FormatFloat(rec.Percentage, 'f', 2, 64),
			"Letter":       rec.Letter,
			"Grade Point":  strconv.FormatFloat(rec.GradePoint, 'f', 1, 64),
			"Credits":      strconv.Itoa(rec.Credits),
			"Attendance %": attendanceCell,
		})
	}

	dataset := export.Dataset{
		Summary: []export.SummaryItem{
			{Label: "Student", Value: student.FullName},
			{Label: "Email", Value: student.Email},
			{Label: "CGPA", Value: strconv.FormatFloat(view.CGPA, 'f', 2, 64)},
			{Label: "Credits", Value: strconv.Itoa(view.Credits)},
			{Label: "Generated", Value: time.Now().UTC().Format(time.RFC3339)},
		},
		Headers: headers,
		Rows:    rows,
	}

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("report-card-%s.csv", studentID),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Report Card - %s", student.FullName))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("report-card-%s.pdf", studentID),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
