package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/attendance"
	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) error
	FindByCourseStudent(ctx context.Context, courseID, studentID string) (*models.Attendance, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
}

// AttendanceService maintains raw class counters and serves derived views.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger}
}

// Upsert sets the counters for one student in one course. Only the raw
// counters are stored; percentage and status are derived on read.
func (s *AttendanceService) Upsert(ctx context.Context, courseID, updatedBy string, req models.UpsertAttendanceRequest) (*models.AttendanceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	// Validates the counter invariant before anything is stored.
	if _, err := attendance.Percentage(req.AttendedClasses, req.TotalClasses); err != nil {
		return nil, err
	}

	record := &models.Attendance{
		CourseID:        courseID,
		StudentID:       req.StudentID,
		TotalClasses:    req.TotalClasses,
		AttendedClasses: req.AttendedClasses,
		UpdatedBy:       updatedBy,
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance")
	}
	return s.view(record)
}

// Of returns the derived view for one (course, student) pair.
func (s *AttendanceService) Of(ctx context.Context, courseID, studentID string) (*models.AttendanceView, error) {
	record, err := s.repo.FindByCourseStudent(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return s.view(record)
}

// ByCourse returns the derived views for every student in a course.
func (s *AttendanceService) ByCourse(ctx context.Context, courseID string) ([]models.AttendanceView, error) {
	records, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return s.views(records)
}

// ByStudent returns the derived views across all of a student's courses.
func (s *AttendanceService) ByStudent(ctx context.Context, studentID string) ([]models.AttendanceView, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return s.views(records)
}

func (s *AttendanceService) view(record *models.Attendance) (*models.AttendanceView, error) {
	pct, err := attendance.Percentage(record.AttendedClasses, record.TotalClasses)
	if err != nil {
		return nil, err
	}
	return &models.AttendanceView{
		Attendance: *record,
		Percentage: pct,
		Status:     attendance.Classify(pct),
	}, nil
}

func (s *AttendanceService) views(records []models.Attendance) ([]models.AttendanceView, error) {
	views := make([]models.AttendanceView, 0, len(records))
	for i := range records {
		v, err := s.view(&records[i])
		if err != nil {
			// A stored record violating the counter invariant is a data bug;
			// skip it rather than failing the whole listing.
			s.logger.Error("invalid attendance counters in store",
				zap.String("record_id", records[i].ID),
				zap.Error(err))
			continue
		}
		views = append(views, *v)
	}
	return views, nil
}
