package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	SetEnrollmentStatus(ctx context.Context, courseID, studentID string, status models.EnrollmentStatus) error
	ListEnrollments(ctx context.Context, courseID string) ([]models.Enrollment, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type courseInstructorLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// rosterInvalidator drops cached roster facts after membership writes so
// access decisions never run on a stale roster.
type rosterInvalidator interface {
	InvalidateRoster(ctx context.Context, courseID string)
}

// CourseService manages courses and roster membership.
type CourseService struct {
	repo      courseRepository
	users     courseInstructorLookup
	rosters   rosterInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(repo courseRepository, users courseInstructorLookup, rosters rosterInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, users: users, rosters: rosters, validator: validate, logger: logger}
}

// Create registers a new course owned by a faculty instructor.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	instructor, err := s.users.FindByID(ctx, req.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor.Role != models.RoleFaculty {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor must be a faculty account")
	}
	if instructor.Status != models.UserStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor account is not active")
	}

	now := time.Now().UTC()
	course := &models.Course{
		ID:           uuid.NewString(),
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		InstructorID: req.InstructorID,
		Credits:      req.Credits,
		Capacity:     req.Capacity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Get returns one course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns courses matching the filter with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Update changes the mutable course fields.
func (s *CourseService) Update(ctx context.Context, id string, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Name = req.Name
	course.Description = req.Description
	course.Credits = req.Credits
	course.Capacity = req.Capacity
	course.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.rosters.InvalidateRoster(ctx, id)
	return nil
}

// Enroll adds a student to the course roster with ACTIVE status. Re-enrolling
// a previously dropped student reactivates the existing row.
func (s *CourseService) Enroll(ctx context.Context, courseID string, req models.EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only student accounts can be enrolled")
	}

	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		StudentID: req.StudentID,
		Status:    models.EnrollmentActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}

	s.rosters.InvalidateRoster(ctx, courseID)
	s.logger.Info("student enrolled",
		zap.String("course_id", courseID),
		zap.String("student_id", req.StudentID))
	return enrollment, nil
}

// SetMembership moves a roster row to DROPPED or COMPLETED. Either way the
// student loses course-scoped access.
func (s *CourseService) SetMembership(ctx context.Context, courseID, studentID string, status models.EnrollmentStatus) error {
	switch status {
	case models.EnrollmentActive, models.EnrollmentDropped, models.EnrollmentCompleted:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status")
	}

	if err := s.repo.SetEnrollmentStatus(ctx, courseID, studentID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrResourceNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.rosters.InvalidateRoster(ctx, courseID)
	return nil
}

// Enrollments lists the roster rows of a course.
func (s *CourseService) Enrollments(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	rows, err := s.repo.ListEnrollments(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return rows, nil
}

// ActiveCoursesOf lists course ids the student actively belongs to. Used to
// scope notice visibility and "my courses" listings.
func (s *CourseService) ActiveCoursesOf(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	rows, err := s.repo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active enrollments")
	}
	return rows, nil
}
