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

type noticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	ListVisible(ctx context.Context, courseIDs []string) ([]models.Notice, error)
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id string) error
}

type noticeEnrollmentLookup interface {
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

// NoticeService publishes global and course-scoped announcements.
type NoticeService struct {
	repo      noticeRepository
	courses   noticeEnrollmentLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs a NoticeService instance.
func NewNoticeService(repo noticeRepository, courses noticeEnrollmentLookup, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NoticeService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Create publishes a notice. A nil CourseID makes a global notice.
func (s *NoticeService) Create(ctx context.Context, createdBy string, req models.CreateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	now := time.Now().UTC()
	notice := &models.Notice{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Body:      req.Body,
		CourseID:  req.CourseID,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}
	return notice, nil
}

// Get returns one notice.
func (s *NoticeService) Get(ctx context.Context, id string) (*models.Notice, error) {
	notice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	return notice, nil
}

// VisibleTo lists the notices a principal may see: global notices always,
// plus course notices for the courses the principal belongs to. Admins see
// everything.
func (s *NoticeService) VisibleTo(ctx context.Context, principalID string, role models.UserRole) ([]models.Notice, error) {
	var courseIDs []string

	switch role {
	case models.RoleAdmin:
		return s.listAll(ctx)
	case models.RoleFaculty:
		taught, _, err := s.courses.List(ctx, models.CourseFilter{InstructorID: principalID, Page: 1, PageSize: 100})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list taught courses")
		}
		for _, c := range taught {
			courseIDs = append(courseIDs, c.ID)
		}
	case models.RoleStudent:
		enrollments, err := s.courses.ListActiveByStudent(ctx, principalID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
		}
		for _, e := range enrollments {
			courseIDs = append(courseIDs, e.CourseID)
		}
	}

	notices, err := s.repo.ListVisible(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

func (s *NoticeService) listAll(ctx context.Context) ([]models.Notice, error) {
	courses, _, err := s.courses.List(ctx, models.CourseFilter{Page: 1, PageSize: 1000})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	notices, err := s.repo.ListVisible(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// Update edits a notice's title and body. Scope changes are not supported;
// repost instead of moving a notice between audiences.
func (s *NoticeService) Update(ctx context.Context, id string, req models.CreateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	notice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	notice.Title = req.Title
	notice.Body = req.Body
	notice.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}
	return notice, nil
}

// Delete removes a notice.
func (s *NoticeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrResourceNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	return nil
}
