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
	"github.com/campuskit/arp-api/internal/submission"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	UpdateDeadline(ctx context.Context, assignmentID string, deadline time.Time,
		recompute func(deadline time.Time, submissions []models.Submission) []models.Submission) error
	Delete(ctx context.Context, id string) error
}

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID, studentID string) ([]models.Submission, error)
	CreateSerialized(ctx context.Context, assignmentID, studentID string,
		build func(assignment *models.Assignment, existing []models.Submission) (*models.Submission, error)) (*models.Submission, error)
}

type submissionCapObserver interface {
	ObserveSubmissionCapRejection()
}

// AssignmentService manages assignments and their submissions.
type AssignmentService struct {
	assignments assignmentRepository
	submissions submissionRepository
	metrics     submissionCapObserver
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignments assignmentRepository, submissions submissionRepository, metrics submissionCapObserver, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{
		assignments: assignments,
		submissions: submissions,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create publishes a new assignment to a course.
func (s *AssignmentService) Create(ctx context.Context, createdBy string, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	now := s.now()
	assignment := &models.Assignment{
		ID:             uuid.NewString(),
		CourseID:       req.CourseID,
		Title:          req.Title,
		Description:    req.Description,
		Deadline:       req.Deadline,
		MaxSubmissions: req.MaxSubmissions,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// ListByCourse returns all assignments of a course.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// UpdateDeadline moves the deadline and, in the same transaction, recomputes
// every existing submission's lateness flag against the new value.
func (s *AssignmentService) UpdateDeadline(ctx context.Context, assignmentID string, req models.UpdateDeadlineRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}

	if err := s.assignments.UpdateDeadline(ctx, assignmentID, req.Deadline, submission.RecomputeLateness); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deadline")
	}

	return s.Get(ctx, assignmentID)
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrResourceNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// Submit records one submission attempt. The sequence number and lateness are
// assigned under the store's serialization so the per-assignment cap holds
// under concurrent attempts.
func (s *AssignmentService) Submit(ctx context.Context, assignmentID, studentID string, req models.CreateSubmissionRequest) (*models.Submission, error) {
	now := s.now()
	created, err := s.submissions.CreateSerialized(ctx, assignmentID, studentID,
		func(assignment *models.Assignment, existing []models.Submission) (*models.Submission, error) {
			next, err := submission.Evaluate(assignment, studentID, existing, now)
			if err != nil {
				return nil, err
			}
			next.ID = uuid.NewString()
			next.FileURL = req.FileURL
			next.CreatedAt = now
			return next, nil
		})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrMaxSubmissions.Code {
			if s.metrics != nil {
				s.metrics.ObserveSubmissionCapRejection()
			}
			return nil, err
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}

	if created.IsLate {
		s.logger.Info("late submission recorded",
			zap.String("assignment_id", assignmentID),
			zap.String("student_id", studentID),
			zap.Int("submission_number", created.SubmissionNumber))
	}
	return created, nil
}

// GetSubmission returns one submission.
func (s *AssignmentService) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// Submissions lists submissions of an assignment, optionally scoped to one
// student.
func (s *AssignmentService) Submissions(ctx context.Context, assignmentID, studentID string) ([]models.Submission, error) {
	subs, err := s.submissions.ListByAssignment(ctx, assignmentID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return subs, nil
}
