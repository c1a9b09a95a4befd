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
	"github.com/campuskit/arp-api/internal/repository"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type leaveRepository interface {
	Create(ctx context.Context, leave *models.Leave) error
	FindByID(ctx context.Context, id string) (*models.Leave, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Leave, error)
	ListPending(ctx context.Context) ([]models.Leave, error)
	Review(ctx context.Context, id string, status models.LeaveStatus, reviewerID string) error
}

// LeaveService handles student absence requests and their review.
type LeaveService struct {
	repo      leaveRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs a LeaveService instance.
func NewLeaveService(repo leaveRepository, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{repo: repo, validator: validate, logger: logger}
}

// File creates a pending leave request for the student.
func (s *LeaveService) File(ctx context.Context, studentID string, req models.CreateLeaveRequest) (*models.Leave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if req.ToDate.Before(req.FromDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date precedes from_date")
	}

	now := time.Now().UTC()
	leave := &models.Leave{
		ID:        uuid.NewString(),
		StudentID: studentID,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
		Reason:    req.Reason,
		Status:    models.LeavePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file leave request")
	}
	return leave, nil
}

// Get returns one leave request.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.Leave, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	return leave, nil
}

// ByStudent lists all leave requests of one student.
func (s *LeaveService) ByStudent(ctx context.Context, studentID string) ([]models.Leave, error) {
	leaves, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return leaves, nil
}

// Pending lists all requests awaiting review.
func (s *LeaveService) Pending(ctx context.Context) ([]models.Leave, error) {
	leaves, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending leave requests")
	}
	return leaves, nil
}

// Review resolves a pending request. A request that was already reviewed
// cannot be reviewed again.
func (s *LeaveService) Review(ctx context.Context, id, reviewerID string, req models.ReviewLeaveRequest) (*models.Leave, error) {
	status := models.LeaveRejected
	if req.Approve {
		status = models.LeaveApproved
	}

	if err := s.repo.Review(ctx, id, status, reviewerID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave request is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review leave request")
	}

	s.logger.Info("leave request reviewed",
		zap.String("leave_id", id),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID))
	return s.Get(ctx, id)
}
