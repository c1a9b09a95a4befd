package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/grading"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/repository"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type marksRepository interface {
	Upsert(ctx context.Context, marks *models.Marks) error
	FindByID(ctx context.Context, id string) (*models.Marks, error)
	List(ctx context.Context, filter models.MarksFilter) ([]models.Marks, error)
	Finalize(ctx context.Context, marks *models.Marks) error
	GradedRecords(ctx context.Context, studentID string) ([]models.Marks, error)
}

type marksCourseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// MarksService records component scores, derives grades and maintains the
// cached CGPA view.
type MarksService struct {
	repo      marksRepository
	courses   marksCourseLookup
	cache     *redis.Client
	cgpaTTL   time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarksService constructs a MarksService instance.
func NewMarksService(repo marksRepository, courses marksCourseLookup, cache *redis.Client, cgpaTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cgpaTTL <= 0 {
		cgpaTTL = 10 * time.Minute
	}
	return &MarksService{repo: repo, courses: courses, cache: cache, cgpaTTL: cgpaTTL, validator: validate, logger: logger}
}

// Record upserts the raw component scores for one student in one course. The
// derived grade is computed eagerly so out-of-range scores are rejected at
// write time, before anything is stored.
func (s *MarksService) Record(ctx context.Context, courseID, recordedBy string, req models.UpsertMarksRequest) (*models.Marks, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	result, err := grading.ComputeGrade(req.Components, req.Maxima)
	if err != nil {
		return nil, err
	}

	marks := &models.Marks{
		CourseID:   courseID,
		StudentID:  req.StudentID,
		Components: req.Components,
		Maxima:     req.Maxima,
		Total:      result.Total,
		Percentage: result.Percentage,
		Letter:     result.Letter,
		GradePoint: result.GradePoint,
		Credits:    course.Credits,
		RecordedBy: recordedBy,
	}

	if err := s.repo.Upsert(ctx, marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store marks")
	}
	return marks, nil
}

// Finalize locks a graded record. The derived fields are recomputed from the
// stored raw components so the locked values can never drift from them. The
// student's cached CGPA is invalidated.
func (s *MarksService) Finalize(ctx context.Context, marksID string) (*models.Marks, error) {
	marks, err := s.Get(ctx, marksID)
	if err != nil {
		return nil, err
	}
	if marks.Finalized {
		return nil, appErrors.Clone(appErrors.ErrConflict, "record is already finalized")
	}

	result, err := grading.ComputeGrade(marks.Components, marks.Maxima)
	if err != nil {
		return nil, err
	}
	marks.Total = result.Total
	marks.Percentage = result.Percentage
	marks.Letter = result.Letter
	marks.GradePoint = result.GradePoint

	if err := s.repo.Finalize(ctx, marks); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "record is already finalized")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize marks")
	}

	s.invalidateCGPA(ctx, marks.StudentID)
	return marks, nil
}

// Get returns one marks record.
func (s *MarksService) Get(ctx context.Context, id string) (*models.Marks, error) {
	marks, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResourceNotFound, "marks record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return marks, nil
}

// List returns marks records matching the filter.
func (s *MarksService) List(ctx context.Context, filter models.MarksFilter) ([]models.Marks, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return records, nil
}

// CGPA returns the credit-weighted grade point mean over the student's
// finalized records. The view is cached; the cache is dropped whenever a
// record of that student is finalized.
func (s *MarksService) CGPA(ctx context.Context, studentID string) (*models.CGPAView, error) {
	key := cgpaCacheKey(studentID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var view models.CGPAView
			if err := json.Unmarshal(raw, &view); err == nil {
				return &view, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cgpa cache read failed", zap.Error(err))
		}
	}

	records, err := s.repo.GradedRecords(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded records")
	}

	graded := make([]grading.GradedRecord, 0, len(records))
	credits := 0
	for _, r := range records {
		graded = append(graded, grading.GradedRecord{GradePoint: r.GradePoint, Credits: r.Credits})
		credits += r.Credits
	}

	view := &models.CGPAView{
		StudentID:  studentID,
		CGPA:       grading.ComputeCGPA(graded),
		Credits:    credits,
		ComputedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cgpaTTL).Err(); err != nil {
				s.logger.Warn("cgpa cache write failed", zap.Error(err))
			}
		}
	}
	return view, nil
}

func (s *MarksService) invalidateCGPA(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cgpaCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn("cgpa cache invalidation failed",
			zap.String("student_id", studentID),
			zap.Error(err))
	}
}

func cgpaCacheKey(studentID string) string {
	return fmt.Sprintf("cgpa:%s", studentID)
}
