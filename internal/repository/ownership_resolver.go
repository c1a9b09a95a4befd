package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
)

// OwnershipResolver derives the ownership facts the policy engine needs from
// the backing store. Each resource kind maps to its own query at compile
// time; there is no dispatch by table-name string. Roster facts are cached
// in redis for a short TTL and invalidated on enrollment writes.
type OwnershipResolver struct {
	db      *sqlx.DB
	cache   *redis.Client
	logger  *zap.Logger
	timeout time.Duration
	ttl     time.Duration
}

// NewOwnershipResolver creates a resolver. timeout bounds a single lookup;
// cache may be nil, in which case every roster read hits the database.
func NewOwnershipResolver(db *sqlx.DB, cache *redis.Client, logger *zap.Logger, timeout, cacheTTL time.Duration) *OwnershipResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &OwnershipResolver{db: db, cache: cache, logger: logger, timeout: timeout, ttl: cacheTTL}
}

type ownerRow struct {
	OwnerID  sql.NullString `db:"owner_id"`
	CourseID sql.NullString `db:"course_id"`
}

// Resolve implements authz.OwnershipResolver.
func (r *OwnershipResolver) Resolve(ctx context.Context, kind authz.ResourceKind, id string) (*authz.Ownership, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var query string
	switch kind {
	case authz.KindUserRecord:
		query = "SELECT id AS owner_id, NULL AS course_id FROM users WHERE id = $1"
	case authz.KindCourse:
		query = "SELECT instructor_id AS owner_id, id AS course_id FROM courses WHERE id = $1"
	case authz.KindAssignment:
		query = "SELECT created_by AS owner_id, course_id FROM assignments WHERE id = $1"
	case authz.KindSubmission:
		query = `SELECT s.student_id AS owner_id, a.course_id
            FROM submissions s JOIN assignments a ON a.id = s.assignment_id WHERE s.id = $1`
	case authz.KindMarks:
		query = "SELECT student_id AS owner_id, course_id FROM marks WHERE id = $1"
	case authz.KindAttendance:
		query = "SELECT student_id AS owner_id, course_id FROM attendance WHERE id = $1"
	case authz.KindNotice:
		query = "SELECT created_by AS owner_id, course_id FROM notices WHERE id = $1"
	case authz.KindLeave:
		query = "SELECT student_id AS owner_id, NULL AS course_id FROM leaves WHERE id = $1"
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}

	var row ownerRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return nil, err
	}
	return &authz.Ownership{OwnerID: row.OwnerID.String, CourseID: row.CourseID.String}, nil
}

type cachedRoster struct {
	InstructorID   string   `json:"instructor_id"`
	ActiveStudents []string `json:"active_students"`
}

func rosterKey(courseID string) string {
	return "roster:" + courseID
}

// Roster implements authz.OwnershipResolver.
func (r *OwnershipResolver) Roster(ctx context.Context, courseID string) (*models.Roster, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.cache != nil {
		raw, err := r.cache.Get(ctx, rosterKey(courseID)).Bytes()
		if err == nil {
			var cached cachedRoster
			if err := json.Unmarshal(raw, &cached); err == nil {
				active := make(map[string]struct{}, len(cached.ActiveStudents))
				for _, id := range cached.ActiveStudents {
					active[id] = struct{}{}
				}
				return &models.Roster{CourseID: courseID, InstructorID: cached.InstructorID, ActiveStudents: active}, nil
			}
		} else if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("roster cache read failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}

	roster, err := r.loadRoster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		cached := cachedRoster{InstructorID: roster.InstructorID, ActiveStudents: make([]string, 0, len(roster.ActiveStudents))}
		for id := range roster.ActiveStudents {
			cached.ActiveStudents = append(cached.ActiveStudents, id)
		}
		if raw, err := json.Marshal(cached); err == nil {
			if err := r.cache.Set(ctx, rosterKey(courseID), raw, r.ttl).Err(); err != nil {
				r.logger.Warn("roster cache write failed", zap.String("course_id", courseID), zap.Error(err))
			}
		}
	}
	return roster, nil
}

// InvalidateRoster drops the cached roster after an enrollment write so
// dropped students lose course-scoped access immediately.
func (r *OwnershipResolver) InvalidateRoster(ctx context.Context, courseID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, rosterKey(courseID)).Err(); err != nil {
		r.logger.Warn("roster cache invalidation failed", zap.String("course_id", courseID), zap.Error(err))
	}
}

func (r *OwnershipResolver) loadRoster(ctx context.Context, courseID string) (*models.Roster, error) {
	var instructorID string
	if err := r.db.GetContext(ctx, &instructorID, "SELECT instructor_id FROM courses WHERE id = $1", courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return nil, err
	}

	var studentIDs []string
	const query = "SELECT student_id FROM enrollments WHERE course_id = $1 AND status = $2"
	if err := r.db.SelectContext(ctx, &studentIDs, query, courseID, models.EnrollmentActive); err != nil {
		return nil, fmt.Errorf("load roster members: %w", err)
	}

	active := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		active[id] = struct{}{}
	}
	return &models.Roster{CourseID: courseID, InstructorID: instructorID, ActiveStudents: active}, nil
}
