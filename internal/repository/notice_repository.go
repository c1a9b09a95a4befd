package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/arp-api/internal/models"
)

// NoticeRepository handles persistence for notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates a new repository instance.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

const noticeColumns = "id, title, body, course_id, created_by, created_at, updated_at"

// Create inserts a notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	notice.CreatedAt = now
	notice.UpdatedAt = now
	const query = `INSERT INTO notices (id, title, body, course_id, created_by, created_at, updated_at)
        VALUES (:id, :title, :body, :course_id, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}
	return nil
}

// FindByID fetches one notice.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	var notice models.Notice
	query := fmt.Sprintf("SELECT %s FROM notices WHERE id = $1", noticeColumns)
	if err := r.db.GetContext(ctx, &notice, query, id); err != nil {
		return nil, err
	}
	return &notice, nil
}

// ListVisible returns global notices plus those for the given course ids.
func (r *NoticeRepository) ListVisible(ctx context.Context, courseIDs []string) ([]models.Notice, error) {
	var notices []models.Notice
	if len(courseIDs) == 0 {
		query := fmt.Sprintf("SELECT %s FROM notices WHERE course_id IS NULL ORDER BY created_at DESC", noticeColumns)
		if err := r.db.SelectContext(ctx, &notices, query); err != nil {
			return nil, fmt.Errorf("list notices: %w", err)
		}
		return notices, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM notices WHERE course_id IS NULL OR course_id IN (?) ORDER BY created_at DESC", noticeColumns),
		courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build notice query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &notices, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// Update persists mutable notice fields.
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	notice.UpdatedAt = time.Now().UTC()
	const query = `UPDATE notices SET title = :title, body = :body, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return nil
}

// Delete removes a notice.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
