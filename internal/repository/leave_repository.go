package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/arp-api/internal/models"
)

// LeaveRepository handles persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new repository instance.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = "id, student_id, from_date, to_date, reason, status, reviewed_by, reviewed_at, created_at, updated_at"

// Create inserts a leave request in PENDING status.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	leave.CreatedAt = now
	leave.UpdatedAt = now
	leave.Status = models.LeavePending
	const query = `INSERT INTO leaves (id, student_id, from_date, to_date, reason, status, created_at, updated_at)
        VALUES (:id, :student_id, :from_date, :to_date, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("insert leave: %w", err)
	}
	return nil
}

// FindByID fetches one leave request.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.Leave, error) {
	var leave models.Leave
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE id = $1", leaveColumns)
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// ListByStudent returns a student's leave requests.
func (r *LeaveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Leave, error) {
	var leaves []models.Leave
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE student_id = $1 ORDER BY created_at DESC", leaveColumns)
	if err := r.db.SelectContext(ctx, &leaves, query, studentID); err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return leaves, nil
}

// ListPending returns all requests awaiting review.
func (r *LeaveRepository) ListPending(ctx context.Context) ([]models.Leave, error) {
	var leaves []models.Leave
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE status = $1 ORDER BY created_at", leaveColumns)
	if err := r.db.SelectContext(ctx, &leaves, query, models.LeavePending); err != nil {
		return nil, fmt.Errorf("list pending leaves: %w", err)
	}
	return leaves, nil
}

// Review resolves a pending request.
func (r *LeaveRepository) Review(ctx context.Context, id string, status models.LeaveStatus, reviewerID string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE leaves SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
         WHERE id = $4 AND status = $5`,
		status, reviewerID, now, id, models.LeavePending)
	if err != nil {
		return fmt.Errorf("review leave: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Delete withdraws a pending request.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM leaves WHERE id = $1 AND status = $2", id, models.LeavePending)
	if err != nil {
		return fmt.Errorf("delete leave: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
