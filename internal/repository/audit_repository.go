package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
)

// AuditRepository appends access-decision records. Rows are append-only and
// never read back by the service.
type AuditRepository struct {
	db           *sqlx.DB
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewAuditRepository creates a new repository instance. writeTimeout bounds
// one append so policy decisions never block indefinitely on audit I/O.
func NewAuditRepository(db *sqlx.DB, logger *zap.Logger, writeTimeout time.Duration) *AuditRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &AuditRepository{db: db, logger: logger, writeTimeout: writeTimeout}
}

// Append stores one audit row.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, role, action, resource_kind, resource_id, allowed, reason, ip_address, created_at)
        VALUES (:id, :user_id, :role, :action, :resource_kind, :resource_id, :allowed, :reason, :ip_address, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

// Record implements authz.AuditSink. Failures are logged, never propagated:
// a broken audit store must not change access decisions, and retry is the
// log pipeline's concern, not the engine's.
func (r *AuditRepository) Record(ctx context.Context, event authz.Event) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	entry := &models.AuditLog{
		Action:       string(event.Action),
		ResourceKind: string(event.Resource.Kind),
		Allowed:      event.Allowed,
		Reason:       event.Reason,
		CreatedAt:    event.At,
	}
	if event.Principal != nil {
		uid := event.Principal.UserID
		role := string(event.Principal.Role)
		entry.UserID = &uid
		entry.Role = &role
	}
	if event.Resource.ID != "" {
		rid := event.Resource.ID
		entry.ResourceID = &rid
	}

	if err := r.Append(writeCtx, entry); err != nil {
		r.logger.Error("audit append failed",
			zap.String("action", entry.Action),
			zap.String("resource_kind", entry.ResourceKind),
			zap.String("reason", entry.Reason),
			zap.Error(err),
		)
	}
}
