package models

import "time"

// AuditLog records one access decision. Rows are append-only; the service
// never reads them back.
type AuditLog struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	Role         *string   `db:"role" json:"role,omitempty"`
	Action       string    `db:"action" json:"action"`
	ResourceKind string    `db:"resource_kind" json:"resource_kind"`
	ResourceID   *string   `db:"resource_id" json:"resource_id,omitempty"`
	Allowed      bool      `db:"allowed" json:"allowed"`
	Reason       string    `db:"reason" json:"reason"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
