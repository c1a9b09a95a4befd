// Package authz implements the access decision layer gating every
// academic-data operation. A single entry point, Engine.Decide, evaluates an
// ordered set of gates over a Principal, an Action and a ResourceDescriptor;
// ownership facts are re-derived through the OwnershipResolver rather than
// trusted from the caller, and every denial is forwarded to the AuditSink.
package authz

import (
	"context"
	"errors"
	"time"

	"github.com/campuskit/arp-api/internal/models"
)

// Action is a requested operation on a resource.
type Action string

const (
	ActionRead    Action = "READ"
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionApprove Action = "APPROVE"
)

// ResourceKind is the closed set of protected resource kinds.
type ResourceKind string

const (
	KindUserRecord ResourceKind = "USER_RECORD"
	KindCourse     ResourceKind = "COURSE"
	KindAssignment ResourceKind = "ASSIGNMENT"
	KindSubmission ResourceKind = "SUBMISSION"
	KindMarks      ResourceKind = "MARKS"
	KindAttendance ResourceKind = "ATTENDANCE"
	KindNotice     ResourceKind = "NOTICE"
	KindLeave      ResourceKind = "LEAVE"
)

// Principal is the authenticated identity a request acts on behalf of. It is
// immutable for the lifetime of one request and never persisted.
type Principal struct {
	UserID string
	Role   models.UserRole
}

// ResourceDescriptor describes the thing being accessed, independent of
// storage shape. CourseID is a routing hint for creations; for existing
// resources the engine re-derives ownership and course linkage itself.
type ResourceDescriptor struct {
	Kind     ResourceKind
	ID       string
	CourseID string
}

// Decision is the outcome of one policy evaluation. Denials carry one of the
// stable reason codes from pkg/errors; they are normal values, not errors.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the given reason code.
func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Ownership holds the minimal facts needed by the gates for one resource.
type Ownership struct {
	// OwnerID is the creator/subject of the record. May be empty for
	// resources that legitimately have no owner; that is distinct from the
	// resource not existing, which resolvers signal with ErrNotFound.
	OwnerID  string
	CourseID string
}

// ErrNotFound is returned by resolvers when the resource does not exist.
var ErrNotFound = errors.New("authz: resource not found")

// OwnershipResolver fetches ownership facts from the data store. Lookups
// honor the caller's context deadline; a timeout surfaces as a denial, never
// as an allow.
type OwnershipResolver interface {
	Resolve(ctx context.Context, kind ResourceKind, id string) (*Ownership, error)
	Roster(ctx context.Context, courseID string) (*models.Roster, error)
}

// Event is one audit record. Events are append-only; the engine never reads
// them back.
type Event struct {
	Principal *Principal
	Action    Action
	Resource  ResourceDescriptor
	Allowed   bool
	Reason    string
	At        time.Time
}

// AuditSink consumes decision events. Delivery guarantees belong to the
// implementation; Record must bound its own write deadline so the engine
// never blocks indefinitely on it.
type AuditSink interface {
	Record(ctx context.Context, event Event)
}

// DecisionObserver receives decision outcomes for metrics.
type DecisionObserver interface {
	ObserveDecision(action, kind, reason string, allowed bool)
}
