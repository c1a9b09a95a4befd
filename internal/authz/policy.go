package authz

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/arp-api/internal/models"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
)

type ruleKey struct {
	Action Action
	Kind   ResourceKind
}

type roleSet map[models.UserRole]struct{}

func roles(rs ...models.UserRole) roleSet {
	set := make(roleSet, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// policyTable statically declares, per (action, kind) pair, the roles the
// role gate admits. Admins never consult it; a missing entry fails closed
// with NO_MATCHING_RULE and is treated as a configuration defect.
var policyTable = map[ruleKey]roleSet{
	{ActionRead, KindUserRecord}:    roles(models.RoleFaculty, models.RoleStudent),
	{ActionUpdate, KindUserRecord}:  roles(models.RoleFaculty, models.RoleStudent),
	{ActionDelete, KindUserRecord}:  roles(),
	{ActionApprove, KindUserRecord}: roles(),

	{ActionRead, KindCourse}:   roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindCourse}: roles(models.RoleFaculty),
	{ActionUpdate, KindCourse}: roles(models.RoleFaculty),
	{ActionDelete, KindCourse}: roles(),

	{ActionRead, KindAssignment}:   roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindAssignment}: roles(models.RoleFaculty),
	{ActionUpdate, KindAssignment}: roles(models.RoleFaculty),
	{ActionDelete, KindAssignment}: roles(models.RoleFaculty),

	{ActionRead, KindSubmission}:   roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindSubmission}: roles(models.RoleStudent),

	{ActionRead, KindMarks}:   roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindMarks}: roles(models.RoleFaculty),
	{ActionUpdate, KindMarks}: roles(models.RoleFaculty),
	{ActionDelete, KindMarks}: roles(),

	{ActionRead, KindAttendance}:   roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindAttendance}: roles(models.RoleFaculty),
	{ActionUpdate, KindAttendance}: roles(models.RoleFaculty),

	{ActionRead, KindNotice}:   roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindNotice}: roles(models.RoleFaculty),
	{ActionUpdate, KindNotice}: roles(models.RoleFaculty),
	{ActionDelete, KindNotice}: roles(models.RoleFaculty),

	{ActionRead, KindLeave}:    roles(models.RoleFaculty, models.RoleStudent),
	{ActionCreate, KindLeave}:  roles(models.RoleStudent),
	{ActionUpdate, KindLeave}:  roles(models.RoleStudent),
	{ActionDelete, KindLeave}:  roles(models.RoleStudent),
	{ActionApprove, KindLeave}: roles(models.RoleFaculty),
}

// selfScoped marks kinds whose records belong to a single student; the
// self-data gate compares their owner against the principal.
var selfScoped = map[ResourceKind]struct{}{
	KindUserRecord: {},
	KindAttendance: {},
	KindMarks:      {},
	KindLeave:      {},
	KindSubmission: {},
}

// Engine is the access policy engine. It owns no mutable state; concurrent
// decisions require no coordination.
type Engine struct {
	resolver OwnershipResolver
	audit    AuditSink
	observer DecisionObserver
	logger   *zap.Logger
}

// NewEngine constructs the policy engine.
func NewEngine(resolver OwnershipResolver, audit AuditSink, observer DecisionObserver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{resolver: resolver, audit: audit, observer: observer, logger: logger}
}

// Decide evaluates the gates in order and returns the first applicable
// outcome. Every denial is audited; Approve is audited on allow as well
// because approvals change a user's standing irreversibly.
func (e *Engine) Decide(ctx context.Context, principal *Principal, action Action, resource ResourceDescriptor) Decision {
	decision := e.evaluate(ctx, principal, action, resource)

	if e.observer != nil {
		e.observer.ObserveDecision(string(action), string(resource.Kind), decision.Reason, decision.Allowed)
	}
	if e.audit != nil && (!decision.Allowed || action == ActionApprove) {
		e.audit.Record(ctx, Event{
			Principal: principal,
			Action:    action,
			Resource:  resource,
			Allowed:   decision.Allowed,
			Reason:    decision.Reason,
			At:        time.Now().UTC(),
		})
	}
	return decision
}

func (e *Engine) evaluate(ctx context.Context, principal *Principal, action Action, resource ResourceDescriptor) Decision {
	// Gate 1: authentication.
	if principal == nil || principal.UserID == "" {
		return Deny(appErrors.ErrAuthRequired.Code)
	}

	// Gate 2: admin override.
	if principal.Role == models.RoleAdmin {
		return Allow()
	}

	// Gate 3: static role gate.
	permitted, declared := policyTable[ruleKey{action, resource.Kind}]
	if !declared {
		e.logger.Error("no access rule declared",
			zap.String("action", string(action)),
			zap.String("kind", string(resource.Kind)),
		)
		return Deny(appErrors.ErrNoMatchingRule.Code)
	}
	if _, ok := permitted[principal.Role]; !ok {
		return Deny(appErrors.ErrInsufficientPerms.Code)
	}

	// Gate 4: self-data ownership for students. Creations carry no id; the
	// write path stamps the principal as owner, so the gate falls through to
	// the enrollment check.
	if principal.Role == models.RoleStudent {
		if _, ok := selfScoped[resource.Kind]; ok && resource.ID != "" {
			ownership, err := e.resolver.Resolve(ctx, resource.Kind, resource.ID)
			if err != nil {
				return e.resolveFailure(err, resource)
			}
			if ownership.OwnerID != principal.UserID {
				return Deny(appErrors.ErrDataAccessViolation.Code)
			}
			return Allow()
		}

		// Gate 5: active course membership.
		if e.courseScoped(resource) {
			courseID, decision := e.courseID(ctx, resource)
			if decision != nil {
				return *decision
			}
			if courseID == "" {
				// Not tied to any course (e.g. a global notice).
				return Allow()
			}
			roster, err := e.resolver.Roster(ctx, courseID)
			if err != nil {
				return e.resolveFailure(err, resource)
			}
			if !roster.IsActiveMember(principal.UserID) {
				return Deny(appErrors.ErrCourseAccessDenied.Code)
			}
			return Allow()
		}
		return Allow()
	}

	// Gate 6: instructor ownership for faculty mutations on course-scoped
	// resources, including the course record itself.
	if principal.Role == models.RoleFaculty && mutating(action) {
		if resource.Kind == KindCourse || e.courseScoped(resource) {
			courseID, decision := e.courseID(ctx, resource)
			if decision != nil {
				return *decision
			}
			if courseID == "" {
				// No course linkage (e.g. a global notice): the role gate is
				// the decisive rule.
				return Allow()
			}
			roster, err := e.resolver.Roster(ctx, courseID)
			if err != nil {
				return e.resolveFailure(err, resource)
			}
			if roster.InstructorID != principal.UserID {
				return Deny(appErrors.ErrCourseOwnership.Code)
			}
			return Allow()
		}
		// Faculty mutating their own profile or leave records.
		if resource.Kind == KindUserRecord || resource.Kind == KindLeave {
			ownership, err := e.resolver.Resolve(ctx, resource.Kind, resource.ID)
			if err != nil {
				return e.resolveFailure(err, resource)
			}
			if ownership.OwnerID != principal.UserID {
				return Deny(appErrors.ErrDataAccessViolation.Code)
			}
		}
	}

	return Allow()
}

// courseScoped reports whether the descriptor ties to a course roster.
// Notices are course-scoped only when linked to a course.
func (e *Engine) courseScoped(resource ResourceDescriptor) bool {
	switch resource.Kind {
	case KindAssignment, KindSubmission, KindMarks, KindAttendance:
		return true
	case KindNotice:
		return resource.CourseID != "" || resource.ID != ""
	default:
		return false
	}
}

// courseID resolves the course a resource belongs to, preferring the stored
// linkage over the caller-supplied hint.
func (e *Engine) courseID(ctx context.Context, resource ResourceDescriptor) (string, *Decision) {
	if resource.Kind == KindCourse {
		if resource.ID != "" {
			return resource.ID, nil
		}
		return resource.CourseID, nil
	}
	if resource.ID != "" {
		ownership, err := e.resolver.Resolve(ctx, resource.Kind, resource.ID)
		if err != nil {
			d := e.resolveFailure(err, resource)
			return "", &d
		}
		return ownership.CourseID, nil
	}
	return resource.CourseID, nil
}

// resolveFailure maps resolver errors to denials. Absence of proof is not
// proof of absence, but it must never default to granting access.
func (e *Engine) resolveFailure(err error, resource ResourceDescriptor) Decision {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Deny(appErrors.ErrResolverTimeout.Code)
	case errors.Is(err, ErrNotFound):
		return Deny(appErrors.ErrResourceNotFound.Code)
	default:
		e.logger.Error("ownership resolution failed",
			zap.String("kind", string(resource.Kind)),
			zap.String("id", resource.ID),
			zap.Error(err),
		)
		return Deny(appErrors.ErrResourceNotFound.Code)
	}
}

func mutating(action Action) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// DenyError converts a denial into the matching typed error for transport.
func DenyError(d Decision) error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case appErrors.ErrAuthRequired.Code:
		return appErrors.ErrAuthRequired
	case appErrors.ErrInsufficientPerms.Code:
		return appErrors.ErrInsufficientPerms
	case appErrors.ErrDataAccessViolation.Code:
		return appErrors.ErrDataAccessViolation
	case appErrors.ErrCourseAccessDenied.Code:
		return appErrors.ErrCourseAccessDenied
	case appErrors.ErrCourseOwnership.Code:
		return appErrors.ErrCourseOwnership
	case appErrors.ErrResourceNotFound.Code:
		return appErrors.ErrResourceNotFound
	case appErrors.ErrResolverTimeout.Code:
		return appErrors.ErrResolverTimeout
	default:
		return appErrors.ErrNoMatchingRule
	}
}
