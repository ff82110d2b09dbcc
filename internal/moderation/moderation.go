// Package moderation holds the shared review lifecycle applied to every
// user-submitted resource: join requests, pulses, marketplace listings and
// event registrations all move PENDING -> APPROVED or PENDING -> REJECTED
// exactly once, actioned by a scope-checked reviewer.
package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a moderatable resource type.
type Kind string

const (
	KindJoinRequest       Kind = "JOIN_REQUEST"
	KindPulse             Kind = "PULSE"
	KindListing           Kind = "LISTING"
	KindEventRegistration Kind = "EVENT_REGISTRATION"
)

// kindSlugs maps URL path tokens to kinds.
var kindSlugs = map[string]Kind{
	"join-requests":       KindJoinRequest,
	"pulses":              KindPulse,
	"listings":            KindListing,
	"event-registrations": KindEventRegistration,
}

// ParseKind accepts either the canonical constant or the URL slug form.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindSlugs[strings.ToLower(s)]; ok {
		return k, nil
	}
	switch Kind(strings.ToUpper(s)) {
	case KindJoinRequest, KindPulse, KindListing, KindEventRegistration:
		return Kind(strings.ToUpper(s)), nil
	}
	return "", &ValidationError{Field: "kind", Reason: "unknown resource kind: " + s}
}

// Status enum constants. SOLD and CLOSED are post-approval business states
// for marketplace listings; the review lifecycle itself never produces them.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusSold     Status = "SOLD"
	StatusClosed   Status = "CLOSED"
)

// Role enum constants for principals.
const (
	RoleResident = "resident"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// Actor is the explicit authorization context for one request: who is
// acting, with which role, and (for managers) which communities they manage.
// It is rebuilt from the store on every request — manager assignments can
// change between calls, so scope is never cached.
type Actor struct {
	ID                  uuid.UUID
	Role                string
	ManagedCommunityIDs []uuid.UUID
}

// IsReviewer reports whether the actor's role permits moderation at all.
func (a Actor) IsReviewer() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// CanModerate reports whether the actor may approve or reject a resource
// scoped to the given community.
func (a Actor) CanModerate(communityID uuid.UUID) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		for _, id := range a.ManagedCommunityIDs {
			if id == communityID {
				return true
			}
		}
	}
	return false
}

// ScopeCommunityIDs resolves the community set a reviewer's listing query is
// allowed to cover. Admins see the requested community (or everything when
// nil). Managers see the intersection of the requested filter with their
// managed set — the filter can narrow their scope, never widen it. The
// second return is false when the intersection is empty.
func (a Actor) ScopeCommunityIDs(requested *uuid.UUID) ([]uuid.UUID, bool) {
	switch a.Role {
	case RoleAdmin:
		if requested == nil {
			return nil, true // nil means "all communities"
		}
		return []uuid.UUID{*requested}, true
	case RoleManager:
		if requested == nil {
			return a.ManagedCommunityIDs, len(a.ManagedCommunityIDs) > 0
		}
		for _, id := range a.ManagedCommunityIDs {
			if id == *requested {
				return []uuid.UUID{*requested}, true
			}
		}
		return nil, false
	}
	return nil, false
}

// Decision captures one moderation transition as applied by a reviewer.
type Decision struct {
	Status     Status // StatusApproved or StatusRejected
	ReviewerID uuid.UUID
	ReviewedAt time.Time
	Notes      string
}

// NewDecision validates and builds a transition. Rejections require a
// non-empty, trimmed reason; approvals may carry optional notes.
func NewDecision(status Status, reviewerID uuid.UUID, notes string) (Decision, error) {
	notes = strings.TrimSpace(notes)
	if status == StatusRejected && notes == "" {
		return Decision{}, &ValidationError{Field: "reason", Reason: "a rejection reason is required"}
	}
	if status != StatusApproved && status != StatusRejected {
		return Decision{}, &ValidationError{Field: "status", Reason: "decision must approve or reject"}
	}
	return Decision{
		Status:     status,
		ReviewerID: reviewerID,
		ReviewedAt: time.Now(),
		Notes:      notes,
	}, nil
}

// Resource is the kind-independent view of a moderatable record, the shape
// the engine and the review queue operate on.
type Resource struct {
	ID          uuid.UUID  `json:"id"`
	Kind        Kind       `json:"kind"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	OwnerName   string     `json:"owner_name,omitempty"`
	CommunityID uuid.UUID  `json:"community_id"`
	Status      Status     `json:"status"`
	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes string     `json:"review_notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Summary     string     `json:"summary"` // short human-readable label for the queue
}

// PendingFilter narrows a review-queue listing. CommunityIDs is the already
// scope-resolved community set; nil means all communities (admin only).
type PendingFilter struct {
	CommunityIDs []uuid.UUID
	Search       string
	Page         int
	Limit        int
}

// Adapter is the thin per-kind binding to the shared state machine. Each of
// the four resource kinds supplies one.
type Adapter interface {
	Kind() Kind

	// Get loads the kind-independent view; ErrNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*Resource, error)

	// Transition applies the decision with a conditional update guarded on
	// status = PENDING, so concurrent reviewers cannot both win. Returns
	// ErrInvalidTransition when the guard fails. Kinds whose approval must
	// hold an invariant (event capacity) couple that consumption into the
	// same transaction and may return ErrCapacityExhausted, leaving the
	// resource pending.
	Transition(ctx context.Context, id uuid.UUID, d Decision) error

	// Finalize runs the kind's post-commit side effect (membership
	// creation, visibility flip). A failure here never rolls back the
	// transition; the engine surfaces it as a degraded success.
	Finalize(ctx context.Context, res Resource, d Decision) error

	// ListPending returns the review queue slice for this kind.
	ListPending(ctx context.Context, f PendingFilter) ([]Resource, int64, error)

	// CountByStatus returns queue statistics within the given scope
	// (nil = all communities).
	CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[Status]int64, error)
}
