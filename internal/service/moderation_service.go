package service

import (
	"context"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
)

// ModerationResult is the outcome of one approve/reject call. Warning is set
// on degraded success: the decision committed but a side effect is pending.
type ModerationResult struct {
	Resource moderation.Resource `json:"resource"`
	Warning  string              `json:"warning,omitempty"`
}

// QueueStats summarizes the review workload within the reviewer's scope.
type QueueStats struct {
	ByKind       map[moderation.Kind]map[moderation.Status]int64 `json:"by_kind"`
	TotalPending int64                                           `json:"total_pending"`
}

// decisionNotifier delivers the user-visible message for a decision.
type decisionNotifier interface {
	NotifyDecision(ctx context.Context, res moderation.Resource, d moderation.Decision) error
}

// auditRecorder persists the audit trail entry for an action.
type auditRecorder interface {
	Record(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error
}

// ModerationService is the single state-transition engine shared by all four
// resource kinds. Kind-specific behavior lives entirely in the registered
// adapters; the engine owns authorization scope, transition legality, the
// rejection-reason rule and the side-effect contract.
type ModerationService interface {
	Approve(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor, notes string) (*ModerationResult, error)
	Reject(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor, notes string) (*ModerationResult, error)
	ListPending(ctx context.Context, kind moderation.Kind, actor moderation.Actor, communityID *uuid.UUID, search string, page, limit int) ([]moderation.Resource, int64, error)
	GetStatus(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor) (*moderation.Resource, error)
	Stats(ctx context.Context, actor moderation.Actor) (*QueueStats, error)
}

type moderationService struct {
	adapters map[moderation.Kind]moderation.Adapter
	notifier decisionNotifier
	audit    auditRecorder
}

// NewModerationService registers one adapter per resource kind.
func NewModerationService(notifier decisionNotifier, audit auditRecorder, adapters ...moderation.Adapter) ModerationService {
	byKind := make(map[moderation.Kind]moderation.Adapter, len(adapters))
	for _, a := range adapters {
		byKind[a.Kind()] = a
	}
	return &moderationService{adapters: byKind, notifier: notifier, audit: audit}
}

func (s *moderationService) Approve(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor, notes string) (*ModerationResult, error) {
	return s.decide(ctx, kind, id, actor, moderation.StatusApproved, notes)
}

func (s *moderationService) Reject(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor, notes string) (*ModerationResult, error) {
	return s.decide(ctx, kind, id, actor, moderation.StatusRejected, notes)
}

// decide runs the shared transition contract: scope check, legality check,
// conditional update, then side effect and fan-out. The scope check is
// evaluated here on every call — the actor carries the scope that was read
// from the store for this request, never a cached decision.
func (s *moderationService) decide(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor, status moderation.Status, notes string) (*ModerationResult, error) {
	adapter, ok := s.adapters[kind]
	if !ok {
		return nil, &moderation.ValidationError{Field: "kind", Reason: fmt.Sprintf("no adapter registered for %s", kind)}
	}

	if !actor.IsReviewer() {
		return nil, moderation.ErrForbidden
	}

	res, err := adapter.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanModerate(res.CommunityID) {
		return nil, moderation.ErrForbidden
	}

	d, err := moderation.NewDecision(status, actor.ID, notes)
	if err != nil {
		return nil, err
	}

	if err := adapter.Transition(ctx, id, d); err != nil {
		return nil, err
	}

	res.Status = d.Status
	res.ReviewedBy = &d.ReviewerID
	res.ReviewedAt = &d.ReviewedAt
	res.ReviewNotes = d.Notes

	action := model.ActionApproveResource
	if d.Status == moderation.StatusRejected {
		action = model.ActionRejectResource
	}
	s.recordAudit(ctx, actor.ID, action, *res, map[string]interface{}{
		"kind":         string(kind),
		"community_id": res.CommunityID.String(),
		"notes":        d.Notes,
	})

	result := &ModerationResult{Resource: *res}

	// The transition above is already durable. A side-effect failure is
	// surfaced, never used to unwind the decision — reversing it would be a
	// second moderation decision, and the original call stopped being
	// idempotent the moment the status left PENDING.
	if err := adapter.Finalize(ctx, *res, d); err != nil {
		seErr := &moderation.SideEffectError{Kind: kind, ResourceID: res.ID, Err: err}
		log.Println("WARNING:", seErr)
		result.Warning = seErr.Error()
		s.recordAudit(ctx, actor.ID, model.ActionSideEffectPending, *res, map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
	}

	if err := s.notifier.NotifyDecision(ctx, *res, d); err != nil {
		// The stored resource already carries the review notes, so the
		// owner still sees the reason through GetStatus.
		log.Printf("WARNING: failed to notify owner of %s %s: %v", kind, res.ID, err)
	}

	return result, nil
}

func (s *moderationService) ListPending(ctx context.Context, kind moderation.Kind, actor moderation.Actor, communityID *uuid.UUID, search string, page, limit int) ([]moderation.Resource, int64, error) {
	adapter, ok := s.adapters[kind]
	if !ok {
		return nil, 0, &moderation.ValidationError{Field: "kind", Reason: fmt.Sprintf("no adapter registered for %s", kind)}
	}

	if !actor.IsReviewer() {
		return nil, 0, moderation.ErrForbidden
	}

	scope, ok := actor.ScopeCommunityIDs(communityID)
	if !ok {
		// Requested filter falls entirely outside the reviewer's scope.
		return []moderation.Resource{}, 0, nil
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	return adapter.ListPending(ctx, moderation.PendingFilter{
		CommunityIDs: scope,
		Search:       search,
		Page:         page,
		Limit:        limit,
	})
}

// GetStatus answers "what happened to my submission" for the resource owner
// (and reviewers in scope), so UI caches can be validated against the engine
// instead of trusted.
func (s *moderationService) GetStatus(ctx context.Context, kind moderation.Kind, id uuid.UUID, actor moderation.Actor) (*moderation.Resource, error) {
	adapter, ok := s.adapters[kind]
	if !ok {
		return nil, &moderation.ValidationError{Field: "kind", Reason: fmt.Sprintf("no adapter registered for %s", kind)}
	}

	res, err := adapter.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.ID != res.OwnerID && !actor.CanModerate(res.CommunityID) {
		return nil, moderation.ErrForbidden
	}

	return res, nil
}

func (s *moderationService) Stats(ctx context.Context, actor moderation.Actor) (*QueueStats, error) {
	if !actor.IsReviewer() {
		return nil, moderation.ErrForbidden
	}

	scope, ok := actor.ScopeCommunityIDs(nil)
	if !ok {
		scope = []uuid.UUID{}
	}

	stats := &QueueStats{ByKind: make(map[moderation.Kind]map[moderation.Status]int64, len(s.adapters))}
	for kind, adapter := range s.adapters {
		counts, err := adapter.CountByStatus(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s queue: %w", kind, err)
		}
		stats.ByKind[kind] = counts
		stats.TotalPending += counts[moderation.StatusPending]
	}

	return stats, nil
}

func (s *moderationService) recordAudit(ctx context.Context, actorID uuid.UUID, action string, res moderation.Resource, details map[string]interface{}) {
	if err := s.audit.Record(ctx, &actorID, action, res.ID.String(), res.Summary, details); err != nil {
		log.Printf("WARNING: failed to write audit log for %s %s: %v", action, res.ID, err)
	}
}
