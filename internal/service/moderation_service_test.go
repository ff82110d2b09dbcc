package service

import (
	"context"
	"errors"
	"testing"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is an in-memory Adapter over a handful of resources, with the
// same PENDING-guarded transition semantics the real repositories implement.
type fakeAdapter struct {
	kind        moderation.Kind
	resources   map[uuid.UUID]*moderation.Resource
	finalizeErr error
	finalized   []uuid.UUID
}

func newFakeAdapter(kind moderation.Kind) *fakeAdapter {
	return &fakeAdapter{kind: kind, resources: make(map[uuid.UUID]*moderation.Resource)}
}

func (f *fakeAdapter) add(res moderation.Resource) *moderation.Resource {
	f.resources[res.ID] = &res
	return &res
}

func (f *fakeAdapter) Kind() moderation.Kind { return f.kind }

func (f *fakeAdapter) Get(_ context.Context, id uuid.UUID) (*moderation.Resource, error) {
	res, ok := f.resources[id]
	if !ok {
		return nil, moderation.ErrNotFound
	}
	view := *res
	return &view, nil
}

func (f *fakeAdapter) Transition(_ context.Context, id uuid.UUID, d moderation.Decision) error {
	res, ok := f.resources[id]
	if !ok {
		return moderation.ErrNotFound
	}
	if res.Status != moderation.StatusPending {
		return moderation.ErrInvalidTransition
	}
	res.Status = d.Status
	res.ReviewedBy = &d.ReviewerID
	res.ReviewedAt = &d.ReviewedAt
	res.ReviewNotes = d.Notes
	return nil
}

func (f *fakeAdapter) Finalize(_ context.Context, res moderation.Resource, _ moderation.Decision) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.finalized = append(f.finalized, res.ID)
	return nil
}

func (f *fakeAdapter) ListPending(_ context.Context, filter moderation.PendingFilter) ([]moderation.Resource, int64, error) {
	var out []moderation.Resource
	for _, res := range f.resources {
		if res.Status != moderation.StatusPending {
			continue
		}
		if filter.CommunityIDs != nil && !containsID(filter.CommunityIDs, res.CommunityID) {
			continue
		}
		out = append(out, *res)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAdapter) CountByStatus(_ context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	counts := make(map[moderation.Status]int64)
	for _, res := range f.resources {
		if communityIDs != nil && !containsID(communityIDs, res.CommunityID) {
			continue
		}
		counts[res.Status]++
	}
	return counts, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeNotifier struct {
	delivered []moderation.Resource
	err       error
}

func (f *fakeNotifier) NotifyDecision(_ context.Context, res moderation.Resource, _ moderation.Decision) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, res)
	return nil
}

type fakeAudit struct {
	entries []string
}

func (f *fakeAudit) Record(_ context.Context, _ *uuid.UUID, action, _, _ string, _ map[string]interface{}) error {
	f.entries = append(f.entries, action)
	return nil
}

func pendingResource(kind moderation.Kind, communityID uuid.UUID) moderation.Resource {
	return moderation.Resource{
		ID:          uuid.New(),
		Kind:        kind,
		OwnerID:     uuid.New(),
		CommunityID: communityID,
		Status:      moderation.StatusPending,
		Summary:     "test resource",
	}
}

func TestApproveHappyPath(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindPulse)
	res := adapter.add(pendingResource(moderation.KindPulse, communityID))

	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	svc := NewModerationService(notifier, audit, adapter)

	manager := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{communityID}}

	result, err := svc.Approve(context.Background(), moderation.KindPulse, res.ID, manager, "looks fine")
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Equal(t, moderation.StatusApproved, result.Resource.Status)
	require.NotNil(t, result.Resource.ReviewedBy)
	assert.Equal(t, manager.ID, *result.Resource.ReviewedBy)
	assert.Equal(t, "looks fine", result.Resource.ReviewNotes)

	assert.Equal(t, []uuid.UUID{res.ID}, adapter.finalized)
	require.Len(t, notifier.delivered, 1)
	assert.Contains(t, audit.entries, model.ActionApproveResource)
}

func TestDecisionIsSingleShot(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindListing)
	res := adapter.add(pendingResource(moderation.KindListing, communityID))

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, adapter)
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Approve(context.Background(), moderation.KindListing, res.ID, admin, "")
	require.NoError(t, err)

	// The loser of a double-moderation race gets a conflict, not a rewrite.
	_, err = svc.Reject(context.Background(), moderation.KindListing, res.ID, admin, "changed my mind")
	assert.ErrorIs(t, err, moderation.ErrInvalidTransition)
}

func TestOutOfScopeManagerForbidden(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindJoinRequest)
	res := adapter.add(pendingResource(moderation.KindJoinRequest, communityID))

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, adapter)

	outsider := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{uuid.New()}}
	_, err := svc.Approve(context.Background(), moderation.KindJoinRequest, res.ID, outsider, "")
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	resident := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	_, err = svc.Approve(context.Background(), moderation.KindJoinRequest, res.ID, resident, "")
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	// The resource must still be decidable by someone in scope.
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}
	result, err := svc.Approve(context.Background(), moderation.KindJoinRequest, res.ID, admin, "")
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, result.Resource.Status)
}

func TestRejectRequiresReason(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindPulse)
	res := adapter.add(pendingResource(moderation.KindPulse, communityID))

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, adapter)
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Reject(context.Background(), moderation.KindPulse, res.ID, admin, "   ")
	var vErr *moderation.ValidationError
	require.ErrorAs(t, err, &vErr)

	// The failed call must not have consumed the transition.
	got, err := adapter.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusPending, got.Status)
}

func TestFinalizeFailureIsDegradedSuccess(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindJoinRequest)
	adapter.finalizeErr = errors.New("membership insert failed")
	res := adapter.add(pendingResource(moderation.KindJoinRequest, communityID))

	audit := &fakeAudit{}
	svc := NewModerationService(&fakeNotifier{}, audit, adapter)
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	result, err := svc.Approve(context.Background(), moderation.KindJoinRequest, res.ID, admin, "")
	require.NoError(t, err, "side-effect failure must not fail the decision")
	assert.Equal(t, moderation.StatusApproved, result.Resource.Status)
	assert.NotEmpty(t, result.Warning)
	assert.Contains(t, audit.entries, model.ActionSideEffectPending)
}

func TestNotifierFailureDoesNotFailDecision(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindPulse)
	res := adapter.add(pendingResource(moderation.KindPulse, communityID))

	svc := NewModerationService(&fakeNotifier{err: errors.New("hub down")}, &fakeAudit{}, adapter)
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	result, err := svc.Approve(context.Background(), moderation.KindPulse, res.ID, admin, "")
	require.NoError(t, err)
	assert.Empty(t, result.Warning, "notification is fan-out, not a side effect")
}

func TestListPendingScoping(t *testing.T) {
	managed := uuid.New()
	other := uuid.New()

	adapter := newFakeAdapter(moderation.KindListing)
	adapter.add(pendingResource(moderation.KindListing, managed))
	adapter.add(pendingResource(moderation.KindListing, other))

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, adapter)

	manager := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{managed}}
	resources, total, err := svc.ListPending(context.Background(), moderation.KindListing, manager, nil, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, resources, 1)
	assert.Equal(t, managed, resources[0].CommunityID)

	// A filter outside the manager's scope yields an empty page, not an error.
	resources, total, err = svc.ListPending(context.Background(), moderation.KindListing, manager, &other, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, resources)

	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}
	_, total, err = svc.ListPending(context.Background(), moderation.KindListing, admin, nil, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	resident := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	_, _, err = svc.ListPending(context.Background(), moderation.KindListing, resident, nil, "", 1, 20)
	assert.ErrorIs(t, err, moderation.ErrForbidden)
}

func TestGetStatusOwnerAndScope(t *testing.T) {
	communityID := uuid.New()
	adapter := newFakeAdapter(moderation.KindEventRegistration)
	res := adapter.add(pendingResource(moderation.KindEventRegistration, communityID))

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, adapter)

	owner := moderation.Actor{ID: res.OwnerID, Role: moderation.RoleResident}
	got, err := svc.GetStatus(context.Background(), moderation.KindEventRegistration, res.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusPending, got.Status)

	stranger := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	_, err = svc.GetStatus(context.Background(), moderation.KindEventRegistration, res.ID, stranger)
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	inScope := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{communityID}}
	_, err = svc.GetStatus(context.Background(), moderation.KindEventRegistration, res.ID, inScope)
	assert.NoError(t, err)
}

func TestStatsAggregatesAcrossKinds(t *testing.T) {
	communityID := uuid.New()

	pulses := newFakeAdapter(moderation.KindPulse)
	pulses.add(pendingResource(moderation.KindPulse, communityID))
	pulses.add(pendingResource(moderation.KindPulse, communityID))

	listings := newFakeAdapter(moderation.KindListing)
	approved := pendingResource(moderation.KindListing, communityID)
	approved.Status = moderation.StatusApproved
	listings.add(approved)
	listings.add(pendingResource(moderation.KindListing, communityID))

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, pulses, listings)

	manager := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{communityID}}
	stats, err := svc.Stats(context.Background(), manager)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalPending)
	assert.EqualValues(t, 2, stats.ByKind[moderation.KindPulse][moderation.StatusPending])
	assert.EqualValues(t, 1, stats.ByKind[moderation.KindListing][moderation.StatusApproved])

	resident := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	_, err = svc.Stats(context.Background(), resident)
	assert.ErrorIs(t, err, moderation.ErrForbidden)
}

func TestUnknownKindRejected(t *testing.T) {
	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, newFakeAdapter(moderation.KindPulse))
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Approve(context.Background(), moderation.Kind("INVOICE"), uuid.New(), admin, "")
	var vErr *moderation.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestNotFoundPropagates(t *testing.T) {
	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, newFakeAdapter(moderation.KindPulse))
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Approve(context.Background(), moderation.KindPulse, uuid.New(), admin, "")
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}
