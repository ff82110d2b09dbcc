package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeEventRepository reproduces the store's approval semantics in memory:
// the slot decrement is atomic with the status transition and a full event
// leaves the registration pending.
type fakeEventRepository struct {
	events        map[uuid.UUID]*model.Event
	registrations map[uuid.UUID]*model.EventRegistration
}

func newFakeEventRepository() *fakeEventRepository {
	return &fakeEventRepository{
		events:        make(map[uuid.UUID]*model.Event),
		registrations: make(map[uuid.UUID]*model.EventRegistration),
	}
}

func (f *fakeEventRepository) Create(_ context.Context, event *model.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepository) Update(_ context.Context, event *model.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return event, nil
}

func (f *fakeEventRepository) List(_ context.Context, _ *uuid.UUID, _ bool, _, _ int) ([]model.Event, int64, error) {
	return nil, 0, nil
}

func (f *fakeEventRepository) CreateRegistration(_ context.Context, reg *model.EventRegistration) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	f.registrations[reg.ID] = reg
	return nil
}

func (f *fakeEventRepository) FindRegistration(_ context.Context, id uuid.UUID) (*model.EventRegistration, error) {
	reg, ok := f.registrations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	view := *reg
	view.Event = f.events[reg.EventID]
	return &view, nil
}

func (f *fakeEventRepository) FindRegistrationByUser(_ context.Context, eventID, userID uuid.UUID) (*model.EventRegistration, error) {
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.UserID == userID {
			return reg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEventRepository) ApproveRegistration(_ context.Context, id uuid.UUID, d moderation.Decision, ticketCode string) error {
	reg, ok := f.registrations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if reg.Status != string(moderation.StatusPending) {
		return moderation.ErrInvalidTransition
	}
	event := f.events[reg.EventID]
	if event.AvailableSlots <= 0 {
		return moderation.ErrCapacityExhausted
	}
	event.AvailableSlots--
	reg.Status = string(d.Status)
	reg.ReviewedBy = &d.ReviewerID
	reg.ReviewedAt = &d.ReviewedAt
	reg.ReviewNotes = d.Notes
	reg.TicketCode = &ticketCode
	return nil
}

func (f *fakeEventRepository) RejectRegistration(_ context.Context, id uuid.UUID, d moderation.Decision) error {
	reg, ok := f.registrations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if reg.Status != string(moderation.StatusPending) {
		return moderation.ErrInvalidTransition
	}
	reg.Status = string(d.Status)
	reg.ReviewedBy = &d.ReviewerID
	reg.ReviewedAt = &d.ReviewedAt
	reg.ReviewNotes = d.Notes
	return nil
}

func (f *fakeEventRepository) ListRoster(_ context.Context, eventID uuid.UUID, _, _ int) ([]model.EventRegistration, int64, error) {
	var out []model.EventRegistration
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.Status == string(moderation.StatusApproved) {
			out = append(out, *reg)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeEventRepository) ListPendingRegistrations(_ context.Context, _ moderation.PendingFilter) ([]model.EventRegistration, int64, error) {
	var out []model.EventRegistration
	for _, reg := range f.registrations {
		if reg.Status == string(moderation.StatusPending) {
			view := *reg
			view.Event = f.events[reg.EventID]
			out = append(out, view)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeEventRepository) CountRegistrationsByStatus(_ context.Context, _ []uuid.UUID) (map[moderation.Status]int64, error) {
	counts := make(map[moderation.Status]int64)
	for _, reg := range f.registrations {
		counts[moderation.Status(reg.Status)]++
	}
	return counts, nil
}

func seedEventWithRegistrations(t *testing.T, repo *fakeEventRepository, slots int, pending int) (*model.Event, []uuid.UUID) {
	t.Helper()
	event := &model.Event{
		ID:             uuid.New(),
		CommunityID:    uuid.New(),
		Title:          "Summer block party",
		Capacity:       slots,
		AvailableSlots: slots,
	}
	require.NoError(t, repo.Create(context.Background(), event))

	ids := make([]uuid.UUID, 0, pending)
	for i := 0; i < pending; i++ {
		reg := &model.EventRegistration{
			EventID: event.ID,
			UserID:  uuid.New(),
			Status:  string(moderation.StatusPending),
		}
		require.NoError(t, repo.CreateRegistration(context.Background(), reg))
		ids = append(ids, reg.ID)
	}
	return event, ids
}

func TestRegistrationApprovalConsumesSlotAndIssuesTicket(t *testing.T) {
	repo := newFakeEventRepository()
	event, ids := seedEventWithRegistrations(t, repo, 2, 1)

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, NewEventRegistrationAdapter(repo))
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	result, err := svc.Approve(context.Background(), moderation.KindEventRegistration, ids[0], admin, "")
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusApproved, result.Resource.Status)
	assert.Equal(t, 1, event.AvailableSlots)

	reg, err := repo.FindRegistration(context.Background(), ids[0])
	require.NoError(t, err)
	require.NotNil(t, reg.TicketCode)
	assert.True(t, strings.HasPrefix(*reg.TicketCode, "TKT-"))
}

func TestRegistrationApprovalStopsAtCapacity(t *testing.T) {
	repo := newFakeEventRepository()
	event, ids := seedEventWithRegistrations(t, repo, 1, 2)

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, NewEventRegistrationAdapter(repo))
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Approve(context.Background(), moderation.KindEventRegistration, ids[0], admin, "")
	require.NoError(t, err)
	assert.Equal(t, 0, event.AvailableSlots)

	// The second approval must fail atomically and leave the registration
	// pending, so it can still be rejected (or approved after a slot frees).
	_, err = svc.Approve(context.Background(), moderation.KindEventRegistration, ids[1], admin, "")
	assert.ErrorIs(t, err, moderation.ErrCapacityExhausted)

	reg, ferr := repo.FindRegistration(context.Background(), ids[1])
	require.NoError(t, ferr)
	assert.Equal(t, string(moderation.StatusPending), reg.Status)
	assert.Nil(t, reg.TicketCode)

	result, err := svc.Reject(context.Background(), moderation.KindEventRegistration, ids[1], admin, "event is full")
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusRejected, result.Resource.Status)
}

func TestRegistrationRejectionDoesNotConsumeSlot(t *testing.T) {
	repo := newFakeEventRepository()
	event, ids := seedEventWithRegistrations(t, repo, 3, 1)

	svc := NewModerationService(&fakeNotifier{}, &fakeAudit{}, NewEventRegistrationAdapter(repo))
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Reject(context.Background(), moderation.KindEventRegistration, ids[0], admin, "not a resident")
	require.NoError(t, err)
	assert.Equal(t, 3, event.AvailableSlots)

	// Rejection keeps the row for the audit trail; the roster simply no
	// longer includes it.
	roster, total, err := repo.ListRoster(context.Background(), event.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, roster)
}
