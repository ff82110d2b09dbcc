package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventScopedToReviewer(t *testing.T) {
	repo := newFakeEventRepository()
	communityID := uuid.New()
	svc := NewEventService(repo, memberCommunities(), &fakeAudit{})

	req := CreateEventRequest{
		CommunityID: communityID.String(),
		Title:       "Pool maintenance briefing",
		StartsAt:    time.Now().Add(48 * time.Hour),
		Capacity:    30,
	}

	outsider := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{uuid.New()}}
	_, err := svc.Create(context.Background(), outsider, req)
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	manager := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{communityID}}
	event, err := svc.Create(context.Background(), manager, req)
	require.NoError(t, err)
	assert.Equal(t, 30, event.Capacity)
	assert.Equal(t, 30, event.AvailableSlots, "all slots start free")
	require.NotNil(t, event.CreatedBy)
	assert.Equal(t, manager.ID, *event.CreatedBy)
}

func TestCreateEventValidatesCapacityAndFee(t *testing.T) {
	communityID := uuid.New()
	svc := NewEventService(newFakeEventRepository(), memberCommunities(), &fakeAudit{})
	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, CreateEventRequest{
		CommunityID: communityID.String(),
		Title:       "x",
		StartsAt:    time.Now(),
		Capacity:    0,
	})
	var vErr *moderation.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Create(context.Background(), admin, CreateEventRequest{
		CommunityID: communityID.String(),
		Title:       "x",
		StartsAt:    time.Now(),
		Capacity:    5,
		EntryFee:    "-1",
	})
	assert.ErrorAs(t, err, &vErr)
}

func TestRegisterCreatesPendingOnce(t *testing.T) {
	repo := newFakeEventRepository()
	communityID := uuid.New()
	event := &model.Event{
		ID:             uuid.New(),
		CommunityID:    communityID,
		Title:          "Yoga in the park",
		Capacity:       10,
		AvailableSlots: 10,
	}
	require.NoError(t, repo.Create(context.Background(), event))

	resident := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	svc := NewEventService(repo, memberCommunities([2]uuid.UUID{communityID, resident.ID}), &fakeAudit{})

	reg, err := svc.Register(context.Background(), resident, event.ID, RegisterEventRequest{Note: "  first timer  "})
	require.NoError(t, err)
	assert.Equal(t, string(moderation.StatusPending), reg.Status)
	assert.Equal(t, "first timer", reg.Note)
	assert.Nil(t, reg.TicketCode, "tickets are issued at approval, not registration")
	assert.Equal(t, 10, event.AvailableSlots, "pending registrations hold no inventory")

	// One registration per user per event.
	_, err = svc.Register(context.Background(), resident, event.ID, RegisterEventRequest{})
	var vErr *moderation.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRegisterRequiresMembership(t *testing.T) {
	repo := newFakeEventRepository()
	event := &model.Event{ID: uuid.New(), CommunityID: uuid.New(), Capacity: 5, AvailableSlots: 5}
	require.NoError(t, repo.Create(context.Background(), event))

	svc := NewEventService(repo, memberCommunities(), &fakeAudit{})

	stranger := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	_, err := svc.Register(context.Background(), stranger, event.ID, RegisterEventRequest{})
	assert.ErrorIs(t, err, moderation.ErrForbidden)
}

func TestRosterVisibleToScopeOnly(t *testing.T) {
	repo := newFakeEventRepository()
	communityID := uuid.New()
	event := &model.Event{ID: uuid.New(), CommunityID: communityID, Capacity: 5, AvailableSlots: 5}
	require.NoError(t, repo.Create(context.Background(), event))

	svc := NewEventService(repo, memberCommunities(), &fakeAudit{})

	outsider := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{uuid.New()}}
	_, _, err := svc.Roster(context.Background(), outsider, event.ID, 1, 20)
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	inScope := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager, ManagedCommunityIDs: []uuid.UUID{communityID}}
	_, _, err = svc.Roster(context.Background(), inScope, event.ID, 1, 20)
	assert.NoError(t, err)
}

func TestMyRegistrationNotFound(t *testing.T) {
	repo := newFakeEventRepository()
	event := &model.Event{ID: uuid.New(), CommunityID: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), event))

	svc := NewEventService(repo, memberCommunities(), &fakeAudit{})
	actor := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}

	_, err := svc.MyRegistration(context.Background(), actor, event.ID)
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}
