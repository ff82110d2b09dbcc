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

type fakeNotificationRepo struct {
	created []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, _ uuid.UUID, _ bool, _, _ int) ([]model.Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, _ uuid.UUID) error { return nil }

type fakePusher struct {
	sent []string
}

func (f *fakePusher) SendToUser(userID, _ string, _ interface{}) {
	f.sent = append(f.sent, userID)
}

func TestNotifyDecisionApproved(t *testing.T) {
	repo := &fakeNotificationRepo{}
	pusher := &fakePusher{}
	svc := NewNotificationService(repo, pusher)

	owner := uuid.New()
	res := moderation.Resource{
		ID:      uuid.New(),
		Kind:    moderation.KindListing,
		OwnerID: owner,
		Summary: "Bike for sale",
	}
	d := moderation.Decision{Status: moderation.StatusApproved, ReviewerID: uuid.New(), ReviewedAt: time.Now()}

	require.NoError(t, svc.NotifyDecision(context.Background(), res, d))

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, owner, n.UserID)
	assert.Equal(t, model.NotifTypeResourceApproved, n.Type)
	assert.Equal(t, "Your marketplace listing was approved", n.Title)
	assert.Equal(t, "Bike for sale", n.Message)
	assert.Equal(t, res.ID, n.RefID)

	assert.Equal(t, []string{owner.String()}, pusher.sent)
}

func TestNotifyDecisionRejectedCarriesReason(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakePusher{})

	res := moderation.Resource{
		ID:      uuid.New(),
		Kind:    moderation.KindJoinRequest,
		OwnerID: uuid.New(),
	}
	d := moderation.Decision{
		Status:     moderation.StatusRejected,
		ReviewerID: uuid.New(),
		ReviewedAt: time.Now(),
		Notes:      "lease documents missing",
	}

	require.NoError(t, svc.NotifyDecision(context.Background(), res, d))

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, model.NotifTypeResourceRejected, n.Type)
	assert.Equal(t, "Your join request was rejected", n.Title)
	assert.Equal(t, "lease documents missing", n.Message, "the owner must always see the reason")
}
