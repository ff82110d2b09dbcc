package service

import (
	"context"
	"fmt"

	"backend/internal/model"
	"backend/internal/moderation"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// notificationPusher is the live delivery channel (the websocket hub).
type notificationPusher interface {
	SendToUser(userID, event string, payload interface{})
}

type NotificationService interface {
	// NotifyDecision persists and pushes the owner-facing message for a
	// moderation decision. Rejections always carry the reviewer's reason.
	NotifyDecision(ctx context.Context, res moderation.Resource, d moderation.Decision) error

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher notificationPusher
}

func NewNotificationService(repo repository.NotificationRepository, pusher notificationPusher) NotificationService {
	return &notificationService{repo: repo, pusher: pusher}
}

// kindLabels maps moderation kinds to owner-facing wording.
var kindLabels = map[moderation.Kind]string{
	moderation.KindJoinRequest:       "join request",
	moderation.KindPulse:             "pulse",
	moderation.KindListing:           "marketplace listing",
	moderation.KindEventRegistration: "event registration",
}

func (s *notificationService) NotifyDecision(ctx context.Context, res moderation.Resource, d moderation.Decision) error {
	label := kindLabels[res.Kind]
	if label == "" {
		label = "submission"
	}

	notification := &model.Notification{
		UserID:  res.OwnerID,
		RefKind: string(res.Kind),
		RefID:   res.ID,
	}

	switch d.Status {
	case moderation.StatusApproved:
		notification.Type = model.NotifTypeResourceApproved
		notification.Title = fmt.Sprintf("Your %s was approved", label)
		notification.Message = res.Summary
	case moderation.StatusRejected:
		notification.Type = model.NotifTypeResourceRejected
		notification.Title = fmt.Sprintf("Your %s was rejected", label)
		notification.Message = d.Notes
	default:
		return fmt.Errorf("no notification defined for decision status %s", d.Status)
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	s.pusher.SendToUser(res.OwnerID.String(), "notification", notification)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, page, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
