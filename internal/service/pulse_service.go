package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"backend/internal/model"
	"backend/internal/moderation"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type SubmitPulseRequest struct {
	CommunityID string `json:"community_id" binding:"required"`
	Body        string `json:"body" binding:"required"`
	ImageURL    string `json:"image_url"`
}

type PulseService interface {
	// Submit creates the pulse PENDING and hidden; it reaches the feed
	// only through the moderation workflow.
	Submit(ctx context.Context, actor moderation.Actor, req SubmitPulseRequest) (*model.Pulse, error)
	Feed(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.Pulse, int64, error)
	MyPulses(ctx context.Context, actor moderation.Actor, page, limit int) ([]model.Pulse, int64, error)
}

type pulseService struct {
	pulses      repository.PulseRepository
	communities repository.CommunityRepository
	audit       auditRecorder
}

func NewPulseService(pulses repository.PulseRepository, communities repository.CommunityRepository, audit auditRecorder) PulseService {
	return &pulseService{pulses: pulses, communities: communities, audit: audit}
}

func (s *pulseService) Submit(ctx context.Context, actor moderation.Actor, req SubmitPulseRequest) (*model.Pulse, error) {
	communityID, err := uuid.Parse(req.CommunityID)
	if err != nil {
		return nil, &moderation.ValidationError{Field: "community_id", Reason: "must be a valid uuid"}
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, &moderation.ValidationError{Field: "body", Reason: "pulse body is required"}
	}

	// Only members may post into a community feed.
	isMember, err := s.communities.HasMembership(ctx, communityID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !isMember && actor.Role == moderation.RoleResident {
		return nil, moderation.ErrForbidden
	}

	pulse := &model.Pulse{
		CommunityID: communityID,
		AuthorID:    actor.ID,
		Body:        body,
		ImageURL:    req.ImageURL,
		Visible:     false,
		Status:      string(moderation.StatusPending),
	}
	if err := s.pulses.Create(ctx, pulse); err != nil {
		return nil, fmt.Errorf("failed to create pulse: %w", err)
	}

	if err := s.audit.Record(ctx, &actor.ID, model.ActionSubmitResource, pulse.ID.String(), string(moderation.KindPulse), map[string]interface{}{
		"community_id": communityID.String(),
	}); err != nil {
		log.Printf("WARNING: failed to write audit log for pulse %s: %v", pulse.ID, err)
	}

	return pulse, nil
}

func (s *pulseService) Feed(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.Pulse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.pulses.ListFeed(ctx, communityID, page, limit)
}

func (s *pulseService) MyPulses(ctx context.Context, actor moderation.Actor, page, limit int) ([]model.Pulse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.pulses.ListByAuthor(ctx, actor.ID, page, limit)
}
