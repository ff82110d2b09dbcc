package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/moderation"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateEventRequest struct {
	CommunityID string    `json:"community_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required"`
	EntryFee    string    `json:"entry_fee"`
}

type RegisterEventRequest struct {
	Note string `json:"note"`
}

type EventService interface {
	Create(ctx context.Context, actor moderation.Actor, req CreateEventRequest) (*model.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	List(ctx context.Context, communityID *uuid.UUID, upcomingOnly bool, page, limit int) ([]model.Event, int64, error)

	Register(ctx context.Context, actor moderation.Actor, eventID uuid.UUID, req RegisterEventRequest) (*model.EventRegistration, error)
	Roster(ctx context.Context, actor moderation.Actor, eventID uuid.UUID, page, limit int) ([]model.EventRegistration, int64, error)
	MyRegistration(ctx context.Context, actor moderation.Actor, eventID uuid.UUID) (*model.EventRegistration, error)
}

type eventService struct {
	events      repository.EventRepository
	communities repository.CommunityRepository
	audit       auditRecorder
}

func NewEventService(events repository.EventRepository, communities repository.CommunityRepository, audit auditRecorder) EventService {
	return &eventService{events: events, communities: communities, audit: audit}
}

func (s *eventService) Create(ctx context.Context, actor moderation.Actor, req CreateEventRequest) (*model.Event, error) {
	communityID, err := uuid.Parse(req.CommunityID)
	if err != nil {
		return nil, &moderation.ValidationError{Field: "community_id", Reason: "must be a valid uuid"}
	}
	if !actor.CanModerate(communityID) {
		return nil, moderation.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &moderation.ValidationError{Field: "title", Reason: "event title is required"}
	}
	if req.Capacity <= 0 {
		return nil, &moderation.ValidationError{Field: "capacity", Reason: "capacity must be positive"}
	}

	fee := decimal.Zero
	if req.EntryFee != "" {
		fee, err = decimal.NewFromString(req.EntryFee)
		if err != nil || fee.IsNegative() {
			return nil, &moderation.ValidationError{Field: "entry_fee", Reason: "entry fee must be a non-negative decimal"}
		}
	}

	if _, err := s.communities.FindByID(ctx, communityID); err != nil {
		return nil, mapNotFound(err)
	}

	event := &model.Event{
		CommunityID:    communityID,
		Title:          title,
		Description:    req.Description,
		Location:       req.Location,
		StartsAt:       req.StartsAt,
		Capacity:       req.Capacity,
		AvailableSlots: req.Capacity,
		EntryFee:       fee,
		CreatedBy:      &actor.ID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := s.audit.Record(ctx, &actor.ID, model.ActionCreateEvent, event.ID.String(), title, map[string]interface{}{
		"community_id": communityID.String(),
		"capacity":     req.Capacity,
	}); err != nil {
		log.Printf("WARNING: failed to write audit log for event %s: %v", event.ID, err)
	}

	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, communityID *uuid.UUID, upcomingOnly bool, page, limit int) ([]model.Event, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.events.List(ctx, communityID, upcomingOnly, page, limit)
}

func (s *eventService) Register(ctx context.Context, actor moderation.Actor, eventID uuid.UUID, req RegisterEventRequest) (*model.EventRegistration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	isMember, err := s.communities.HasMembership(ctx, event.CommunityID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !isMember && actor.Role == moderation.RoleResident {
		return nil, moderation.ErrForbidden
	}

	existing, err := s.events.FindRegistrationByUser(ctx, eventID, actor.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &moderation.ValidationError{Field: "event_id", Reason: "you have already registered for this event"}
	}

	reg := &model.EventRegistration{
		EventID: eventID,
		UserID:  actor.ID,
		Note:    strings.TrimSpace(req.Note),
		Status:  string(moderation.StatusPending),
	}
	if err := s.events.CreateRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if err := s.audit.Record(ctx, &actor.ID, model.ActionSubmitResource, reg.ID.String(), string(moderation.KindEventRegistration), map[string]interface{}{
		"event_id": eventID.String(),
	}); err != nil {
		log.Printf("WARNING: failed to write audit log for registration %s: %v", reg.ID, err)
	}

	return reg, nil
}

func (s *eventService) Roster(ctx context.Context, actor moderation.Actor, eventID uuid.UUID, page, limit int) ([]model.EventRegistration, int64, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, 0, mapNotFound(err)
	}
	if !actor.CanModerate(event.CommunityID) {
		return nil, 0, moderation.ErrForbidden
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.events.ListRoster(ctx, eventID, page, limit)
}

func (s *eventService) MyRegistration(ctx context.Context, actor moderation.Actor, eventID uuid.UUID) (*model.EventRegistration, error) {
	reg, err := s.events.FindRegistrationByUser(ctx, eventID, actor.ID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return reg, nil
}
