package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"backend/internal/model"
	"backend/internal/moderation"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

type UpdateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

type AssignManagerRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type SubmitJoinRequestDTO struct {
	Message string `json:"message"`
}

type CommunityService interface {
	Create(ctx context.Context, actor moderation.Actor, req CreateCommunityRequest) (*model.Community, error)
	Update(ctx context.Context, actor moderation.Actor, id uuid.UUID, req UpdateCommunityRequest) (*model.Community, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Community, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Community, int64, error)
	ListMembers(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.CommunityMembership, int64, error)

	AssignManager(ctx context.Context, actor moderation.Actor, communityID, userID uuid.UUID) error
	RevokeManager(ctx context.Context, actor moderation.Actor, communityID, userID uuid.UUID) error

	// SubmitJoinRequest enters the resident into the moderation workflow
	// with a PENDING request; membership appears only after approval.
	SubmitJoinRequest(ctx context.Context, actor moderation.Actor, communityID uuid.UUID, req SubmitJoinRequestDTO) (*model.JoinRequest, error)
	MyJoinRequests(ctx context.Context, actor moderation.Actor, page, limit int) ([]model.JoinRequest, int64, error)
}

type communityService struct {
	communities repository.CommunityRepository
	requests    repository.JoinRequestRepository
	users       repository.UserRepository
	audit       auditRecorder
}

func NewCommunityService(communities repository.CommunityRepository, requests repository.JoinRequestRepository, users repository.UserRepository, audit auditRecorder) CommunityService {
	return &communityService{communities: communities, requests: requests, users: users, audit: audit}
}

func (s *communityService) Create(ctx context.Context, actor moderation.Actor, req CreateCommunityRequest) (*model.Community, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &moderation.ValidationError{Field: "name", Reason: "community name is required"}
	}

	community := &model.Community{
		Name:        name,
		Description: req.Description,
		Address:     req.Address,
		CreatedBy:   &actor.ID,
	}
	if err := s.communities.Create(ctx, community); err != nil {
		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	s.auditAction(ctx, actor, model.ActionCreateCommunity, community.ID.String(), community.Name, nil)
	return community, nil
}

func (s *communityService) Update(ctx context.Context, actor moderation.Actor, id uuid.UUID, req UpdateCommunityRequest) (*model.Community, error) {
	community, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if req.Name != "" {
		community.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		community.Description = req.Description
	}
	if req.Address != "" {
		community.Address = req.Address
	}

	if err := s.communities.Update(ctx, community); err != nil {
		return nil, fmt.Errorf("failed to update community: %w", err)
	}

	s.auditAction(ctx, actor, model.ActionUpdateCommunity, community.ID.String(), community.Name, nil)
	return community, nil
}

func (s *communityService) GetByID(ctx context.Context, id uuid.UUID) (*model.Community, error) {
	community, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return community, nil
}

func (s *communityService) List(ctx context.Context, search string, page, limit int) ([]model.Community, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.communities.List(ctx, search, page, limit)
}

func (s *communityService) ListMembers(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.CommunityMembership, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.communities.ListMembers(ctx, communityID, page, limit)
}

func (s *communityService) AssignManager(ctx context.Context, actor moderation.Actor, communityID, userID uuid.UUID) error {
	if _, err := s.communities.FindByID(ctx, communityID); err != nil {
		return mapNotFound(err)
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		return errors.New("user not found")
	}
	if user.Role != moderation.RoleManager && user.Role != moderation.RoleAdmin {
		return &moderation.ValidationError{Field: "user_id", Reason: "user must hold the manager role"}
	}

	if err := s.communities.AssignManager(ctx, &model.CommunityManager{
		CommunityID: communityID,
		UserID:      userID,
		AssignedBy:  &actor.ID,
	}); err != nil {
		return fmt.Errorf("failed to assign manager: %w", err)
	}

	s.auditAction(ctx, actor, model.ActionAssignManager, communityID.String(), user.Username, map[string]interface{}{
		"user_id": userID.String(),
	})
	return nil
}

func (s *communityService) RevokeManager(ctx context.Context, actor moderation.Actor, communityID, userID uuid.UUID) error {
	if err := s.communities.RevokeManager(ctx, communityID, userID); err != nil {
		return fmt.Errorf("failed to revoke manager: %w", err)
	}

	s.auditAction(ctx, actor, model.ActionRevokeManager, communityID.String(), "", map[string]interface{}{
		"user_id": userID.String(),
	})
	return nil
}

func (s *communityService) SubmitJoinRequest(ctx context.Context, actor moderation.Actor, communityID uuid.UUID, req SubmitJoinRequestDTO) (*model.JoinRequest, error) {
	if _, err := s.communities.FindByID(ctx, communityID); err != nil {
		return nil, mapNotFound(err)
	}

	isMember, err := s.communities.HasMembership(ctx, communityID, actor.ID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, &moderation.ValidationError{Field: "community_id", Reason: "already a member of this community"}
	}

	hasPending, err := s.requests.HasPending(ctx, communityID, actor.ID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, &moderation.ValidationError{Field: "community_id", Reason: "a join request is already pending for this community"}
	}

	request := &model.JoinRequest{
		CommunityID: communityID,
		UserID:      actor.ID,
		Message:     strings.TrimSpace(req.Message),
		Status:      string(moderation.StatusPending),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	s.auditAction(ctx, actor, model.ActionSubmitResource, request.ID.String(), string(moderation.KindJoinRequest), map[string]interface{}{
		"community_id": communityID.String(),
	})
	return request, nil
}

func (s *communityService) MyJoinRequests(ctx context.Context, actor moderation.Actor, page, limit int) ([]model.JoinRequest, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.requests.ListByUser(ctx, actor.ID, page, limit)
}

// auditAction writes the trail entry; audit failures never block the
// primary operation.
func (s *communityService) auditAction(ctx context.Context, actor moderation.Actor, action, entityID, entityName string, details map[string]interface{}) {
	if err := s.audit.Record(ctx, &actor.ID, action, entityID, entityName, details); err != nil {
		log.Printf("WARNING: failed to write audit log for %s %s: %v", action, entityID, err)
	}
}
