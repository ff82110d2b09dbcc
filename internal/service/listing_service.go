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
	"github.com/shopspring/decimal"
)

type SubmitListingRequest struct {
	CommunityID string `json:"community_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price" binding:"required"`
}

type ListingSearchFilter struct {
	CommunityID *uuid.UUID
	Category    string
	Search      string
	Page        int
	Limit       int
}

type ListingService interface {
	Submit(ctx context.Context, actor moderation.Actor, req SubmitListingRequest) (*model.MarketplaceListing, error)
	Search(ctx context.Context, filter ListingSearchFilter) ([]model.MarketplaceListing, int64, error)
	MyListings(ctx context.Context, actor moderation.Actor, page, limit int) ([]model.MarketplaceListing, int64, error)

	// MarkSold and Close are owner-only business transitions, legal only
	// from APPROVED — they are outside the review lifecycle.
	MarkSold(ctx context.Context, actor moderation.Actor, id uuid.UUID) (*model.MarketplaceListing, error)
	Close(ctx context.Context, actor moderation.Actor, id uuid.UUID) (*model.MarketplaceListing, error)
}

type listingService struct {
	listings    repository.ListingRepository
	communities repository.CommunityRepository
	audit       auditRecorder
	txManager   repository.TransactionManager
}

func NewListingService(listings repository.ListingRepository, communities repository.CommunityRepository, audit auditRecorder, txManager repository.TransactionManager) ListingService {
	return &listingService{listings: listings, communities: communities, audit: audit, txManager: txManager}
}

func (s *listingService) Submit(ctx context.Context, actor moderation.Actor, req SubmitListingRequest) (*model.MarketplaceListing, error) {
	communityID, err := uuid.Parse(req.CommunityID)
	if err != nil {
		return nil, &moderation.ValidationError{Field: "community_id", Reason: "must be a valid uuid"}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &moderation.ValidationError{Field: "title", Reason: "listing title is required"}
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, &moderation.ValidationError{Field: "price", Reason: "price must be a non-negative decimal"}
	}

	isMember, err := s.communities.HasMembership(ctx, communityID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !isMember && actor.Role == moderation.RoleResident {
		return nil, moderation.ErrForbidden
	}

	listing := &model.MarketplaceListing{
		CommunityID: communityID,
		SellerID:    actor.ID,
		Title:       title,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Price:       price,
		Visible:     false,
		Status:      string(moderation.StatusPending),
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	if err := s.audit.Record(ctx, &actor.ID, model.ActionSubmitResource, listing.ID.String(), string(moderation.KindListing), map[string]interface{}{
		"community_id": communityID.String(),
		"price":        price.StringFixed(2),
	}); err != nil {
		log.Printf("WARNING: failed to write audit log for listing %s: %v", listing.ID, err)
	}

	return listing, nil
}

func (s *listingService) Search(ctx context.Context, filter ListingSearchFilter) ([]model.MarketplaceListing, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.listings.Search(ctx, filter.CommunityID, filter.Category, filter.Search, filter.Page, filter.Limit)
}

func (s *listingService) MyListings(ctx context.Context, actor moderation.Actor, page, limit int) ([]model.MarketplaceListing, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.listings.ListBySeller(ctx, actor.ID, page, limit)
}

func (s *listingService) MarkSold(ctx context.Context, actor moderation.Actor, id uuid.UUID) (*model.MarketplaceListing, error) {
	return s.ownerTransition(ctx, actor, id, moderation.StatusSold, model.ActionMarkListingSold)
}

func (s *listingService) Close(ctx context.Context, actor moderation.Actor, id uuid.UUID) (*model.MarketplaceListing, error) {
	return s.ownerTransition(ctx, actor, id, moderation.StatusClosed, model.ActionCloseListing)
}

func (s *listingService) ownerTransition(ctx context.Context, actor moderation.Actor, id uuid.UUID, to moderation.Status, action string) (*model.MarketplaceListing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if listing.SellerID != actor.ID && actor.Role != moderation.RoleAdmin {
		return nil, moderation.ErrForbidden
	}

	// A sold or closed listing leaves the public marketplace, so the
	// status flip and the visibility flip commit together.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.listings.UpdateStatusFrom(txCtx, id, moderation.StatusApproved, to); err != nil {
			return err
		}
		return s.listings.SetVisible(txCtx, id, false)
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, &actor.ID, action, id.String(), listing.Title, nil); err != nil {
		log.Printf("WARNING: failed to write audit log for listing %s: %v", id, err)
	}

	listing.Status = string(to)
	listing.Visible = false
	return listing, nil
}
