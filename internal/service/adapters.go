package service

import (
	"context"
	"errors"
	"strings"

	"backend/internal/model"
	"backend/internal/moderation"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mapNotFound translates the store's missing-record error into the engine's
// NotFound taxonomy entry.
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return moderation.ErrNotFound
	}
	return err
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// --- Join requests ---

type joinRequestAdapter struct {
	requests    repository.JoinRequestRepository
	communities repository.CommunityRepository
}

func NewJoinRequestAdapter(requests repository.JoinRequestRepository, communities repository.CommunityRepository) moderation.Adapter {
	return &joinRequestAdapter{requests: requests, communities: communities}
}

func (a *joinRequestAdapter) Kind() moderation.Kind { return moderation.KindJoinRequest }

func (a *joinRequestAdapter) Get(ctx context.Context, id uuid.UUID) (*moderation.Resource, error) {
	req, err := a.requests.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return joinRequestResource(req), nil
}

func (a *joinRequestAdapter) Transition(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	return a.requests.MarkReviewed(ctx, id, d)
}

// Finalize creates the membership record on approval. The insert is
// idempotent, so a reconciliation replay after a reported side-effect
// failure cannot double-enroll the resident.
func (a *joinRequestAdapter) Finalize(ctx context.Context, res moderation.Resource, d moderation.Decision) error {
	if d.Status != moderation.StatusApproved {
		return nil
	}
	return a.communities.CreateMembership(ctx, &model.CommunityMembership{
		CommunityID: res.CommunityID,
		UserID:      res.OwnerID,
	})
}

func (a *joinRequestAdapter) ListPending(ctx context.Context, f moderation.PendingFilter) ([]moderation.Resource, int64, error) {
	requests, total, err := a.requests.ListPending(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	resources := make([]moderation.Resource, 0, len(requests))
	for i := range requests {
		resources = append(resources, *joinRequestResource(&requests[i]))
	}
	return resources, total, nil
}

func (a *joinRequestAdapter) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return a.requests.CountByStatus(ctx, communityIDs)
}

func joinRequestResource(req *model.JoinRequest) *moderation.Resource {
	res := &moderation.Resource{
		ID:          req.ID,
		Kind:        moderation.KindJoinRequest,
		OwnerID:     req.UserID,
		CommunityID: req.CommunityID,
		Status:      moderation.Status(req.Status),
		ReviewedBy:  req.ReviewedBy,
		ReviewedAt:  req.ReviewedAt,
		ReviewNotes: req.ReviewNotes,
		CreatedAt:   req.CreatedAt,
		Summary:     snippet(req.Message, 80),
	}
	if req.User != nil {
		res.OwnerName = req.User.Username
		if res.Summary == "" {
			res.Summary = "Join request from " + req.User.Username
		}
	}
	return res
}

// --- Pulses ---

type pulseAdapter struct {
	pulses repository.PulseRepository
}

func NewPulseAdapter(pulses repository.PulseRepository) moderation.Adapter {
	return &pulseAdapter{pulses: pulses}
}

func (a *pulseAdapter) Kind() moderation.Kind { return moderation.KindPulse }

func (a *pulseAdapter) Get(ctx context.Context, id uuid.UUID) (*moderation.Resource, error) {
	pulse, err := a.pulses.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return pulseResource(pulse), nil
}

func (a *pulseAdapter) Transition(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	return a.pulses.MarkReviewed(ctx, id, d)
}

// Finalize publishes the pulse to the community feed on approval. A rejected
// pulse was never visible, so rejection needs no effect beyond the recorded
// notes.
func (a *pulseAdapter) Finalize(ctx context.Context, res moderation.Resource, d moderation.Decision) error {
	if d.Status != moderation.StatusApproved {
		return nil
	}
	return a.pulses.SetVisible(ctx, res.ID, true)
}

func (a *pulseAdapter) ListPending(ctx context.Context, f moderation.PendingFilter) ([]moderation.Resource, int64, error) {
	pulses, total, err := a.pulses.ListPending(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	resources := make([]moderation.Resource, 0, len(pulses))
	for i := range pulses {
		resources = append(resources, *pulseResource(&pulses[i]))
	}
	return resources, total, nil
}

func (a *pulseAdapter) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return a.pulses.CountByStatus(ctx, communityIDs)
}

func pulseResource(pulse *model.Pulse) *moderation.Resource {
	res := &moderation.Resource{
		ID:          pulse.ID,
		Kind:        moderation.KindPulse,
		OwnerID:     pulse.AuthorID,
		CommunityID: pulse.CommunityID,
		Status:      moderation.Status(pulse.Status),
		ReviewedBy:  pulse.ReviewedBy,
		ReviewedAt:  pulse.ReviewedAt,
		ReviewNotes: pulse.ReviewNotes,
		CreatedAt:   pulse.CreatedAt,
		Summary:     snippet(pulse.Body, 80),
	}
	if pulse.Author != nil {
		res.OwnerName = pulse.Author.Username
	}
	return res
}

// --- Marketplace listings ---

type listingAdapter struct {
	listings repository.ListingRepository
}

func NewListingAdapter(listings repository.ListingRepository) moderation.Adapter {
	return &listingAdapter{listings: listings}
}

func (a *listingAdapter) Kind() moderation.Kind { return moderation.KindListing }

func (a *listingAdapter) Get(ctx context.Context, id uuid.UUID) (*moderation.Resource, error) {
	listing, err := a.listings.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return listingResource(listing), nil
}

func (a *listingAdapter) Transition(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	return a.listings.MarkReviewed(ctx, id, d)
}

func (a *listingAdapter) Finalize(ctx context.Context, res moderation.Resource, d moderation.Decision) error {
	if d.Status != moderation.StatusApproved {
		return nil
	}
	return a.listings.SetVisible(ctx, res.ID, true)
}

func (a *listingAdapter) ListPending(ctx context.Context, f moderation.PendingFilter) ([]moderation.Resource, int64, error) {
	listings, total, err := a.listings.ListPending(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	resources := make([]moderation.Resource, 0, len(listings))
	for i := range listings {
		resources = append(resources, *listingResource(&listings[i]))
	}
	return resources, total, nil
}

func (a *listingAdapter) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return a.listings.CountByStatus(ctx, communityIDs)
}

func listingResource(listing *model.MarketplaceListing) *moderation.Resource {
	res := &moderation.Resource{
		ID:          listing.ID,
		Kind:        moderation.KindListing,
		OwnerID:     listing.SellerID,
		CommunityID: listing.CommunityID,
		Status:      moderation.Status(listing.Status),
		ReviewedBy:  listing.ReviewedBy,
		ReviewedAt:  listing.ReviewedAt,
		ReviewNotes: listing.ReviewNotes,
		CreatedAt:   listing.CreatedAt,
		Summary:     listing.Title,
	}
	if listing.Seller != nil {
		res.OwnerName = listing.Seller.Username
	}
	return res
}

// --- Event registrations ---

type eventRegistrationAdapter struct {
	events repository.EventRepository
}

func NewEventRegistrationAdapter(events repository.EventRepository) moderation.Adapter {
	return &eventRegistrationAdapter{events: events}
}

func (a *eventRegistrationAdapter) Kind() moderation.Kind { return moderation.KindEventRegistration }

func (a *eventRegistrationAdapter) Get(ctx context.Context, id uuid.UUID) (*moderation.Resource, error) {
	reg, err := a.events.FindRegistration(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return registrationResource(reg), nil
}

// Transition couples the slot decrement and ticket issuance into the
// approval transaction: capacity is the invariant approval guards, so unlike
// the other kinds this consequence cannot be deferred past the commit.
func (a *eventRegistrationAdapter) Transition(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	if d.Status == moderation.StatusApproved {
		return a.events.ApproveRegistration(ctx, id, d, newTicketCode())
	}
	return a.events.RejectRegistration(ctx, id, d)
}

// Finalize is a no-op: the durable consequences (slot, ticket) already
// committed with the transition, and a rejected registration drops out of
// the roster by status.
func (a *eventRegistrationAdapter) Finalize(ctx context.Context, res moderation.Resource, d moderation.Decision) error {
	return nil
}

func (a *eventRegistrationAdapter) ListPending(ctx context.Context, f moderation.PendingFilter) ([]moderation.Resource, int64, error) {
	regs, total, err := a.events.ListPendingRegistrations(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	resources := make([]moderation.Resource, 0, len(regs))
	for i := range regs {
		resources = append(resources, *registrationResource(&regs[i]))
	}
	return resources, total, nil
}

func (a *eventRegistrationAdapter) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return a.events.CountRegistrationsByStatus(ctx, communityIDs)
}

func registrationResource(reg *model.EventRegistration) *moderation.Resource {
	res := &moderation.Resource{
		ID:          reg.ID,
		Kind:        moderation.KindEventRegistration,
		OwnerID:     reg.UserID,
		Status:      moderation.Status(reg.Status),
		ReviewedBy:  reg.ReviewedBy,
		ReviewedAt:  reg.ReviewedAt,
		ReviewNotes: reg.ReviewNotes,
		CreatedAt:   reg.CreatedAt,
	}
	if reg.Event != nil {
		res.CommunityID = reg.Event.CommunityID
		res.Summary = "Registration for " + reg.Event.Title
	}
	if reg.User != nil {
		res.OwnerName = reg.User.Username
	}
	return res
}

func newTicketCode() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}
