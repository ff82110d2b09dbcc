package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeListingRepo struct {
	listings map[uuid.UUID]*model.MarketplaceListing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[uuid.UUID]*model.MarketplaceListing)}
}

func (f *fakeListingRepo) Create(_ context.Context, listing *model.MarketplaceListing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MarketplaceListing, error) {
	listing, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	view := *listing
	return &view, nil
}

func (f *fakeListingRepo) MarkReviewed(_ context.Context, id uuid.UUID, d moderation.Decision) error {
	listing, ok := f.listings[id]
	if !ok || listing.Status != string(moderation.StatusPending) {
		return moderation.ErrInvalidTransition
	}
	listing.Status = string(d.Status)
	return nil
}

func (f *fakeListingRepo) SetVisible(_ context.Context, id uuid.UUID, visible bool) error {
	listing, ok := f.listings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	listing.Visible = visible
	return nil
}

func (f *fakeListingRepo) UpdateStatusFrom(_ context.Context, id uuid.UUID, from, to moderation.Status) error {
	listing, ok := f.listings[id]
	if !ok || listing.Status != string(from) {
		return moderation.ErrInvalidTransition
	}
	listing.Status = string(to)
	return nil
}

func (f *fakeListingRepo) Search(_ context.Context, _ *uuid.UUID, _, _ string, _, _ int) ([]model.MarketplaceListing, int64, error) {
	return nil, 0, nil
}

func (f *fakeListingRepo) ListBySeller(_ context.Context, _ uuid.UUID, _, _ int) ([]model.MarketplaceListing, int64, error) {
	return nil, 0, nil
}

func (f *fakeListingRepo) ListPending(_ context.Context, _ moderation.PendingFilter) ([]model.MarketplaceListing, int64, error) {
	return nil, 0, nil
}

func (f *fakeListingRepo) CountByStatus(_ context.Context, _ []uuid.UUID) (map[moderation.Status]int64, error) {
	return nil, nil
}

type fakeCommunityMembers struct {
	members map[uuid.UUID]map[uuid.UUID]bool
}

func (f *fakeCommunityMembers) Create(_ context.Context, _ *model.Community) error  { return nil }
func (f *fakeCommunityMembers) Update(_ context.Context, _ *model.Community) error  { return nil }
func (f *fakeCommunityMembers) FindByID(_ context.Context, _ uuid.UUID) (*model.Community, error) {
	return &model.Community{}, nil
}
func (f *fakeCommunityMembers) List(_ context.Context, _ string, _, _ int) ([]model.Community, int64, error) {
	return nil, 0, nil
}
func (f *fakeCommunityMembers) CreateMembership(_ context.Context, m *model.CommunityMembership) error {
	if f.members == nil {
		f.members = make(map[uuid.UUID]map[uuid.UUID]bool)
	}
	if f.members[m.CommunityID] == nil {
		f.members[m.CommunityID] = make(map[uuid.UUID]bool)
	}
	f.members[m.CommunityID][m.UserID] = true
	return nil
}
func (f *fakeCommunityMembers) HasMembership(_ context.Context, communityID, userID uuid.UUID) (bool, error) {
	return f.members[communityID][userID], nil
}
func (f *fakeCommunityMembers) ListMembers(_ context.Context, _ uuid.UUID, _, _ int) ([]model.CommunityMembership, int64, error) {
	return nil, 0, nil
}
func (f *fakeCommunityMembers) AssignManager(_ context.Context, _ *model.CommunityManager) error {
	return nil
}
func (f *fakeCommunityMembers) RevokeManager(_ context.Context, _, _ uuid.UUID) error { return nil }
func (f *fakeCommunityMembers) ManagedCommunityIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func memberCommunities(pairs ...[2]uuid.UUID) *fakeCommunityMembers {
	f := &fakeCommunityMembers{members: make(map[uuid.UUID]map[uuid.UUID]bool)}
	for _, p := range pairs {
		if f.members[p[0]] == nil {
			f.members[p[0]] = make(map[uuid.UUID]bool)
		}
		f.members[p[0]][p[1]] = true
	}
	return f
}

func TestSubmitListingStartsPendingAndHidden(t *testing.T) {
	listings := newFakeListingRepo()
	communityID := uuid.New()
	seller := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}

	svc := NewListingService(listings, memberCommunities([2]uuid.UUID{communityID, seller.ID}), &fakeAudit{}, passthroughTx{})

	listing, err := svc.Submit(context.Background(), seller, SubmitListingRequest{
		CommunityID: communityID.String(),
		Title:       "  Road bike  ",
		Price:       "120.50",
	})
	require.NoError(t, err)
	assert.Equal(t, string(moderation.StatusPending), listing.Status)
	assert.False(t, listing.Visible)
	assert.Equal(t, "Road bike", listing.Title)
	assert.True(t, listing.Price.Equal(decimal.RequireFromString("120.50")))
}

func TestSubmitListingRequiresMembership(t *testing.T) {
	svc := NewListingService(newFakeListingRepo(), memberCommunities(), &fakeAudit{}, passthroughTx{})
	stranger := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}

	_, err := svc.Submit(context.Background(), stranger, SubmitListingRequest{
		CommunityID: uuid.New().String(),
		Title:       "Road bike",
		Price:       "10",
	})
	assert.ErrorIs(t, err, moderation.ErrForbidden)
}

func TestSubmitListingRejectsBadPrice(t *testing.T) {
	communityID := uuid.New()
	seller := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	svc := NewListingService(newFakeListingRepo(), memberCommunities([2]uuid.UUID{communityID, seller.ID}), &fakeAudit{}, passthroughTx{})

	for _, price := range []string{"abc", "-5"} {
		_, err := svc.Submit(context.Background(), seller, SubmitListingRequest{
			CommunityID: communityID.String(),
			Title:       "Road bike",
			Price:       price,
		})
		var vErr *moderation.ValidationError
		assert.ErrorAs(t, err, &vErr, "price %q", price)
	}
}

func TestMarkSoldOnlyFromApproved(t *testing.T) {
	listings := newFakeListingRepo()
	seller := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	svc := NewListingService(listings, memberCommunities(), &fakeAudit{}, passthroughTx{})

	pending := &model.MarketplaceListing{
		SellerID: seller.ID,
		Status:   string(moderation.StatusPending),
	}
	require.NoError(t, listings.Create(context.Background(), pending))

	_, err := svc.MarkSold(context.Background(), seller, pending.ID)
	assert.ErrorIs(t, err, moderation.ErrInvalidTransition)

	approved := &model.MarketplaceListing{
		SellerID: seller.ID,
		Status:   string(moderation.StatusApproved),
		Visible:  true,
	}
	require.NoError(t, listings.Create(context.Background(), approved))

	sold, err := svc.MarkSold(context.Background(), seller, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, string(moderation.StatusSold), sold.Status)
	assert.False(t, sold.Visible, "sold listings leave the marketplace")

	// Terminal: a sold listing cannot be closed afterwards.
	_, err = svc.Close(context.Background(), seller, approved.ID)
	assert.ErrorIs(t, err, moderation.ErrInvalidTransition)
}

func TestOwnerTransitionForbiddenForNonOwner(t *testing.T) {
	listings := newFakeListingRepo()
	svc := NewListingService(listings, memberCommunities(), &fakeAudit{}, passthroughTx{})

	listing := &model.MarketplaceListing{
		SellerID: uuid.New(),
		Status:   string(moderation.StatusApproved),
	}
	require.NoError(t, listings.Create(context.Background(), listing))

	other := moderation.Actor{ID: uuid.New(), Role: moderation.RoleResident}
	_, err := svc.Close(context.Background(), other, listing.ID)
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	// Reviewers do not own the listing either; only admins may intervene.
	manager := moderation.Actor{ID: uuid.New(), Role: moderation.RoleManager}
	_, err = svc.Close(context.Background(), manager, listing.ID)
	assert.ErrorIs(t, err, moderation.ErrForbidden)

	admin := moderation.Actor{ID: uuid.New(), Role: moderation.RoleAdmin}
	closed, err := svc.Close(context.Background(), admin, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, string(moderation.StatusClosed), closed.Status)
}
