package repository

import (
	"context"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *model.MarketplaceListing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MarketplaceListing, error)
	MarkReviewed(ctx context.Context, id uuid.UUID, d moderation.Decision) error
	SetVisible(ctx context.Context, id uuid.UUID, visible bool) error

	// UpdateStatusFrom moves a listing between post-approval business states
	// with the same conditional-update guard the review transition uses.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to moderation.Status) error

	Search(ctx context.Context, communityID *uuid.UUID, category, search string, page, limit int) ([]model.MarketplaceListing, int64, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.MarketplaceListing, int64, error)
	ListPending(ctx context.Context, f moderation.PendingFilter) ([]model.MarketplaceListing, int64, error)
	CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.MarketplaceListing) error {
	return GetDB(ctx, r.db).Create(listing).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MarketplaceListing, error) {
	var listing model.MarketplaceListing
	if err := GetDB(ctx, r.db).Preload("Seller").Preload("Reviewer").
		First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) MarkReviewed(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	res := GetDB(ctx, r.db).Model(&model.MarketplaceListing{}).
		Where("id = ? AND status = ?", id, moderation.StatusPending).
		Updates(reviewUpdates(d))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return moderation.ErrInvalidTransition
	}
	return nil
}

func (r *listingRepository) SetVisible(ctx context.Context, id uuid.UUID, visible bool) error {
	return GetDB(ctx, r.db).Model(&model.MarketplaceListing{}).
		Where("id = ?", id).
		Update("visible", visible).Error
}

func (r *listingRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to moderation.Status) error {
	res := GetDB(ctx, r.db).Model(&model.MarketplaceListing{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return moderation.ErrInvalidTransition
	}
	return nil
}

// Search covers only approved, visible listings — the public marketplace.
func (r *listingRepository) Search(ctx context.Context, communityID *uuid.UUID, category, search string, page, limit int) ([]model.MarketplaceListing, int64, error) {
	var listings []model.MarketplaceListing
	var total int64

	db := GetDB(ctx, r.db)
	buildQuery := func() *gorm.DB {
		q := db.Model(&model.MarketplaceListing{}).
			Where("visible = TRUE AND status = ?", moderation.StatusApproved)
		if communityID != nil {
			q = q.Where("community_id = ?", *communityID)
		}
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if search != "" {
			q = q.Where("title ILIKE ? OR description ILIKE ?", "%"+search+"%", "%"+search+"%")
		}
		return q
	}

	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := buildQuery().Preload("Seller").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *listingRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.MarketplaceListing, int64, error) {
	var listings []model.MarketplaceListing
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.MarketplaceListing{}).Where("seller_id = ?", sellerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *listingRepository) ListPending(ctx context.Context, f moderation.PendingFilter) ([]model.MarketplaceListing, int64, error) {
	var listings []model.MarketplaceListing
	var total int64

	db := GetDB(ctx, r.db)
	buildQuery := func() *gorm.DB {
		q := db.Model(&model.MarketplaceListing{}).Where("status = ?", moderation.StatusPending)
		if f.CommunityIDs != nil {
			q = q.Where("community_id IN ?", f.CommunityIDs)
		}
		if f.Search != "" {
			q = q.Where("title ILIKE ? OR description ILIKE ?", "%"+f.Search+"%", "%"+f.Search+"%")
		}
		return q
	}

	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := buildQuery().Preload("Seller").
		Order("created_at ASC").
		Offset(offset).Limit(f.Limit).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *listingRepository) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return countByStatus(GetDB(ctx, r.db).Model(&model.MarketplaceListing{}), "community_id", communityIDs)
}
