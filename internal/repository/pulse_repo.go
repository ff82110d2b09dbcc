package repository

import (
	"context"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PulseRepository interface {
	Create(ctx context.Context, pulse *model.Pulse) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pulse, error)
	MarkReviewed(ctx context.Context, id uuid.UUID, d moderation.Decision) error

	// SetVisible flips the feed-visibility flag, the on-approve side effect.
	SetVisible(ctx context.Context, id uuid.UUID, visible bool) error

	ListFeed(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.Pulse, int64, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, page, limit int) ([]model.Pulse, int64, error)
	ListPending(ctx context.Context, f moderation.PendingFilter) ([]model.Pulse, int64, error)
	CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error)
}

type pulseRepository struct {
	db *gorm.DB
}

func NewPulseRepository(db *gorm.DB) PulseRepository {
	return &pulseRepository{db: db}
}

func (r *pulseRepository) Create(ctx context.Context, pulse *model.Pulse) error {
	return GetDB(ctx, r.db).Create(pulse).Error
}

func (r *pulseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Pulse, error) {
	var pulse model.Pulse
	if err := GetDB(ctx, r.db).Preload("Author").Preload("Reviewer").
		First(&pulse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pulse, nil
}

func (r *pulseRepository) MarkReviewed(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	res := GetDB(ctx, r.db).Model(&model.Pulse{}).
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

func (r *pulseRepository) SetVisible(ctx context.Context, id uuid.UUID, visible bool) error {
	return GetDB(ctx, r.db).Model(&model.Pulse{}).
		Where("id = ?", id).
		Update("visible", visible).Error
}

// ListFeed returns only approved, visible pulses — the public community feed.
func (r *pulseRepository) ListFeed(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.Pulse, int64, error) {
	var pulses []model.Pulse
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Pulse{}).
		Where("community_id = ? AND visible = TRUE AND status = ?", communityID, moderation.StatusApproved)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Author").
		Where("community_id = ? AND visible = TRUE AND status = ?", communityID, moderation.StatusApproved).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pulses).Error; err != nil {
		return nil, 0, err
	}

	return pulses, total, nil
}

func (r *pulseRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, page, limit int) ([]model.Pulse, int64, error) {
	var pulses []model.Pulse
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Pulse{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("author_id = ?", authorID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pulses).Error; err != nil {
		return nil, 0, err
	}

	return pulses, total, nil
}

func (r *pulseRepository) ListPending(ctx context.Context, f moderation.PendingFilter) ([]model.Pulse, int64, error) {
	var pulses []model.Pulse
	var total int64

	db := GetDB(ctx, r.db)
	buildQuery := func() *gorm.DB {
		q := db.Model(&model.Pulse{}).Where("status = ?", moderation.StatusPending)
		if f.CommunityIDs != nil {
			q = q.Where("community_id IN ?", f.CommunityIDs)
		}
		if f.Search != "" {
			q = q.Where("body ILIKE ?", "%"+f.Search+"%")
		}
		return q
	}

	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := buildQuery().Preload("Author").
		Order("created_at ASC").
		Offset(offset).Limit(f.Limit).
		Find(&pulses).Error; err != nil {
		return nil, 0, err
	}

	return pulses, total, nil
}

func (r *pulseRepository) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return countByStatus(GetDB(ctx, r.db).Model(&model.Pulse{}), "community_id", communityIDs)
}
