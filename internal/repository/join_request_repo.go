package repository

import (
	"context"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JoinRequestRepository interface {
	Create(ctx context.Context, req *model.JoinRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error)
	HasPending(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.JoinRequest, int64, error)

	// MarkReviewed applies the decision only while status is still PENDING;
	// the losing call of a concurrent double-moderation gets
	// moderation.ErrInvalidTransition.
	MarkReviewed(ctx context.Context, id uuid.UUID, d moderation.Decision) error

	ListPending(ctx context.Context, f moderation.PendingFilter) ([]model.JoinRequest, int64, error)
	CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error)
}

type joinRequestRepository struct {
	db *gorm.DB
}

func NewJoinRequestRepository(db *gorm.DB) JoinRequestRepository {
	return &joinRequestRepository{db: db}
}

func (r *joinRequestRepository) Create(ctx context.Context, req *model.JoinRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *joinRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error) {
	var req model.JoinRequest
	if err := GetDB(ctx, r.db).Preload("User").Preload("Community").Preload("Reviewer").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *joinRequestRepository) HasPending(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.JoinRequest{}).
		Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, moderation.StatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *joinRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.JoinRequest, int64, error) {
	var requests []model.JoinRequest
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.JoinRequest{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Community").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *joinRequestRepository) MarkReviewed(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	res := GetDB(ctx, r.db).Model(&model.JoinRequest{}).
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

func (r *joinRequestRepository) ListPending(ctx context.Context, f moderation.PendingFilter) ([]model.JoinRequest, int64, error) {
	var requests []model.JoinRequest
	var total int64

	db := GetDB(ctx, r.db)
	buildQuery := func() *gorm.DB {
		q := db.Model(&model.JoinRequest{}).Where("status = ?", moderation.StatusPending)
		if f.CommunityIDs != nil {
			q = q.Where("community_id IN ?", f.CommunityIDs)
		}
		if f.Search != "" {
			q = q.Where("message ILIKE ?", "%"+f.Search+"%")
		}
		return q
	}

	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := buildQuery().Preload("User").Preload("Community").
		Order("created_at ASC").
		Offset(offset).Limit(f.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *joinRequestRepository) CountByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	return countByStatus(GetDB(ctx, r.db).Model(&model.JoinRequest{}), "community_id", communityIDs)
}
