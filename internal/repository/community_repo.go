package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityRepository interface {
	Create(ctx context.Context, community *model.Community) error
	Update(ctx context.Context, community *model.Community) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Community, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Community, int64, error)

	CreateMembership(ctx context.Context, membership *model.CommunityMembership) error
	HasMembership(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.CommunityMembership, int64, error)

	AssignManager(ctx context.Context, assignment *model.CommunityManager) error
	RevokeManager(ctx context.Context, communityID, userID uuid.UUID) error
	ManagedCommunityIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *model.Community) error {
	return GetDB(ctx, r.db).Create(community).Error
}

func (r *communityRepository) Update(ctx context.Context, community *model.Community) error {
	return GetDB(ctx, r.db).Save(community).Error
}

func (r *communityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Community, error) {
	var community model.Community
	if err := GetDB(ctx, r.db).Preload("Creator").First(&community, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, search string, page, limit int) ([]model.Community, int64, error) {
	var communities []model.Community
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Community{})
	if search != "" {
		query = query.Where("name ILIKE ? OR address ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Model(&model.Community{})
	if search != "" {
		fetchQuery = fetchQuery.Where("name ILIKE ? OR address ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := fetchQuery.Order("name ASC").Offset(offset).Limit(limit).Find(&communities).Error; err != nil {
		return nil, 0, err
	}

	return communities, total, nil
}

// CreateMembership is idempotent on the (community, user) unique index so the
// join-request side effect can be replayed safely by reconciliation.
func (r *communityRepository) CreateMembership(ctx context.Context, membership *model.CommunityMembership) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(membership).Error
}

func (r *communityRepository) HasMembership(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *communityRepository) ListMembers(ctx context.Context, communityID uuid.UUID, page, limit int) ([]model.CommunityMembership, int64, error) {
	var members []model.CommunityMembership
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CommunityMembership{}).Where("community_id = ?", communityID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").
		Where("community_id = ?", communityID).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (r *communityRepository) AssignManager(ctx context.Context, assignment *model.CommunityManager) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(assignment).Error
}

func (r *communityRepository) RevokeManager(ctx context.Context, communityID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityManager{}).Error
}

// ManagedCommunityIDs returns the manager's current scope. Called on every
// authenticated request that needs a reviewer context — never cached.
func (r *communityRepository) ManagedCommunityIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.CommunityManager{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}
