package repository

import (
	"context"
	"errors"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	List(ctx context.Context, communityID *uuid.UUID, upcomingOnly bool, page, limit int) ([]model.Event, int64, error)

	CreateRegistration(ctx context.Context, reg *model.EventRegistration) error
	FindRegistration(ctx context.Context, id uuid.UUID) (*model.EventRegistration, error)
	FindRegistrationByUser(ctx context.Context, eventID, userID uuid.UUID) (*model.EventRegistration, error)

	// ApproveRegistration consumes a slot, issues the ticket and flips the
	// status in one transaction. Capacity is the invariant approval guards,
	// so a conflict rolls the whole decision back: the registration stays
	// PENDING and the caller gets moderation.ErrCapacityExhausted.
	ApproveRegistration(ctx context.Context, id uuid.UUID, d moderation.Decision, ticketCode string) error

	// RejectRegistration is a plain conditional update — no slot was held.
	RejectRegistration(ctx context.Context, id uuid.UUID, d moderation.Decision) error

	ListRoster(ctx context.Context, eventID uuid.UUID, page, limit int) ([]model.EventRegistration, int64, error)
	ListPendingRegistrations(ctx context.Context, f moderation.PendingFilter) ([]model.EventRegistration, int64, error)
	CountRegistrationsByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	return GetDB(ctx, r.db).Save(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var event model.Event
	if err := GetDB(ctx, r.db).Preload("Creator").First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) List(ctx context.Context, communityID *uuid.UUID, upcomingOnly bool, page, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := GetDB(ctx, r.db)
	buildQuery := func() *gorm.DB {
		q := db.Model(&model.Event{})
		if communityID != nil {
			q = q.Where("community_id = ?", *communityID)
		}
		if upcomingOnly {
			q = q.Where("starts_at > NOW()")
		}
		return q
	}

	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := buildQuery().
		Order("starts_at ASC").
		Offset(offset).Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *eventRepository) CreateRegistration(ctx context.Context, reg *model.EventRegistration) error {
	return GetDB(ctx, r.db).Create(reg).Error
}

func (r *eventRepository) FindRegistration(ctx context.Context, id uuid.UUID) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	if err := GetDB(ctx, r.db).Preload("Event").Preload("User").Preload("Reviewer").
		First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *eventRepository) FindRegistrationByUser(ctx context.Context, eventID, userID uuid.UUID) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	if err := GetDB(ctx, r.db).Preload("Event").
		First(&reg, "event_id = ? AND user_id = ?", eventID, userID).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *eventRepository) ApproveRegistration(ctx context.Context, id uuid.UUID, d moderation.Decision, ticketCode string) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var reg model.EventRegistration
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&reg, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return moderation.ErrNotFound
			}
			return err
		}

		if reg.Status != string(moderation.StatusPending) {
			return moderation.ErrInvalidTransition
		}

		// Conditional decrement: two concurrent approvals racing for the
		// last slot resolve here, not at read time.
		slot := tx.Model(&model.Event{}).
			Where("id = ? AND available_slots > 0", reg.EventID).
			UpdateColumn("available_slots", gorm.Expr("available_slots - 1"))
		if slot.Error != nil {
			return slot.Error
		}
		if slot.RowsAffected == 0 {
			return moderation.ErrCapacityExhausted
		}

		updates := reviewUpdates(d)
		updates["ticket_code"] = ticketCode
		res := tx.Model(&model.EventRegistration{}).
			Where("id = ? AND status = ?", id, moderation.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return moderation.ErrInvalidTransition
		}

		return nil
	})
}

func (r *eventRepository) RejectRegistration(ctx context.Context, id uuid.UUID, d moderation.Decision) error {
	res := GetDB(ctx, r.db).Model(&model.EventRegistration{}).
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

// ListRoster returns approved registrations only — the attendee list.
// Rejected registrations drop out implicitly.
func (r *eventRepository) ListRoster(ctx context.Context, eventID uuid.UUID, page, limit int) ([]model.EventRegistration, int64, error) {
	var regs []model.EventRegistration
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.EventRegistration{}).
		Where("event_id = ? AND status = ?", eventID, moderation.StatusApproved)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").
		Where("event_id = ? AND status = ?", eventID, moderation.StatusApproved).
		Order("reviewed_at ASC").
		Offset(offset).Limit(limit).
		Find(&regs).Error; err != nil {
		return nil, 0, err
	}

	return regs, total, nil
}

func (r *eventRepository) ListPendingRegistrations(ctx context.Context, f moderation.PendingFilter) ([]model.EventRegistration, int64, error) {
	var regs []model.EventRegistration
	var total int64

	db := GetDB(ctx, r.db)
	buildQuery := func() *gorm.DB {
		q := db.Model(&model.EventRegistration{}).
			Joins("JOIN events ON events.id = event_registrations.event_id").
			Where("event_registrations.status = ?", moderation.StatusPending)
		if f.CommunityIDs != nil {
			q = q.Where("events.community_id IN ?", f.CommunityIDs)
		}
		if f.Search != "" {
			q = q.Where("events.title ILIKE ? OR event_registrations.note ILIKE ?",
				"%"+f.Search+"%", "%"+f.Search+"%")
		}
		return q
	}

	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	if err := buildQuery().Preload("Event").Preload("User").
		Order("event_registrations.created_at ASC").
		Offset(offset).Limit(f.Limit).
		Find(&regs).Error; err != nil {
		return nil, 0, err
	}

	return regs, total, nil
}

func (r *eventRepository) CountRegistrationsByStatus(ctx context.Context, communityIDs []uuid.UUID) (map[moderation.Status]int64, error) {
	query := GetDB(ctx, r.db).Model(&model.EventRegistration{}).
		Joins("JOIN events ON events.id = event_registrations.event_id")
	return countByStatus(query, "events.community_id", communityIDs)
}
