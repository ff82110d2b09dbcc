package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is a capacity-limited community happening. AvailableSlots is only
// decremented when a registration is approved — pending registrations never
// hold inventory, so the figure is accurate post-approval only.
type Event struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"community_id"`
	Community      *Community      `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	Title          string          `gorm:"type:varchar(255);not null" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	Location       string          `gorm:"type:varchar(255)" json:"location"`
	StartsAt       time.Time       `gorm:"not null;index" json:"starts_at"`
	Capacity       int             `gorm:"not null" json:"capacity"`
	AvailableSlots int             `gorm:"not null" json:"available_slots"`
	EntryFee       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"entry_fee"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Creator        *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EventRegistration is a resident's request to attend an event. Approval
// consumes a slot and issues the ticket code in the same transaction as the
// status transition; the event roster is the set of approved registrations.
type EventRegistration struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_registration_event_user" json:"event_id"`
	Event       *Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_registration_event_user;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Note        string     `gorm:"type:varchar(500)" json:"note"`
	TicketCode  *string    `gorm:"type:varchar(40);uniqueIndex" json:"ticket_code,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer    *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
