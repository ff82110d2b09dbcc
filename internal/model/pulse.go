package model

import (
	"time"

	"github.com/google/uuid"
)

// Pulse is a community feed post. It stays hidden from the feed until a
// reviewer approves it; a rejected pulse remains hidden and its rejection
// reason is visible only to the author.
type Pulse struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	ImageURL    string     `gorm:"type:varchar(500)" json:"image_url"`
	Visible     bool       `gorm:"not null;default:false;index" json:"visible"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer    *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
