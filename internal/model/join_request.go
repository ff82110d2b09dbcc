package model

import (
	"time"

	"github.com/google/uuid"
)

// JoinRequest represents a resident asking to join a community.
// Approval creates the CommunityMembership record.
type JoinRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Message     string     `gorm:"type:varchar(500)" json:"message"` // optional introduction from the requester
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer    *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
