package model

import (
	"time"

	"github.com/google/uuid"
)

// Community represents a residential community residents can belong to
type Community struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Address     string     `gorm:"type:varchar(255)" json:"address"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	Creator     *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CommunityMembership links an approved resident to a community.
// Created as the on-approve side effect of a join request; the composite
// unique index makes that side effect safe to replay during reconciliation.
type CommunityMembership struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_community_user" json:"community_id"`
	Community   Community `gorm:"foreignKey:CommunityID" json:"-"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_community_user" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time `json:"joined_at"`
}

// CommunityManager assigns a manager-role user to a community they may
// moderate. Assignments are read fresh on every request — never cached —
// so a revoked manager loses scope immediately.
type CommunityManager struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_manager_community_user" json:"community_id"`
	Community   Community  `gorm:"foreignKey:CommunityID" json:"-"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_manager_community_user;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AssignedBy  *uuid.UUID `gorm:"type:uuid" json:"assigned_by"`
	CreatedAt   time.Time  `json:"created_at"`
}
