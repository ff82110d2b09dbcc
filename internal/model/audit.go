package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitResource  = "SUBMIT_RESOURCE"
	ActionApproveResource = "APPROVE_RESOURCE"
	ActionRejectResource  = "REJECT_RESOURCE"

	// Written when a transition committed but its side effect did not —
	// the marker a reconciliation job scans for.
	ActionSideEffectPending = "SIDE_EFFECT_PENDING"

	ActionCreateCommunity = "CREATE_COMMUNITY"
	ActionUpdateCommunity = "UPDATE_COMMUNITY"
	ActionAssignManager   = "ASSIGN_MANAGER"
	ActionRevokeManager   = "REVOKE_MANAGER"
	ActionCreateEvent     = "CREATE_EVENT"
	ActionMarkListingSold = "MARK_LISTING_SOLD"
	ActionCloseListing    = "CLOSE_LISTING"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
