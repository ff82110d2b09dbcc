package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type constants
const (
	NotifTypeResourceApproved = "RESOURCE_APPROVED"
	NotifTypeResourceRejected = "RESOURCE_REJECTED"
)

// Notification is a user-visible message. Every rejection produces one
// carrying the reviewer's reason; approvals produce an informational one.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	Type      string     `gorm:"type:varchar(40);not null;index" json:"type"`
	Title     string     `gorm:"type:varchar(150);not null" json:"title"`
	Message   string     `gorm:"type:varchar(1000)" json:"message"`
	RefKind   string     `gorm:"type:varchar(30);index" json:"ref_kind"` // moderation kind of the referenced resource
	RefID     uuid.UUID  `gorm:"type:uuid;index" json:"ref_id"`
	IsRead    bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
