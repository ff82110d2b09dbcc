package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketplaceListing is a resident's item for sale inside a community.
// PENDING/APPROVED/REJECTED belong to the review lifecycle; SOLD and CLOSED
// are owner-driven business states reachable only from APPROVED.
type MarketplaceListing struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CommunityID uuid.UUID       `gorm:"type:uuid;not null;index" json:"community_id"`
	Community   *Community      `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	SellerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller      *User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Visible     bool            `gorm:"not null;default:false;index" json:"visible"`
	Status      string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewedBy  *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer    *User           `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt  *time.Time      `json:"reviewed_at"`
	ReviewNotes string          `gorm:"type:text" json:"review_notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
