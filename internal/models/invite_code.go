package models

import (
	"time"
)

const InviteCodeLength = 6

type InviteCode struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GroupID   uint       `gorm:"not null;index" json:"group_id"`
	Code      string     `gorm:"size:6;uniqueIndex;not null" json:"code"`
	CreatedBy uint       `gorm:"not null" json:"created_by"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	Uses      int        `gorm:"not null;default:0" json:"uses"`
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`

	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// Usable reports whether the code can still be redeemed at now.
func (c *InviteCode) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	if c.MaxUses != nil && c.Uses >= *c.MaxUses {
		return false
	}
	return true
}

type InvitePreview struct {
	GroupID     uint   `json:"group_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
	MemberCount int64  `json:"member_count"`
}
