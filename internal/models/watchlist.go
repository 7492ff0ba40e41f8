package models

import (
	"time"
)

// WatchlistItem is a movie a group intends to watch. Duplicates per group are allowed.
type WatchlistItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	GroupID  uint   `gorm:"not null;index" json:"group_id"`
	MovieID  uint   `gorm:"not null" json:"movie_id"`
	AddedBy  uint   `gorm:"not null" json:"added_by"`
	Reason   string `gorm:"size:500" json:"reason"`
	Priority int    `gorm:"not null;default:0" json:"priority"`

	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Movie Movie `gorm:"foreignKey:MovieID" json:"movie"`
	Adder User  `gorm:"foreignKey:AddedBy" json:"adder"`
}
