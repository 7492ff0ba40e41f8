package models

import (
	"time"
)

type ActivityType string

const (
	ActivityGroupCreated   ActivityType = "group_created"
	ActivityMovieAdded     ActivityType = "movie_added"
	ActivityRatingPosted   ActivityType = "rating_posted"
	ActivityRatingUpdated  ActivityType = "rating_updated"
	ActivityWatchlistAdded ActivityType = "watchlist_added"
	ActivityMemberJoined   ActivityType = "member_joined"
	ActivityMemberLeft     ActivityType = "member_left"
	ActivityMemberRemoved  ActivityType = "member_removed"
)

// ActivityItem is an append-only feed entry.
type ActivityItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	GroupID      uint           `gorm:"not null;index" json:"group_id"`
	Type         ActivityType   `gorm:"type:varchar(32);not null" json:"type"`
	ActorID      uint           `gorm:"not null" json:"actor_id"`
	MovieID      *uint          `json:"movie_id,omitempty"`
	TargetUserID *uint          `json:"target_user_id,omitempty"`
	Metadata     map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	Group Group  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Actor User   `gorm:"foreignKey:ActorID" json:"actor"`
	Movie *Movie `gorm:"foreignKey:MovieID" json:"movie,omitempty"`
}

// TableName keeps the feed table name stable.
func (ActivityItem) TableName() string {
	return "activity_feed"
}
