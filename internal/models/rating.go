package models

import (
	"time"
)

const (
	MinScore = 1
	MaxScore = 10
)

// Rating is one user's score for a movie inside a group.
// (group_id, movie_id, user_id) is unique.
type Rating struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GroupID uint   `gorm:"not null;uniqueIndex:idx_rating_group_movie_user" json:"group_id"`
	MovieID uint   `gorm:"not null;uniqueIndex:idx_rating_group_movie_user;index" json:"movie_id"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_rating_group_movie_user;index" json:"user_id"`
	Score   int    `gorm:"not null;check:score >= 1 AND score <= 10" json:"score"`
	Comment string `gorm:"type:text" json:"comment"`

	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Movie Movie `gorm:"foreignKey:MovieID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

// Aggregate summarises every member rating for a (group, movie) pair.
type Aggregate struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Mine    *Rating `json:"mine"`
}

type RatingResponse struct {
	ID        uint         `json:"id"`
	Score     int          `json:"score"`
	Comment   string       `json:"comment"`
	User      UserResponse `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (r *Rating) ToResponse() RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		Score:     r.Score,
		Comment:   r.Comment,
		User:      r.User.ToPublicResponse(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
