package models

import (
	"time"
)

type ScreeningType string

const (
	ScreeningInPerson ScreeningType = "presencial"
	ScreeningRemote   ScreeningType = "remota"
)

func (s ScreeningType) Valid() bool {
	return s == ScreeningInPerson || s == ScreeningRemote
}

// GroupMovie records that a group watched a movie. (group_id, movie_id) is unique.
type GroupMovie struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GroupID       uint          `gorm:"not null;uniqueIndex:idx_group_movie" json:"group_id"`
	MovieID       uint          `gorm:"not null;uniqueIndex:idx_group_movie" json:"movie_id"`
	AddedBy       uint          `gorm:"not null" json:"added_by"`
	WatchedAt     *time.Time    `json:"watched_at"`
	ScreeningType ScreeningType `gorm:"type:varchar(20);default:'presencial'" json:"screening_type"`

	Group     Group               `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Movie     Movie               `gorm:"foreignKey:MovieID" json:"movie"`
	Adder     User                `gorm:"foreignKey:AddedBy" json:"-"`
	Attendees []ScreeningAttendee `gorm:"foreignKey:GroupMovieID;constraint:OnDelete:CASCADE" json:"-"`
}

// ScreeningAttendee marks a user as present at a group screening.
type ScreeningAttendee struct {
	GroupMovieID uint `gorm:"primaryKey" json:"group_movie_id"`
	UserID       uint `gorm:"primaryKey" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

type GroupMovieEntry struct {
	ID            uint          `json:"id"`
	Movie         Movie         `json:"movie"`
	AddedBy       uint          `json:"added_by"`
	WatchedAt     *time.Time    `json:"watched_at"`
	ScreeningType ScreeningType `json:"screening_type"`
	CreatedAt     time.Time     `json:"created_at"`
	Rating        Aggregate     `json:"rating"`
}

type GroupMovieDetail struct {
	GroupMovieEntry
	Ratings   []RatingResponse `json:"ratings"`
	Attendees []UserResponse   `json:"attendees"`
}

func (gm *GroupMovie) ToEntry(agg Aggregate) GroupMovieEntry {
	return GroupMovieEntry{
		ID:            gm.ID,
		Movie:         gm.Movie,
		AddedBy:       gm.AddedBy,
		WatchedAt:     gm.WatchedAt,
		ScreeningType: gm.ScreeningType,
		CreatedAt:     gm.CreatedAt,
		Rating:        agg,
	}
}
