package models

import (
	"encoding/json"
	"time"
)

// Movie is the local projection of a metadata provider entry. TMDBID is unique.
type Movie struct {
	ID        uint      `gorm:"primarykey" json:"id" msgpack:"id"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`

	TMDBID       int             `gorm:"column:tmdb_id;uniqueIndex;not null" json:"tmdb_id" msgpack:"tmdb_id"`
	Title        string          `gorm:"not null" json:"title" msgpack:"title"`
	Year         int             `json:"year" msgpack:"year"`
	PosterPath   string          `json:"poster_path" msgpack:"poster_path"`
	BackdropPath string          `json:"backdrop_path" msgpack:"backdrop_path"`
	Runtime      int             `json:"runtime" msgpack:"runtime"`
	Overview     string          `gorm:"type:text" json:"overview" msgpack:"overview"`
	Director     string          `json:"director" msgpack:"director"`
	Genres       []string        `gorm:"type:jsonb;serializer:json" json:"genres" msgpack:"genres"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"-" msgpack:"metadata"`
}

type FavoriteMovie struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  uint  `gorm:"not null;uniqueIndex:idx_favorite_user_movie" json:"user_id"`
	MovieID uint  `gorm:"not null;uniqueIndex:idx_favorite_user_movie" json:"movie_id"`
	Movie   Movie `gorm:"foreignKey:MovieID" json:"movie"`
	User    User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
