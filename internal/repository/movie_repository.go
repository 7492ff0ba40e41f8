package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) FindByTMDBID(ctx context.Context, tmdbID int) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).Where("tmdb_id = ?", tmdbID).First(&movie).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).First(&movie, id).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

// CreateIfAbsent loses gracefully to a concurrent insert of the same tmdb_id;
// callers re-read by TMDB id to obtain the canonical row.
func (r *MovieRepository) CreateIfAbsent(ctx context.Context, movie *models.Movie) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tmdb_id"}},
			DoNothing: true,
		}).
		Create(movie).Error
}
