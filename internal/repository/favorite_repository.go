package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, movieID uint) error {
	fav := models.FavoriteMovie{UserID: userID, MovieID: movieID}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoNothing: true,
		}).
		Create(&fav).Error
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, movieID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&models.FavoriteMovie{}).Error
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID uint) ([]models.FavoriteMovie, error) {
	var favs []models.FavoriteMovie
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favs).Error
	return favs, err
}
