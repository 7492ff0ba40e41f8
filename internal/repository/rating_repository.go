package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert writes the rating keyed by (group_id, movie_id, user_id). An existing
// row keeps its id and created_at; score, comment and updated_at are replaced.
func (r *RatingRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "movie_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
		}).
		Create(rating).Error
}

func (r *RatingRepository) Find(ctx context.Context, groupID, movieID, userID uint) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND movie_id = ? AND user_id = ?", groupID, movieID, userID).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *RatingRepository) ListForMovie(ctx context.Context, groupID, movieID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ? AND movie_id = ?", groupID, movieID).
		Order("updated_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *RatingRepository) ListForGroup(ctx context.Context, groupID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Find(&ratings).Error
	return ratings, err
}

func (r *RatingRepository) ListByUser(ctx context.Context, userID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("user_id = ?", userID).
		Find(&ratings).Error
	return ratings, err
}

func (r *RatingRepository) Delete(ctx context.Context, groupID, movieID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND movie_id = ? AND user_id = ?", groupID, movieID, userID).
		Delete(&models.Rating{})
	return res.RowsAffected > 0, res.Error
}

func (r *RatingRepository) DeleteForMovie(ctx context.Context, groupID, movieID uint) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND movie_id = ?", groupID, movieID).
		Delete(&models.Rating{}).Error
}
