package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupMovieRepository struct {
	db *gorm.DB
}

func NewGroupMovieRepository(db *gorm.DB) *GroupMovieRepository {
	return &GroupMovieRepository{db: db}
}

func (r *GroupMovieRepository) Create(ctx context.Context, gm *models.GroupMovie) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(gm).Error
}

func (r *GroupMovieRepository) Find(ctx context.Context, groupID, movieID uint) (*models.GroupMovie, error) {
	var gm models.GroupMovie
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("group_id = ? AND movie_id = ?", groupID, movieID).
		First(&gm).Error
	if err != nil {
		return nil, err
	}
	return &gm, nil
}

func (r *GroupMovieRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.GroupMovie, error) {
	var list []models.GroupMovie
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *GroupMovieRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_movie_id = ?", id).Delete(&models.ScreeningAttendee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.GroupMovie{}, id).Error
	})
}

func (r *GroupMovieRepository) AddAttendees(ctx context.Context, groupMovieID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.ScreeningAttendee, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.ScreeningAttendee{GroupMovieID: groupMovieID, UserID: id})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&rows).Error
}

func (r *GroupMovieRepository) ListAttendees(ctx context.Context, groupMovieID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN screening_attendees ON screening_attendees.user_id = users.id").
		Where("screening_attendees.group_movie_id = ?", groupMovieID).
		Find(&users).Error
	return users, err
}

func (r *GroupMovieRepository) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMovie{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}
