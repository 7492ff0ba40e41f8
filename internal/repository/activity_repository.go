package repository

import (
	"context"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, item *models.ActivityItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *ActivityRepository) ListByGroup(ctx context.Context, groupID uint, before *time.Time, limit int) ([]models.ActivityItem, error) {
	var items []models.ActivityItem
	q := r.db.WithContext(ctx).
		Preload("Actor").
		Preload("Movie").
		Where("group_id = ?", groupID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (r *ActivityRepository) ListByGroups(ctx context.Context, groupIDs []uint, limit int) ([]models.ActivityItem, error) {
	var items []models.ActivityItem
	if len(groupIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Preload("Movie").
		Where("group_id IN ?", groupIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
