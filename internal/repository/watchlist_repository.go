package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

func (r *WatchlistRepository) Create(ctx context.Context, item *models.WatchlistItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *WatchlistRepository) FindByID(ctx context.Context, id uint) (*models.WatchlistItem, error) {
	var item models.WatchlistItem
	if err := r.db.WithContext(ctx).Preload("Movie").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *WatchlistRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	err := r.db.WithContext(ctx).
		Preload("Movie").
		Preload("Adder").
		Where("group_id = ?", groupID).
		Order("priority ASC").
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *WatchlistRepository) MaxPriority(ctx context.Context, groupID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.WatchlistItem{}).
		Where("group_id = ?", groupID).
		Select("COALESCE(MAX(priority), 0)").
		Scan(&max).Error
	return max, err
}

func (r *WatchlistRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.WatchlistItem{}, id).Error
}
