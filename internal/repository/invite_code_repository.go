package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InviteCodeRepository struct {
	db *gorm.DB
}

func NewInviteCodeRepository(db *gorm.DB) *InviteCodeRepository {
	return &InviteCodeRepository{db: db}
}

func (r *InviteCodeRepository) Create(ctx context.Context, code *models.InviteCode) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(code).Error
}

func (r *InviteCodeRepository) FindByCode(ctx context.Context, code string) (*models.InviteCode, error) {
	var invite models.InviteCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *InviteCodeRepository) FindByID(ctx context.Context, id uint) (*models.InviteCode, error) {
	var invite models.InviteCode
	if err := r.db.WithContext(ctx).First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *InviteCodeRepository) ListActiveByGroup(ctx context.Context, groupID uint) ([]models.InviteCode, error) {
	var codes []models.InviteCode
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND is_active = true", groupID).
		Order("created_at DESC").
		Find(&codes).Error
	return codes, err
}

func (r *InviteCodeRepository) IncrementUse(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.InviteCode{}).Where("id = ?", id).
		UpdateColumn("uses", gorm.Expr("uses + 1")).Error
}

func (r *InviteCodeRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.InviteCode{}).Where("id = ?", id).
		Update("is_active", false).Error
}
