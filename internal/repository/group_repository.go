package repository

import (
	"context"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithOwner inserts the group and its owner membership together.
func (r *GroupRepository) CreateWithOwner(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    models.RoleOwner,
		}).Error
	})
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Owner").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Model(group).
		Select("name", "description", "cover", "cover_key").
		Updates(group).Error
}

// Delete removes the group and every dependent row in one transaction.
func (r *GroupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		screenings := tx.Model(&models.GroupMovie{}).Select("id").Where("group_id = ?", id)
		steps := []func() error{
			func() error {
				return tx.Where("group_movie_id IN (?)", screenings).Delete(&models.ScreeningAttendee{}).Error
			},
			func() error { return tx.Where("group_id = ?", id).Delete(&models.Rating{}).Error },
			func() error { return tx.Where("group_id = ?", id).Delete(&models.GroupMovie{}).Error },
			func() error { return tx.Where("group_id = ?", id).Delete(&models.WatchlistItem{}).Error },
			func() error { return tx.Where("group_id = ?", id).Delete(&models.InviteCode{}).Error },
			func() error { return tx.Where("group_id = ?", id).Delete(&models.ActivityItem{}).Error },
			func() error { return tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error },
			func() error { return tx.Delete(&models.Group{}, id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID uint, role models.GroupRole) (bool, error) {
	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (r *GroupRepository) GetMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *GroupRepository) GetMemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) CountMembers(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *GroupRepository) GetMemberRole(ctx context.Context, groupID, userID uint) (models.GroupRole, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (r *GroupRepository) GetUserGroups(ctx context.Context, userID uint) ([]models.GroupSummary, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Preload("Owner").
		Order("groups.created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.GroupSummary, 0, len(groups))
	for _, g := range groups {
		summary := models.GroupSummary{Group: g}
		if summary.Role, err = r.GetMemberRole(ctx, g.ID, userID); err != nil {
			return nil, err
		}
		if summary.MemberCount, err = r.CountMembers(ctx, g.ID); err != nil {
			return nil, err
		}
		if err := r.db.WithContext(ctx).Model(&models.GroupMovie{}).
			Where("group_id = ?", g.ID).
			Count(&summary.MovieCount).Error; err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r *GroupRepository) GetUserGroupIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}
