package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/validation"
)

// ObjectRemover deletes a stored object. *storage.S3Storage implements it.
type ObjectRemover interface {
	DeleteObject(ctx context.Context, key string) error
}

type GroupService struct {
	groups   repository.GroupRepositoryInterface
	ledger   repository.GroupMovieRepositoryInterface
	members  *Membership
	activity *ActivityService
	objects  ObjectRemover
}

func NewGroupService(
	groups repository.GroupRepositoryInterface,
	ledger repository.GroupMovieRepositoryInterface,
	activity *ActivityService,
	objects ObjectRemover,
) *GroupService {
	return &GroupService{
		groups:   groups,
		ledger:   ledger,
		members:  NewMembership(groups),
		activity: activity,
		objects:  objects,
	}
}

type UpdateGroupInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func validateGroupFields(name, description *string) error {
	verr := &ValidationError{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			verr.Add("name", "name is required")
		} else if validation.ExceedsLength(n, validation.GroupNameMaxLength) {
			verr.Add("name", fmt.Sprintf("name must be at most %d characters", validation.GroupNameMaxLength))
		}
	}
	if description != nil && validation.ExceedsLength(*description, validation.GroupDescMaxLength) {
		verr.Add("description", fmt.Sprintf("description must be at most %d characters", validation.GroupDescMaxLength))
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

// Create makes the group and its owner membership.
func (s *GroupService) Create(ctx context.Context, userID uint, name, description string) (*models.Group, error) {
	if err := validateGroupFields(&name, &description); err != nil {
		return nil, err
	}
	group := &models.Group{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		OwnerID:     userID,
	}
	if err := s.groups.CreateWithOwner(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.activity.Record(ctx, &models.ActivityItem{
		GroupID:  group.ID,
		Type:     models.ActivityGroupCreated,
		ActorID:  userID,
		Metadata: map[string]any{"name": group.Name},
	})

	created, err := s.groups.FindByID(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("reload group: %w", err)
	}
	return created, nil
}

func (s *GroupService) Get(ctx context.Context, userID, groupID uint) (*models.GroupSummary, error) {
	role, err := s.members.RequireMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	summary := &models.GroupSummary{Group: *group, Role: role}
	if summary.MemberCount, err = s.groups.CountMembers(ctx, groupID); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	if summary.MovieCount, err = s.ledger.CountByGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("count movies: %w", err)
	}
	return summary, nil
}

func (s *GroupService) ListMine(ctx context.Context, userID uint) ([]models.GroupSummary, error) {
	groups, err := s.groups.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) Members(ctx context.Context, userID, groupID uint) ([]models.MemberResponse, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	members, err := s.groups.GetMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]models.MemberResponse, 0, len(members))
	for i := range members {
		out = append(out, members[i].ToResponse())
	}
	return out, nil
}

func (s *GroupService) UpdateSettings(ctx context.Context, userID, groupID uint, in UpdateGroupInput) (*models.Group, error) {
	if err := s.members.RequireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if err := validateGroupFields(in.Name, in.Description); err != nil {
		return nil, err
	}
	group, err := s.find(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		group.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		group.Description = strings.TrimSpace(*in.Description)
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return group, nil
}

// Delete removes the group with everything that hangs off it. Owner only.
func (s *GroupService) Delete(ctx context.Context, userID, groupID uint) error {
	if err := s.members.RequireOwner(ctx, groupID, userID); err != nil {
		return err
	}
	group, err := s.find(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, groupID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if key := strings.TrimSpace(group.CoverKey); key != "" && s.objects != nil {
		if err := s.objects.DeleteObject(ctx, key); err != nil {
			logger.Get().WithError(err).WithField("key", key).Warn("failed to delete group cover")
		}
	}
	return nil
}

// Leave drops the caller's membership. Owners must delete the group instead.
func (s *GroupService) Leave(ctx context.Context, userID, groupID uint) error {
	role, err := s.members.RequireMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if role == models.RoleOwner {
		return ErrOwnerCannotLeave
	}
	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("leave group: %w", err)
	}
	s.activity.Record(ctx, &models.ActivityItem{
		GroupID: groupID,
		Type:    models.ActivityMemberLeft,
		ActorID: userID,
	})
	return nil
}

// RemoveMember lets the owner remove someone else from the group.
func (s *GroupService) RemoveMember(ctx context.Context, ownerID, groupID, targetID uint) error {
	if err := s.members.RequireOwner(ctx, groupID, ownerID); err != nil {
		return err
	}
	if targetID == ownerID {
		return NewValidationError("user_id", "the owner cannot remove themselves")
	}
	isMember, err := s.members.IsMember(ctx, groupID, targetID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("member: %w", ErrNotFound)
	}
	if err := s.groups.RemoveMember(ctx, groupID, targetID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.activity.Record(ctx, &models.ActivityItem{
		GroupID:      groupID,
		Type:         models.ActivityMemberRemoved,
		ActorID:      ownerID,
		TargetUserID: uintPtr(targetID),
	})
	return nil
}

func (s *GroupService) find(ctx context.Context, groupID uint) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return group, nil
}
