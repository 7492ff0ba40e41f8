package service

import (
	"context"
	"fmt"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
)

// Membership answers the group access questions every group-scoped
// operation asks before touching group data.
type Membership struct {
	groups repository.GroupRepositoryInterface
}

func NewMembership(groups repository.GroupRepositoryInterface) *Membership {
	return &Membership{groups: groups}
}

// RoleOf returns the caller's role, or "" when there is no membership row.
func (m *Membership) RoleOf(ctx context.Context, groupID, userID uint) (models.GroupRole, error) {
	if groupID == 0 || userID == 0 {
		return "", nil
	}
	role, err := m.groups.GetMemberRole(ctx, groupID, userID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("membership lookup: %w", err)
	}
	return role, nil
}

func (m *Membership) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	role, err := m.RoleOf(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

// RequireMember fails with ErrNotMember unless the user belongs to the group.
func (m *Membership) RequireMember(ctx context.Context, groupID, userID uint) (models.GroupRole, error) {
	role, err := m.RoleOf(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", ErrNotMember
	}
	return role, nil
}

// RequireOwner fails with ErrNotMember for outsiders and ErrForbidden for
// plain members.
func (m *Membership) RequireOwner(ctx context.Context, groupID, userID uint) error {
	role, err := m.RequireMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return ErrForbidden
	}
	return nil
}
