package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	inviteAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeGenerateTries = 5
)

type RedeemStatus string

const (
	RedeemJoined        RedeemStatus = "joined"
	RedeemAlreadyMember RedeemStatus = "already_member"
)

type GenerateCodeOptions struct {
	MaxUses   *int
	ExpiresAt *time.Time
}

func (o GenerateCodeOptions) empty() bool {
	return o.MaxUses == nil && o.ExpiresAt == nil
}

type RedeemResult struct {
	Status     RedeemStatus           `json:"status"`
	GroupID    uint                   `json:"group_id"`
	Membership *models.MemberResponse `json:"membership,omitempty"`
}

type InviteService struct {
	codes    repository.InviteCodeRepositoryInterface
	groups   repository.GroupRepositoryInterface
	users    repository.UserRepositoryInterface
	members  *Membership
	activity *ActivityService

	newCode func() (string, error)
	now     func() time.Time
}

func NewInviteService(
	codes repository.InviteCodeRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	users repository.UserRepositoryInterface,
	activity *ActivityService,
) *InviteService {
	return &InviteService{
		codes:    codes,
		groups:   groups,
		users:    users,
		members:  NewMembership(groups),
		activity: activity,
		newCode:  RandomInviteCode,
		now:      time.Now,
	}
}

// RandomInviteCode returns a 6-character code drawn from [A-Z0-9].
func RandomInviteCode() (string, error) {
	buf := make([]byte, models.InviteCodeLength)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateCode returns the group's usable active code when one exists and no
// limits were requested; otherwise it mints a new one. The bool reports
// whether a new code was created.
func (s *InviteService) GenerateCode(ctx context.Context, userID, groupID uint, opts GenerateCodeOptions) (*models.InviteCode, bool, error) {
	if err := s.members.RequireOwner(ctx, groupID, userID); err != nil {
		return nil, false, err
	}

	now := s.now()
	verr := &ValidationError{}
	if opts.MaxUses != nil && *opts.MaxUses < 1 {
		verr.Add("max_uses", "max uses must be at least 1")
	}
	if opts.ExpiresAt != nil && !opts.ExpiresAt.After(now) {
		verr.Add("expires_at", "expiry must be in the future")
	}
	if !verr.Empty() {
		return nil, false, verr
	}

	if opts.empty() {
		active, err := s.codes.ListActiveByGroup(ctx, groupID)
		if err != nil {
			return nil, false, fmt.Errorf("list invite codes: %w", err)
		}
		for i := range active {
			if active[i].Usable(now) {
				return &active[i], false, nil
			}
		}
	}

	for attempt := 0; attempt < maxCodeGenerateTries; attempt++ {
		value, err := s.newCode()
		if err != nil {
			return nil, false, fmt.Errorf("generate invite code: %w", err)
		}
		invite := &models.InviteCode{
			GroupID:   groupID,
			Code:      value,
			CreatedBy: userID,
			IsActive:  true,
			MaxUses:   opts.MaxUses,
			ExpiresAt: opts.ExpiresAt,
		}
		err = s.codes.Create(ctx, invite)
		if err == nil {
			return invite, true, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, fmt.Errorf("create invite code: %w", err)
		}
		logger.Get().WithField("group_id", groupID).Debug("invite code collision, retrying")
	}
	return nil, false, fmt.Errorf("could not allocate a unique invite code: %w", ErrConflict)
}

// ListCodes returns the group's active codes. Owner only.
func (s *InviteService) ListCodes(ctx context.Context, userID, groupID uint) ([]models.InviteCode, error) {
	if err := s.members.RequireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	codes, err := s.codes.ListActiveByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	return codes, nil
}

// Redeem joins the user to the code's group. Existing members get the
// already_member outcome; the (group, user) key decides concurrent redemptions.
func (s *InviteService) Redeem(ctx context.Context, code string, userID uint) (*RedeemResult, error) {
	invite, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	already := &RedeemResult{Status: RedeemAlreadyMember, GroupID: invite.GroupID}
	isMember, err := s.members.IsMember(ctx, invite.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return already, nil
	}

	created, err := s.groups.AddMember(ctx, invite.GroupID, userID, models.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	if !created {
		return already, nil
	}

	log := logger.Get().WithFields(logrus.Fields{"group_id": invite.GroupID, "user_id": userID})
	if err := s.codes.IncrementUse(ctx, invite.ID); err != nil {
		log.WithError(err).Warn("failed to count invite code use")
	}

	result := &RedeemResult{Status: RedeemJoined, GroupID: invite.GroupID}
	membership := &models.MemberResponse{Role: models.RoleMember, JoinedAt: s.now()}
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		membership.User = user.ToPublicResponse()
	} else {
		membership.User = models.UserResponse{ID: userID}
	}
	result.Membership = membership

	s.activity.Record(ctx, &models.ActivityItem{
		GroupID:  invite.GroupID,
		Type:     models.ActivityMemberJoined,
		ActorID:  userID,
		Metadata: map[string]any{"code": invite.Code},
	})
	return result, nil
}

// Preview describes the group behind a usable code without requiring membership.
func (s *InviteService) Preview(ctx context.Context, code string) (*models.InvitePreview, error) {
	invite, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	group, err := s.groups.FindByID(ctx, invite.GroupID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	count, err := s.groups.CountMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	return &models.InvitePreview{
		GroupID:     group.ID,
		Name:        group.Name,
		Description: group.Description,
		Cover:       group.Cover,
		MemberCount: count,
	}, nil
}

func (s *InviteService) Deactivate(ctx context.Context, userID, groupID, codeID uint) error {
	if err := s.members.RequireOwner(ctx, groupID, userID); err != nil {
		return err
	}
	invite, err := s.codes.FindByID(ctx, codeID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("invite code: %w", ErrNotFound)
		}
		return fmt.Errorf("find invite code: %w", err)
	}
	if invite.GroupID != groupID {
		return fmt.Errorf("invite code: %w", ErrNotFound)
	}
	if err := s.codes.Deactivate(ctx, invite.ID); err != nil {
		return fmt.Errorf("deactivate invite code: %w", err)
	}
	return nil
}

func (s *InviteService) lookup(ctx context.Context, code string) (*models.InviteCode, error) {
	code = validation.NormalizeInviteCode(code)
	if !validation.ValidateInviteCode(code) {
		return nil, ErrInvalidCode
	}
	invite, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("find invite code: %w", err)
	}
	if !invite.Usable(s.now()) {
		return nil, ErrInvalidCode
	}
	return invite, nil
}
