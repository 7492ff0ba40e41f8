package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 100
)

// ActivityNotifier is told about every recorded feed item so connected
// clients and downstream consumers can refresh. Implementations must not block
// for long and must swallow their own errors.
type ActivityNotifier interface {
	NotifyActivity(ctx context.Context, item *models.ActivityItem, recipients []uint)
}

type ActivityService struct {
	activity  repository.ActivityRepositoryInterface
	groups    repository.GroupRepositoryInterface
	members   *Membership
	notifiers []ActivityNotifier
}

func NewActivityService(
	activity repository.ActivityRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	notifiers ...ActivityNotifier,
) *ActivityService {
	return &ActivityService{
		activity:  activity,
		groups:    groups,
		members:   NewMembership(groups),
		notifiers: notifiers,
	}
}

// AddNotifier registers a notifier after construction; used when the
// websocket hub is built later than the services.
func (s *ActivityService) AddNotifier(n ActivityNotifier) {
	if n != nil {
		s.notifiers = append(s.notifiers, n)
	}
}

// Record appends the item to the feed and fans it out. The mutation that
// produced the item has already succeeded, so failures are only logged.
func (s *ActivityService) Record(ctx context.Context, item *models.ActivityItem) {
	if s == nil || item == nil {
		return
	}
	log := logger.Get().WithFields(logrus.Fields{
		"group_id": item.GroupID,
		"type":     item.Type,
		"actor_id": item.ActorID,
	})

	if err := s.activity.Create(ctx, item); err != nil {
		log.WithError(err).Warn("failed to record activity")
		return
	}

	recipients, err := s.groups.GetMemberIDs(ctx, item.GroupID)
	if err != nil {
		log.WithError(err).Warn("failed to load activity recipients")
		return
	}
	recipients = appendMissing(recipients, item.ActorID)
	if item.TargetUserID != nil {
		recipients = appendMissing(recipients, *item.TargetUserID)
	}

	for _, n := range s.notifiers {
		n.NotifyActivity(ctx, item, recipients)
	}
}

// ListForGroup returns the group's feed newest first, optionally before a cursor.
func (s *ActivityService) ListForGroup(ctx context.Context, userID, groupID uint, before *time.Time, limit int) ([]models.ActivityItem, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	items, err := s.activity.ListByGroup(ctx, groupID, before, clampActivityLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list group activity: %w", err)
	}
	return items, nil
}

// ListForUser merges the feeds of every group the user belongs to.
func (s *ActivityService) ListForUser(ctx context.Context, userID uint, limit int) ([]models.ActivityItem, error) {
	groupIDs, err := s.groups.GetUserGroupIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	if len(groupIDs) == 0 {
		return []models.ActivityItem{}, nil
	}
	items, err := s.activity.ListByGroups(ctx, groupIDs, clampActivityLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list user activity: %w", err)
	}
	return items, nil
}

func clampActivityLimit(limit int) int {
	if limit <= 0 {
		return DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		return MaxActivityLimit
	}
	return limit
}

func appendMissing(ids []uint, id uint) []uint {
	if id == 0 {
		return ids
	}
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func uintPtr(v uint) *uint {
	return &v
}
