package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/roulette"
	"github.com/mauromolina/mmovienight-sub000/internal/validation"
)

// WatchlistService manages the movies a group plans to watch. The same movie
// may be proposed more than once.
type WatchlistService struct {
	items    repository.WatchlistRepositoryInterface
	catalog  *CatalogService
	ledger   *LedgerService
	members  *Membership
	activity *ActivityService
}

func NewWatchlistService(
	items repository.WatchlistRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	catalog *CatalogService,
	ledger *LedgerService,
	activity *ActivityService,
) *WatchlistService {
	return &WatchlistService{
		items:    items,
		catalog:  catalog,
		ledger:   ledger,
		members:  NewMembership(groups),
		activity: activity,
	}
}

func (s *WatchlistService) Add(ctx context.Context, userID, groupID uint, tmdbID int, reason string) (*models.WatchlistItem, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if validation.ExceedsLength(reason, validation.ReasonMaxLength) {
		return nil, NewValidationError("reason", fmt.Sprintf("reason must be at most %d characters", validation.ReasonMaxLength))
	}

	movie, err := s.catalog.Resolve(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	maxPriority, err := s.items.MaxPriority(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("watchlist priority: %w", err)
	}

	item := &models.WatchlistItem{
		GroupID:  groupID,
		MovieID:  movie.ID,
		AddedBy:  userID,
		Reason:   validation.TrimAndLimit(reason, validation.ReasonMaxLength),
		Priority: maxPriority + 1,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("add watchlist item: %w", err)
	}
	item.Movie = *movie

	s.activity.Record(ctx, &models.ActivityItem{
		GroupID:  groupID,
		Type:     models.ActivityWatchlistAdded,
		ActorID:  userID,
		MovieID:  uintPtr(movie.ID),
		Metadata: map[string]any{"title": movie.Title, "reason": item.Reason},
	})
	return item, nil
}

// List returns items by priority, then by age.
func (s *WatchlistService) List(ctx context.Context, userID, groupID uint) ([]models.WatchlistItem, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return items, nil
}

// Remove deletes an item. Any member may remove any item of the group.
func (s *WatchlistService) Remove(ctx context.Context, userID, groupID, itemID uint) error {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return err
	}
	item, err := s.find(ctx, groupID, itemID)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, item.ID); err != nil {
		return fmt.Errorf("delete watchlist item: %w", err)
	}
	return nil
}

// Pick spins the roulette over the current watchlist.
func (s *WatchlistService) Pick(ctx context.Context, userID, groupID uint, seed int64) (*models.WatchlistItem, error) {
	items, err := s.List(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	idx, err := roulette.PickIndex(len(items), seed)
	if err != nil {
		if errors.Is(err, roulette.ErrNoCandidates) {
			return nil, fmt.Errorf("watchlist is empty: %w", ErrNotFound)
		}
		return nil, err
	}
	return &items[idx], nil
}

// MarkWatched moves an item onto the group's ledger.
func (s *WatchlistService) MarkWatched(ctx context.Context, userID, groupID, itemID uint, in AddMovieInput) (*models.GroupMovieEntry, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	item, err := s.find(ctx, groupID, itemID)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.AddMovie(ctx, userID, groupID, item.Movie.TMDBID, in)
	if err != nil {
		return nil, err
	}
	if err := s.items.Delete(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("delete watchlist item: %w", err)
	}
	return entry, nil
}

func (s *WatchlistService) find(ctx context.Context, groupID, itemID uint) (*models.WatchlistItem, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("watchlist item: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find watchlist item: %w", err)
	}
	if item.GroupID != groupID {
		return nil, fmt.Errorf("watchlist item: %w", ErrNotFound)
	}
	return item, nil
}
