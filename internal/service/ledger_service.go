package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"gorm.io/gorm"
)

const (
	SortRecent = "recent"
	SortTop    = "top"
)

type AddMovieInput struct {
	WatchedAt     *time.Time
	ScreeningType models.ScreeningType
	AttendeeIDs   []uint
}

// LedgerService manages the movies a group has watched together.
type LedgerService struct {
	ledger   repository.GroupMovieRepositoryInterface
	ratings  repository.RatingRepositoryInterface
	groups   repository.GroupRepositoryInterface
	catalog  *CatalogService
	members  *Membership
	activity *ActivityService
}

func NewLedgerService(
	ledger repository.GroupMovieRepositoryInterface,
	ratings repository.RatingRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	catalog *CatalogService,
	activity *ActivityService,
) *LedgerService {
	return &LedgerService{
		ledger:   ledger,
		ratings:  ratings,
		groups:   groups,
		catalog:  catalog,
		members:  NewMembership(groups),
		activity: activity,
	}
}

func (s *LedgerService) AddMovie(ctx context.Context, userID, groupID uint, tmdbID int, in AddMovieInput) (*models.GroupMovieEntry, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	if in.ScreeningType == "" {
		in.ScreeningType = models.ScreeningInPerson
	}
	if !in.ScreeningType.Valid() {
		return nil, NewValidationError("screening_type", "screening type must be presencial or remota")
	}
	attendees, err := s.checkAttendees(ctx, groupID, in.AttendeeIDs)
	if err != nil {
		return nil, err
	}

	movie, err := s.catalog.Resolve(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.Find(ctx, groupID, movie.ID); err == nil {
		return nil, fmt.Errorf("movie already in this group: %w", ErrConflict)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("find group movie: %w", err)
	}

	gm := &models.GroupMovie{
		GroupID:       groupID,
		MovieID:       movie.ID,
		AddedBy:       userID,
		WatchedAt:     in.WatchedAt,
		ScreeningType: in.ScreeningType,
	}
	if err := s.ledger.Create(ctx, gm); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("movie already in this group: %w", ErrConflict)
		}
		return nil, fmt.Errorf("add group movie: %w", err)
	}
	gm.Movie = *movie

	if len(attendees) > 0 {
		if err := s.ledger.AddAttendees(ctx, gm.ID, attendees); err != nil {
			return nil, fmt.Errorf("record attendees: %w", err)
		}
	}

	s.activity.Record(ctx, &models.ActivityItem{
		GroupID:  groupID,
		Type:     models.ActivityMovieAdded,
		ActorID:  userID,
		MovieID:  uintPtr(movie.ID),
		Metadata: map[string]any{"title": movie.Title, "screening_type": string(gm.ScreeningType)},
	})

	entry := gm.ToEntry(models.Aggregate{})
	return &entry, nil
}

// List returns the ledger annotated with rating aggregates, sorted by
// "recent" (creation desc) or "top" (average desc, then creation desc).
func (s *LedgerService) List(ctx context.Context, userID, groupID uint, sortBy string) ([]models.GroupMovieEntry, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if sortBy == "" {
		sortBy = SortRecent
	}
	if sortBy != SortRecent && sortBy != SortTop {
		return nil, NewValidationError("sort", "sort must be recent or top")
	}

	movies, err := s.ledger.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group movies: %w", err)
	}
	ratings, err := s.ratings.ListForGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group ratings: %w", err)
	}

	byMovie := make(map[uint][]models.Rating)
	for _, r := range ratings {
		byMovie[r.MovieID] = append(byMovie[r.MovieID], r)
	}

	entries := make([]models.GroupMovieEntry, 0, len(movies))
	for i := range movies {
		entries = append(entries, movies[i].ToEntry(Summarize(byMovie[movies[i].MovieID], userID)))
	}
	SortEntries(entries, sortBy)
	return entries, nil
}

// SortEntries orders ledger entries in place.
func SortEntries(entries []models.GroupMovieEntry, sortBy string) {
	sort.SliceStable(entries, func(i, j int) bool {
		if sortBy == SortTop && entries[i].Rating.Average != entries[j].Rating.Average {
			return entries[i].Rating.Average > entries[j].Rating.Average
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func (s *LedgerService) Get(ctx context.Context, userID, groupID, movieID uint) (*models.GroupMovieDetail, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	gm, err := s.find(ctx, groupID, movieID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListForMovie(ctx, groupID, movieID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	attendees, err := s.ledger.ListAttendees(ctx, gm.ID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}

	detail := &models.GroupMovieDetail{
		GroupMovieEntry: gm.ToEntry(Summarize(ratings, userID)),
		Ratings:         make([]models.RatingResponse, 0, len(ratings)),
		Attendees:       make([]models.UserResponse, 0, len(attendees)),
	}
	for i := range ratings {
		detail.Ratings = append(detail.Ratings, ratings[i].ToResponse())
	}
	for i := range attendees {
		detail.Attendees = append(detail.Attendees, attendees[i].ToPublicResponse())
	}
	return detail, nil
}

// RemoveMovie deletes a ledger entry with its ratings and attendance. Allowed
// for the owner and for the member who added it.
func (s *LedgerService) RemoveMovie(ctx context.Context, userID, groupID, movieID uint) error {
	role, err := s.members.RequireMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	gm, err := s.find(ctx, groupID, movieID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner && gm.AddedBy != userID {
		return ErrForbidden
	}
	if err := s.ratings.DeleteForMovie(ctx, groupID, movieID); err != nil {
		return fmt.Errorf("delete ratings: %w", err)
	}
	if err := s.ledger.Delete(ctx, gm.ID); err != nil {
		return fmt.Errorf("delete group movie: %w", err)
	}
	return nil
}

func (s *LedgerService) find(ctx context.Context, groupID, movieID uint) (*models.GroupMovie, error) {
	gm, err := s.ledger.Find(ctx, groupID, movieID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("group movie: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find group movie: %w", err)
	}
	return gm, nil
}

// checkAttendees dedupes ids and verifies each one belongs to the group.
func (s *LedgerService) checkAttendees(ctx context.Context, groupID uint, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	memberIDs, err := s.groups.GetMemberIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	isMember := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		isMember[id] = true
	}

	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !isMember[id] {
			return nil, NewValidationError("attendees", "attendees must be members of the group")
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
