package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/validation"
)

type RatingService struct {
	ratings  repository.RatingRepositoryInterface
	ledger   repository.GroupMovieRepositoryInterface
	members  *Membership
	activity *ActivityService
}

func NewRatingService(
	ratings repository.RatingRepositoryInterface,
	ledger repository.GroupMovieRepositoryInterface,
	groups repository.GroupRepositoryInterface,
	activity *ActivityService,
) *RatingService {
	return &RatingService{
		ratings:  ratings,
		ledger:   ledger,
		members:  NewMembership(groups),
		activity: activity,
	}
}

// Summarize folds a (group, movie) rating set into its aggregate. The average
// is rounded half-up to one decimal and is exactly 0 for an empty set.
func Summarize(ratings []models.Rating, viewerID uint) models.Aggregate {
	agg := models.Aggregate{Count: len(ratings)}
	if len(ratings) == 0 {
		return agg
	}
	sum := 0
	for i := range ratings {
		sum += ratings[i].Score
		if viewerID != 0 && ratings[i].UserID == viewerID {
			mine := ratings[i]
			agg.Mine = &mine
		}
	}
	agg.Average = math.Round(float64(sum*10)/float64(len(ratings))) / 10
	return agg
}

func (s *RatingService) Aggregate(ctx context.Context, groupID, movieID, viewerID uint) (models.Aggregate, error) {
	if _, err := s.members.RequireMember(ctx, groupID, viewerID); err != nil {
		return models.Aggregate{}, err
	}
	ratings, err := s.ratings.ListForMovie(ctx, groupID, movieID)
	if err != nil {
		return models.Aggregate{}, fmt.Errorf("list ratings: %w", err)
	}
	return Summarize(ratings, viewerID), nil
}

// Rate creates or replaces the caller's rating for a movie on the group's ledger.
func (s *RatingService) Rate(ctx context.Context, userID, groupID, movieID uint, score int, comment string) (*models.Rating, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if !validation.ValidateScore(score) {
		verr.Add("score", fmt.Sprintf("score must be between %d and %d", models.MinScore, models.MaxScore))
	}
	if validation.ExceedsLength(comment, validation.MaxCommentLength()) {
		verr.Add("comment", fmt.Sprintf("comment must be at most %d characters", validation.MaxCommentLength()))
	}
	if !verr.Empty() {
		return nil, verr
	}

	if _, err := s.ledger.Find(ctx, groupID, movieID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("movie is not in this group: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find group movie: %w", err)
	}

	activityType := models.ActivityRatingPosted
	if _, err := s.ratings.Find(ctx, groupID, movieID, userID); err == nil {
		activityType = models.ActivityRatingUpdated
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("find rating: %w", err)
	}

	comment = strings.TrimSpace(comment)
	rating := &models.Rating{
		GroupID: groupID,
		MovieID: movieID,
		UserID:  userID,
		Score:   score,
		Comment: comment,
	}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		return nil, fmt.Errorf("save rating: %w", err)
	}
	saved, err := s.ratings.Find(ctx, groupID, movieID, userID)
	if err != nil {
		return nil, fmt.Errorf("reload rating: %w", err)
	}

	s.activity.Record(ctx, &models.ActivityItem{
		GroupID: groupID,
		Type:    activityType,
		ActorID: userID,
		MovieID: uintPtr(movieID),
		Metadata: map[string]any{
			"score":   saved.Score,
			"comment": saved.Comment,
		},
	})
	return saved, nil
}

// DeleteRating removes only the caller's own rating for the (group, movie) pair.
func (s *RatingService) DeleteRating(ctx context.Context, userID, groupID, movieID uint) error {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return err
	}
	deleted, err := s.ratings.Delete(ctx, groupID, movieID, userID)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	if !deleted {
		return fmt.Errorf("rating: %w", ErrNotFound)
	}
	return nil
}

func (s *RatingService) ListRatings(ctx context.Context, groupID, movieID, viewerID uint) ([]models.RatingResponse, models.Aggregate, error) {
	if _, err := s.members.RequireMember(ctx, groupID, viewerID); err != nil {
		return nil, models.Aggregate{}, err
	}
	ratings, err := s.ratings.ListForMovie(ctx, groupID, movieID)
	if err != nil {
		return nil, models.Aggregate{}, fmt.Errorf("list ratings: %w", err)
	}
	out := make([]models.RatingResponse, 0, len(ratings))
	for i := range ratings {
		out = append(out, ratings[i].ToResponse())
	}
	return out, Summarize(ratings, viewerID), nil
}
