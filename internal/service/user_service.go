package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/validation"
)

const DefaultTopGenres = 5

// UserService owns profiles, favourites and the rating-derived statistics.
type UserService struct {
	userRepo  repository.UserRepositoryInterface
	ratings   repository.RatingRepositoryInterface
	favorites repository.FavoriteRepositoryInterface
	catalog   *CatalogService
}

func NewUserService(
	userRepo repository.UserRepositoryInterface,
	ratings repository.RatingRepositoryInterface,
	favorites repository.FavoriteRepositoryInterface,
	catalog *CatalogService,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		ratings:   ratings,
		favorites: favorites,
		catalog:   catalog,
	}
}

type UpdateProfileInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

type UserStats struct {
	MoviesWatched  int `json:"movies_watched"`
	ReviewsWritten int `json:"reviews_written"`
}

type GenreShare struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if !validation.ValidateDisplayName(name) {
			verr.Add("display_name", fmt.Sprintf("display name must be 1 to %d characters", validation.DisplayNameMaxLength))
		} else {
			user.DisplayName = name
		}
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		if !validation.ValidateBio(bio) {
			verr.Add("bio", fmt.Sprintf("bio must be at most %d characters", validation.BioMaxLength))
		} else {
			user.Bio = bio
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ComputeUserStats counts distinct rated movies and ratings with a non-blank comment.
func ComputeUserStats(ratings []models.Rating) UserStats {
	movies := make(map[uint]struct{}, len(ratings))
	stats := UserStats{}
	for _, r := range ratings {
		movies[r.MovieID] = struct{}{}
		if strings.TrimSpace(r.Comment) != "" {
			stats.ReviewsWritten++
		}
	}
	stats.MoviesWatched = len(movies)
	return stats
}

// ComputeTopGenres tallies every genre tag of every rated movie. Percentages
// are shares of the total tag count, rounded to the nearest integer.
func ComputeTopGenres(ratings []models.Rating, limit int) []GenreShare {
	if limit <= 0 {
		limit = DefaultTopGenres
	}
	counts := make(map[string]int)
	total := 0
	for _, r := range ratings {
		for _, g := range r.Movie.Genres {
			counts[g]++
			total++
		}
	}

	out := make([]GenreShare, 0, len(counts))
	for name, c := range counts {
		out = append(out, GenreShare{
			Name:       name,
			Count:      c,
			Percentage: int(math.Round(float64(c*100) / float64(total))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *UserService) Stats(ctx context.Context, userID uint) (*UserStats, error) {
	ratings, err := s.ratings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user ratings: %w", err)
	}
	stats := ComputeUserStats(ratings)
	return &stats, nil
}

func (s *UserService) TopGenres(ctx context.Context, userID uint, limit int) ([]GenreShare, error) {
	ratings, err := s.ratings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user ratings: %w", err)
	}
	return ComputeTopGenres(ratings, limit), nil
}

// AddFavorite bookmarks a movie for the user. Adding twice is a no-op.
func (s *UserService) AddFavorite(ctx context.Context, userID uint, tmdbID int) (*models.Movie, error) {
	movie, err := s.catalog.Resolve(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if err := s.favorites.Add(ctx, userID, movie.ID); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return movie, nil
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, movieID uint) error {
	if err := s.favorites.Remove(ctx, userID, movieID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (s *UserService) ListFavorites(ctx context.Context, userID uint) ([]models.FavoriteMovie, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favs, nil
}
