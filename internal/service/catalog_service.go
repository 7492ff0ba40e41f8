package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mauromolina/mmovienight-sub000/internal/cache"
	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/repository"
	"github.com/mauromolina/mmovienight-sub000/internal/tmdb"
	"github.com/sirupsen/logrus"
)

// MetadataProvider is the read-only movie metadata source. *tmdb.Client implements it.
type MetadataProvider interface {
	MovieDetails(ctx context.Context, id int) (*tmdb.MovieDetails, []byte, error)
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.SearchResponse, error)
}

type CatalogService struct {
	movies   repository.MovieRepositoryInterface
	provider MetadataProvider
	cache    *cache.MovieCache
}

// NewCatalogService builds the catalog. cache may be nil.
func NewCatalogService(movies repository.MovieRepositoryInterface, provider MetadataProvider, movieCache *cache.MovieCache) *CatalogService {
	return &CatalogService{movies: movies, provider: provider, cache: movieCache}
}

// Resolve returns the local movie row for a TMDB id, fetching and storing it
// on first use. Rows never expire once stored.
func (s *CatalogService) Resolve(ctx context.Context, tmdbID int) (*models.Movie, error) {
	if tmdbID <= 0 {
		return nil, NewValidationError("tmdb_id", "invalid movie id")
	}

	if movie, ok := s.cache.Get(ctx, tmdbID); ok {
		return movie, nil
	}

	movie, err := s.movies.FindByTMDBID(ctx, tmdbID)
	if err == nil {
		s.remember(ctx, movie)
		return movie, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("find movie %d: %w", tmdbID, err)
	}

	if s.provider == nil {
		return nil, ErrMovieUnavailable
	}
	details, raw, err := s.provider.MovieDetails(ctx, tmdbID)
	if err != nil {
		entry := logger.Get().WithFields(logrus.Fields{"tmdb_id": tmdbID}).WithError(err)
		if errors.Is(err, tmdb.ErrNotFound) {
			entry.Info("movie not found at provider")
		} else {
			entry.Warn("movie provider request failed")
		}
		return nil, ErrMovieUnavailable
	}

	// A concurrent first resolution may win the insert; the re-read below
	// returns whichever row is canonical.
	if err := s.movies.CreateIfAbsent(ctx, movieFromDetails(tmdbID, details, raw)); err != nil {
		return nil, fmt.Errorf("store movie %d: %w", tmdbID, err)
	}
	movie, err = s.movies.FindByTMDBID(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("reload movie %d: %w", tmdbID, err)
	}
	s.remember(ctx, movie)
	return movie, nil
}

// Search proxies the provider search. Results are not stored.
func (s *CatalogService) Search(ctx context.Context, query string, page int) (*tmdb.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("q", "search query is required")
	}
	if s.provider == nil {
		return nil, ErrMovieUnavailable
	}
	resp, err := s.provider.SearchMovies(ctx, query, page)
	if err != nil {
		logger.Get().WithError(err).WithField("query", query).Warn("movie search failed")
		return nil, ErrMovieUnavailable
	}
	return resp, nil
}

func (s *CatalogService) remember(ctx context.Context, movie *models.Movie) {
	if err := s.cache.Set(ctx, movie); err != nil {
		logger.Get().WithError(err).WithField("tmdb_id", movie.TMDBID).Debug("movie cache write failed")
	}
}

func movieFromDetails(tmdbID int, d *tmdb.MovieDetails, raw []byte) *models.Movie {
	return &models.Movie{
		TMDBID:       tmdbID,
		Title:        strings.TrimSpace(d.Title),
		Year:         d.Year(),
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		Runtime:      d.Runtime,
		Overview:     d.Overview,
		Director:     d.Director(),
		Genres:       d.GenreNames(),
		Metadata:     raw,
	}
}
