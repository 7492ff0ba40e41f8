package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/cache"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/mauromolina/mmovienight-sub000/internal/tmdb"
)

func TestResolveFetchesOnceThenHitsLocalRow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.catalog.Resolve(ctx, 550)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.Title != "Fight Club" || first.Year != 1999 {
		t.Errorf("Resolve = %+v", first)
	}
	if first.Director != "Director of Fight Club" {
		t.Errorf("Director = %q", first.Director)
	}
	if len(first.Genres) != 2 || first.Genres[0] != "Drama" {
		t.Errorf("Genres = %v", first.Genres)
	}
	if len(first.Metadata) == 0 {
		t.Error("raw provider payload should be kept as metadata")
	}

	second, err := env.catalog.Resolve(ctx, 550)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second Resolve id = %d, want %d", second.ID, first.ID)
	}
	if env.provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", env.provider.calls)
	}
	if env.movies.count() != 1 {
		t.Errorf("movie rows = %d, want 1", env.movies.count())
	}
}

func TestResolveReturnsCanonicalRowAfterLostInsertRace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Another request stored the movie between our miss and our insert.
	racer := &racingMovieRepo{MockMovieRepository: env.movies}
	catalog := NewCatalogService(racer, env.provider, nil)

	movie, err := catalog.Resolve(ctx, 603)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if movie.ID != racer.winnerID {
		t.Errorf("Resolve id = %d, want winner %d", movie.ID, racer.winnerID)
	}
	if env.movies.count() != 1 {
		t.Errorf("movie rows = %d, want 1", env.movies.count())
	}
}

type racingMovieRepo struct {
	*MockMovieRepository
	winnerID uint
}

func (r *racingMovieRepo) CreateIfAbsent(ctx context.Context, movie *models.Movie) error {
	if r.winnerID == 0 {
		winner := r.seed(movie.TMDBID, movie.Title)
		r.winnerID = winner.ID
	}
	return r.MockMovieRepository.CreateIfAbsent(ctx, movie)
}

func TestResolveProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		tmdbID  int
		failErr error
	}{
		{"Unknown id", 999999, nil},
		{"Provider down", 550, errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.provider.failWith = tt.failErr
			_, err := env.catalog.Resolve(context.Background(), tt.tmdbID)
			if !errors.Is(err, ErrMovieUnavailable) {
				t.Fatalf("err = %v, want ErrMovieUnavailable", err)
			}
			if env.movies.count() != 0 {
				t.Errorf("nothing should be stored, got %d rows", env.movies.count())
			}
		})
	}
}

func TestResolveRejectsInvalidID(t *testing.T) {
	env := newTestEnv()
	var verr *ValidationError
	if _, err := env.catalog.Resolve(context.Background(), 0); !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if env.provider.calls != 0 {
		t.Errorf("provider should not be called")
	}
}

func TestResolveUsesMovieCache(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	store := &mapStore{data: map[string][]byte{}}
	catalog := NewCatalogService(env.movies, env.provider, cache.NewMovieCache(store))

	if _, err := catalog.Resolve(ctx, 18079); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(store.data) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(store.data))
	}

	// With the row gone from the database the cache still answers.
	env.movies.movies = map[uint]*models.Movie{}
	movie, err := catalog.Resolve(ctx, 18079)
	if err != nil {
		t.Fatalf("cached Resolve: %v", err)
	}
	if movie.Title != "Nueve reinas" {
		t.Errorf("Title = %q", movie.Title)
	}
	if env.provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", env.provider.calls)
	}
}

type mapStore struct {
	data map[string][]byte
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) { return s.data[key], nil }

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func TestSearch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.catalog.Search(ctx, "  matrix ", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 603 {
		t.Errorf("Results = %+v", resp.Results)
	}

	var verr *ValidationError
	if _, err := env.catalog.Search(ctx, "   ", 1); !errors.As(err, &verr) {
		t.Errorf("blank query err = %v, want ValidationError", err)
	}

	env.provider.failWith = tmdb.ErrNotFound
	if _, err := env.catalog.Search(ctx, "matrix", 1); !errors.Is(err, ErrMovieUnavailable) {
		t.Errorf("provider failure err = %v, want ErrMovieUnavailable", err)
	}
	if env.movies.count() != 0 {
		t.Errorf("search must not store movies")
	}
}
