package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
)

type memoryStore struct {
	data map[string][]byte
	fail bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.fail {
		return nil, errors.New("connection refused")
	}
	return s.data[key], nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if s.fail {
		return errors.New("connection refused")
	}
	s.data[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func TestMovieCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMovieCache(newMemoryStore())

	if _, ok := mc.Get(ctx, 550); ok {
		t.Fatal("Get on empty cache should miss")
	}

	movie := &models.Movie{
		ID:       7,
		TMDBID:   550,
		Title:    "Fight Club",
		Year:     1999,
		Director: "David Fincher",
		Genres:   []string{"Drama", "Thriller"},
	}
	if err := mc.Set(ctx, movie); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := mc.Get(ctx, 550)
	if !ok {
		t.Fatal("Get after Set should hit")
	}
	if got.ID != 7 || got.Title != "Fight Club" || got.Director != "David Fincher" {
		t.Errorf("Get = %+v", got)
	}
	if len(got.Genres) != 2 || got.Genres[1] != "Thriller" {
		t.Errorf("Genres = %v", got.Genres)
	}

	if err := mc.Invalidate(ctx, 550); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := mc.Get(ctx, 550); ok {
		t.Error("Get after Invalidate should miss")
	}
}

func TestMovieCacheDegradesWithoutStore(t *testing.T) {
	ctx := context.Background()

	var nilCache *MovieCache
	if _, ok := nilCache.Get(ctx, 1); ok {
		t.Error("nil cache should miss")
	}
	if err := nilCache.Set(ctx, &models.Movie{TMDBID: 1}); err != nil {
		t.Errorf("nil cache Set err = %v", err)
	}

	failing := newMemoryStore()
	failing.fail = true
	mc := NewMovieCache(failing)
	if _, ok := mc.Get(ctx, 1); ok {
		t.Error("failing store should miss")
	}
}
