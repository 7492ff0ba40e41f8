package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const MovieTTL = 24 * time.Hour

// Store is the byte-level backend used by MovieCache. *RedisCache implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// MovieCache keeps catalog rows keyed by TMDB id. A nil cache or nil store is a no-op.
type MovieCache struct {
	store Store
}

func NewMovieCache(store Store) *MovieCache {
	return &MovieCache{store: store}
}

func movieKey(tmdbID int) string {
	return fmt.Sprintf("movie:tmdb:%d", tmdbID)
}

// Get returns the cached movie and whether it was found.
func (mc *MovieCache) Get(ctx context.Context, tmdbID int) (*models.Movie, bool) {
	if mc == nil || mc.store == nil {
		return nil, false
	}
	data, err := mc.store.Get(ctx, movieKey(tmdbID))
	if err != nil || data == nil {
		return nil, false
	}

	var movie models.Movie
	if err := msgpack.Unmarshal(data, &movie); err != nil {
		return nil, false
	}
	return &movie, true
}

func (mc *MovieCache) Set(ctx context.Context, movie *models.Movie) error {
	if mc == nil || mc.store == nil || movie == nil {
		return nil
	}
	data, err := msgpack.Marshal(movie)
	if err != nil {
		return err
	}
	return mc.store.Set(ctx, movieKey(movie.TMDBID), data, MovieTTL)
}

func (mc *MovieCache) Invalidate(ctx context.Context, tmdbID int) error {
	if mc == nil || mc.store == nil {
		return nil
	}
	return mc.store.Delete(ctx, movieKey(tmdbID))
}
