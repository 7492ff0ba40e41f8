package cache

import (
	"context"
	"fmt"
	"time"
)

// PresenceTTL matches the websocket pong timeout so a crashed instance's
// users drop off on their own.
const PresenceTTL = 90 * time.Second

// PresenceCache records which users hold a websocket connection on any
// instance. A nil cache or nil store reports everyone offline.
type PresenceCache struct {
	store Store
}

func NewPresenceCache(store Store) *PresenceCache {
	return &PresenceCache{store: store}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("online:%d", userID)
}

// SetOnline marks the user online; calling it again refreshes the TTL.
func (pc *PresenceCache) SetOnline(ctx context.Context, userID uint) error {
	if pc == nil || pc.store == nil {
		return nil
	}
	return pc.store.Set(ctx, presenceKey(userID), []byte("1"), PresenceTTL)
}

func (pc *PresenceCache) SetOffline(ctx context.Context, userID uint) error {
	if pc == nil || pc.store == nil {
		return nil
	}
	return pc.store.Delete(ctx, presenceKey(userID))
}

func (pc *PresenceCache) IsOnline(ctx context.Context, userID uint) bool {
	if pc == nil || pc.store == nil {
		return false
	}
	data, err := pc.store.Get(ctx, presenceKey(userID))
	return err == nil && len(data) > 0
}
