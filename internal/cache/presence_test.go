package cache

import (
	"context"
	"testing"
)

func TestPresenceCache(t *testing.T) {
	ctx := context.Background()
	pc := NewPresenceCache(newMemoryStore())

	if pc.IsOnline(ctx, 3) {
		t.Fatal("unknown user should be offline")
	}
	if err := pc.SetOnline(ctx, 3); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}
	if !pc.IsOnline(ctx, 3) {
		t.Fatal("user should be online after SetOnline")
	}
	if pc.IsOnline(ctx, 4) {
		t.Fatal("presence leaked to another user")
	}
	if err := pc.SetOffline(ctx, 3); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	if pc.IsOnline(ctx, 3) {
		t.Fatal("user should be offline after SetOffline")
	}
}

func TestPresenceCacheNilIsOffline(t *testing.T) {
	ctx := context.Background()
	var pc *PresenceCache
	if err := pc.SetOnline(ctx, 1); err != nil {
		t.Fatalf("nil SetOnline: %v", err)
	}
	if pc.IsOnline(ctx, 1) {
		t.Fatal("nil cache reports online")
	}

	failing := newMemoryStore()
	failing.fail = true
	if NewPresenceCache(failing).IsOnline(ctx, 1) {
		t.Fatal("store errors should read as offline")
	}
}
