package cache

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// Runs against a live server when SPEEDTYPE_TEST_REDIS is set, e.g. localhost:6379.
func newTestCache(t *testing.T) *LeaderboardCache {
	t.Helper()
	addr := os.Getenv("SPEEDTYPE_TEST_REDIS")
	if addr == "" {
		t.Skip("SPEEDTYPE_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	c := NewLeaderboardCache(rdb)
	c.key = LeaderboardKey + ":test:" + t.Name()
	ctx := context.Background()
	if err := rdb.Del(ctx, c.key).Err(); err != nil {
		t.Fatalf("reset key: %v", err)
	}
	t.Cleanup(func() {
		_ = rdb.Del(context.Background(), c.key).Err()
	})
	return c
}

func TestUpdateScoreOnlyRises(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for _, s := range []int{10, 4, 16, 12} {
		if err := c.UpdateScore(ctx, "u1", s); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if err := c.UpdateScore(ctx, "u2", 11); err != nil {
		t.Fatalf("update: %v", err)
	}

	top, err := c.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %+v", top)
	}
	if top[0].UserID != "u1" || top[0].Score != 16 || top[0].Rank != 1 {
		t.Fatalf("unexpected first entry: %+v", top[0])
	}
	if top[1].UserID != "u2" || top[1].Rank != 2 {
		t.Fatalf("unexpected second entry: %+v", top[1])
	}
}

func TestTopNonPositiveLimit(t *testing.T) {
	c := NewLeaderboardCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	top, err := c.Top(context.Background(), 0)
	if err != nil || len(top) != 0 {
		t.Fatalf("expected empty result without a round trip, got %v %v", top, err)
	}
}
