// Package cache keeps the score leaderboard in Redis.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/speedtype/internal/model"
)

// LeaderboardKey is the sorted set holding each user's best score.
const LeaderboardKey = "speedtype:leaderboard"

// LeaderboardCache handles Redis ZSET operations for the leaderboard.
type LeaderboardCache struct {
	client redis.Cmdable
	key    string
}

// NewLeaderboardCache creates a cache on LeaderboardKey.
func NewLeaderboardCache(client redis.Cmdable) *LeaderboardCache {
	return &LeaderboardCache{client: client, key: LeaderboardKey}
}

// UpdateScore records score for userID. The stored value only ever rises.
func (c *LeaderboardCache) UpdateScore(ctx context.Context, userID string, score int) error {
	err := c.client.ZAddArgs(ctx, c.key, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: float64(score), Member: userID}},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest limit scores with 1-based ranks.
func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return []model.LeaderboardEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = model.LeaderboardEntry{
			UserID: member,
			Score:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}
