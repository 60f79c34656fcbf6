package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aura-go/internal/leaderboard"
)

const globalLeaderboardKey = "aura:leaderboard:global"

// LeaderboardCache keeps the ranked global leaderboard for a short TTL.
type LeaderboardCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLeaderboardCache(client redis.Cmdable, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get returns the cached entries. ok is false on a miss.
func (c *LeaderboardCache) Get(ctx context.Context) (entries []leaderboard.Entry, ok bool, err error) {
	raw, err := c.client.Get(ctx, globalLeaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leaderboard cache get: %w", err)
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		// corrupt entry, treat as a miss
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, entries []leaderboard.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, globalLeaderboardKey, raw, c.ttl).Err()
}

// Invalidate drops the cached leaderboard after aura changed.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, globalLeaderboardKey).Err()
}
