package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forecastlab/econcast/internal/domain"
)

// leaderboardTTL bounds staleness when invalidation is missed. The board is
// recomputed from the forecast history on every cache miss, so a short TTL
// is enough.
const leaderboardTTL = 2 * time.Minute

const leaderboardKey = "leaderboard:current"

// LeaderboardCache implements domain.LeaderboardCache as a single JSON blob
// with a TTL. The leaderboard is recomputed rarely relative to how often it
// is read, and serving slightly stale rankings is acceptable: scoring is
// idempotent over any consistent snapshot.
type LeaderboardCache struct {
	rdb *redis.Client
}

// NewLeaderboardCache creates a LeaderboardCache backed by the given Client.
func NewLeaderboardCache(c *Client) *LeaderboardCache {
	return &LeaderboardCache{rdb: c.Underlying()}
}

// Set stores the rendered leaderboard.
func (lc *LeaderboardCache) Set(ctx context.Context, entries []domain.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("redis: marshal leaderboard: %w", err)
	}
	if err := lc.rdb.Set(ctx, leaderboardKey, data, leaderboardTTL).Err(); err != nil {
		return fmt.Errorf("redis: set leaderboard: %w", err)
	}
	return nil
}

// Get retrieves the cached leaderboard. It returns domain.ErrNotFound on a
// cache miss.
func (lc *LeaderboardCache) Get(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	data, err := lc.rdb.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get leaderboard: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("redis: unmarshal leaderboard: %w", err)
	}
	return entries, nil
}

// Invalidate drops the cached leaderboard so the next read recomputes it.
func (lc *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := lc.rdb.Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate leaderboard: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.LeaderboardCache = (*LeaderboardCache)(nil)
