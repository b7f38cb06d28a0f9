package domain

import (
	"context"
	"time"
)

// LeaderboardCache stores a rendered leaderboard so repeated reads do not
// recompute scores over the full forecast history.
type LeaderboardCache interface {
	Set(ctx context.Context, entries []LeaderboardEntry) error
	Get(ctx context.Context) ([]LeaderboardEntry, error)
	Invalidate(ctx context.Context) error
}

// NewsCache is a read-through cache over third-party headline APIs.
type NewsCache interface {
	Set(ctx context.Context, topic string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, topic string) ([]byte, error)
}

// RateLimiter provides distributed rate limiting for forecast submissions.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out for submission and resolution events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
