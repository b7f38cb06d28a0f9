package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forecastlab/econcast/internal/domain"
)

// NewsCache implements domain.NewsCache: raw response payloads from the
// third-party headline API keyed by topic, with per-entry TTLs. Strictly a
// read-through cache; a miss just means the service fetches upstream again.
type NewsCache struct {
	rdb *redis.Client
}

// NewNewsCache creates a NewsCache backed by the given Client.
func NewNewsCache(c *Client) *NewsCache {
	return &NewsCache{rdb: c.Underlying()}
}

func newsKey(topic string) string { return "news:" + topic }

// Set stores a headline payload for a topic.
func (nc *NewsCache) Set(ctx context.Context, topic string, payload []byte, ttl time.Duration) error {
	if err := nc.rdb.Set(ctx, newsKey(topic), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set news %s: %w", topic, err)
	}
	return nil
}

// Get retrieves a cached headline payload. It returns domain.ErrNotFound on
// a cache miss.
func (nc *NewsCache) Get(ctx context.Context, topic string) ([]byte, error) {
	data, err := nc.rdb.Get(ctx, newsKey(topic)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get news %s: %w", topic, err)
	}
	return data, nil
}

// Compile-time interface check.
var _ domain.NewsCache = (*NewsCache)(nil)
