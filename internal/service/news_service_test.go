package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/econcast/internal/domain"
)

type memNewsCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemNewsCache() *memNewsCache {
	return &memNewsCache{entries: make(map[string][]byte)}
}

func (c *memNewsCache) Set(_ context.Context, topic string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[topic] = payload
	c.sets++
	return nil
}

func (c *memNewsCache) Get(_ context.Context, topic string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[topic]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return payload, nil
}

type fakeHeadlineProvider struct {
	headlines []domain.Headline
	calls     int
}

func (p *fakeHeadlineProvider) GetHeadlines(_ context.Context, topic string, _ int) ([]domain.Headline, error) {
	p.calls++
	out := make([]domain.Headline, len(p.headlines))
	copy(out, p.headlines)
	for i := range out {
		out[i].Topic = topic
	}
	return out, nil
}

func TestHeadlinesReadThrough(t *testing.T) {
	provider := &fakeHeadlineProvider{headlines: []domain.Headline{
		{Title: "Fed holds rates steady", Source: "wire"},
		{Title: "Jobless claims fall", Source: "wire"},
	}}
	cache := newMemNewsCache()
	svc := NewNewsService(provider, cache, 15*time.Minute, testLogger())
	ctx := context.Background()

	first, err := svc.Headlines(ctx, "economy", 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 1, cache.sets, "miss caches the upstream response")

	second, err := svc.Headlines(ctx, "economy", 10)
	require.NoError(t, err)
	assert.Equal(t, first[0].Title, second[0].Title)
	assert.Equal(t, 1, provider.calls, "cache hit must not call upstream")
}

func TestHeadlinesTrimsCachedToLimit(t *testing.T) {
	provider := &fakeHeadlineProvider{headlines: []domain.Headline{
		{Title: "one"}, {Title: "two"}, {Title: "three"},
	}}
	svc := NewNewsService(provider, newMemNewsCache(), 15*time.Minute, testLogger())
	ctx := context.Background()

	_, err := svc.Headlines(ctx, "inflation", 0)
	require.NoError(t, err)

	trimmed, err := svc.Headlines(ctx, "inflation", 2)
	require.NoError(t, err)
	assert.Len(t, trimmed, 2)
	assert.Equal(t, 1, provider.calls)
}

func TestHeadlinesRefetchesOnCorruptCache(t *testing.T) {
	provider := &fakeHeadlineProvider{headlines: []domain.Headline{{Title: "one"}}}
	cache := newMemNewsCache()
	cache.entries["markets"] = []byte("not json")
	svc := NewNewsService(provider, cache, 15*time.Minute, testLogger())

	headlines, err := svc.Headlines(context.Background(), "markets", 5)
	require.NoError(t, err)
	require.Len(t, headlines, 1)
	assert.Equal(t, 1, provider.calls)
}
