package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

// HeadlineProvider fetches economic headlines from an upstream news API.
type HeadlineProvider interface {
	GetHeadlines(ctx context.Context, topic string, limit int) ([]domain.Headline, error)
}

// NewsService serves economic headlines through a read-through Redis cache,
// keeping upstream API usage inside its rate limits.
type NewsService struct {
	provider HeadlineProvider
	cache    domain.NewsCache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewNewsService creates a NewsService. ttl controls how long cached topics
// are served before the upstream API is asked again.
func NewNewsService(provider HeadlineProvider, cache domain.NewsCache, ttl time.Duration, logger *slog.Logger) *NewsService {
	return &NewsService{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Headlines returns recent headlines for a topic, serving from cache when
// fresh and falling back to the upstream API on a miss.
func (s *NewsService) Headlines(ctx context.Context, topic string, limit int) ([]domain.Headline, error) {
	if payload, err := s.cache.Get(ctx, topic); err == nil {
		var cached []domain.Headline
		if unmarshalErr := json.Unmarshal(payload, &cached); unmarshalErr == nil {
			if limit > 0 && limit < len(cached) {
				cached = cached[:limit]
			}
			return cached, nil
		}
		// Corrupt cache entry; refetch below.
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "news_service: cache get failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}

	headlines, err := s.provider.GetHeadlines(ctx, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("news_service: get headlines: %w", err)
	}

	if payload, marshalErr := json.Marshal(headlines); marshalErr == nil {
		if cacheErr := s.cache.Set(ctx, topic, payload, s.ttl); cacheErr != nil {
			s.logger.WarnContext(ctx, "news_service: cache set failed",
				slog.String("topic", topic),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return headlines, nil
}
