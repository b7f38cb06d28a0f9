package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forecastlab/econcast/internal/domain"
	"github.com/forecastlab/econcast/internal/scoring"
)

// LeaderboardService computes ranked user stats from question and forecast
// snapshots. Results are derived fresh on every cache miss and never
// persisted; the Redis cache is the only thing stopping repeated full
// recomputes.
type LeaderboardService struct {
	questions domain.QuestionStore
	forecasts domain.ForecastStore
	users     domain.UserStore
	cache     domain.LeaderboardCache
	logger    *slog.Logger
}

// NewLeaderboardService creates a LeaderboardService with all required
// dependencies.
func NewLeaderboardService(
	questions domain.QuestionStore,
	forecasts domain.ForecastStore,
	users domain.UserStore,
	cache domain.LeaderboardCache,
	logger *slog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		questions: questions,
		forecasts: forecasts,
		users:     users,
		cache:     cache,
		logger:    logger,
	}
}

// Leaderboard returns every user ranked by mean time-weighted Brier score,
// best first. Reads go through the cache; misses trigger a full recompute
// from the stores and back-fill the cache.
func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.cache.Get(ctx)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "leaderboard_service: cache get failed",
			slog.String("error", err.Error()),
		)
	}

	users, questions, records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	entries = scoring.Leaderboard(users, questions, records)

	if cacheErr := s.cache.Set(ctx, entries); cacheErr != nil {
		s.logger.WarnContext(ctx, "leaderboard_service: cache set failed",
			slog.String("error", cacheErr.Error()),
		)
	}

	return entries, nil
}

// UserStats computes one user's accuracy summary from the current snapshot.
// Single-user stats bypass the leaderboard cache.
func (s *LeaderboardService) UserStats(ctx context.Context, userID string) (domain.UserStat, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return domain.UserStat{}, fmt.Errorf("leaderboard_service: get user %q: %w", userID, err)
	}

	_, questions, records, err := s.snapshot(ctx)
	if err != nil {
		return domain.UserStat{}, err
	}

	return scoring.UserStats(userID, questions, records), nil
}

// snapshot loads the full scoring input: all users, all questions, and the
// complete forecast history. Resolved questions whose stored outcome matches
// no scoring key are logged; the scoring engine treats them as "no category
// wins" rather than failing.
func (s *LeaderboardService) snapshot(ctx context.Context) ([]domain.User, []domain.Question, []domain.ForecastRecord, error) {
	users, err := s.users.List(ctx, domain.ListOpts{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("leaderboard_service: list users: %w", err)
	}
	questions, err := s.questions.List(ctx, domain.ListOpts{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("leaderboard_service: list questions: %w", err)
	}
	records, err := s.forecasts.ListAllRecords(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("leaderboard_service: list forecast records: %w", err)
	}

	for _, q := range questions {
		if q.Resolved && scoring.NormalizeResolution(q) == "" {
			s.logger.WarnContext(ctx, "leaderboard_service: malformed resolution, scoring as no outcome",
				slog.String("question_id", q.ID),
				slog.String("resolution", q.Resolution),
			)
		}
	}

	return users, questions, records, nil
}
