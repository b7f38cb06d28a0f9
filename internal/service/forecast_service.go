package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
	"github.com/forecastlab/econcast/internal/scoring"
)

// ForecastService handles forecast submission and revision. Submissions are
// validated against the question's type, normalized onto canonical scoring
// keys, and stored as the current forecast plus an append-only history row.
type ForecastService struct {
	questions domain.QuestionStore
	forecasts domain.ForecastStore
	users     domain.UserStore
	cache     domain.LeaderboardCache
	bus       domain.SignalBus
	logger    *slog.Logger
}

// NewForecastService creates a ForecastService with all required dependencies.
func NewForecastService(
	questions domain.QuestionStore,
	forecasts domain.ForecastStore,
	users domain.UserStore,
	cache domain.LeaderboardCache,
	bus domain.SignalBus,
	logger *slog.Logger,
) *ForecastService {
	return &ForecastService{
		questions: questions,
		forecasts: forecasts,
		users:     users,
		cache:     cache,
		bus:       bus,
		logger:    logger,
	}
}

// Submit records a user's forecast for a question. Revisions overwrite the
// current forecast and append to the revision history; the previous value is
// never lost. Submissions against resolved questions fail with
// ErrAlreadyResolved, and against closed questions with ErrQuestionClosed.
func (s *ForecastService) Submit(ctx context.Context, userID, questionID string, values map[string]float64) (domain.Forecast, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast_service: get question %q: %w", questionID, err)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast_service: get user %q: %w", userID, err)
	}

	now := time.Now().UTC()
	if q.Resolved {
		return domain.Forecast{}, fmt.Errorf("forecast_service: question %q: %w", questionID, domain.ErrAlreadyResolved)
	}
	if !q.IsOpen(now) {
		return domain.Forecast{}, fmt.Errorf("forecast_service: question %q: %w", questionID, domain.ErrQuestionClosed)
	}

	if err := scoring.ValidateSubmission(q, values); err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast_service: %w", err)
	}

	// Store the canonical form so scoring never has to re-interpret aliases.
	norm := scoring.Normalize(values, q)

	f := domain.Forecast{
		QuestionID: questionID,
		UserID:     userID,
		Values:     norm.Values,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.forecasts.Upsert(ctx, f); err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast_service: upsert forecast: %w", err)
	}

	// The leaderboard only shifts when a resolved question's history changes,
	// but answering a new question changes questionsAnswered immediately.
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "forecast_service: leaderboard invalidate failed",
			slog.String("error", err.Error()),
		)
	}

	// Publish submission event.
	evt, _ := json.Marshal(map[string]string{
		"event":       "forecast_submitted",
		"question_id": questionID,
		"user_id":     userID,
	})
	if pubErr := s.bus.Publish(ctx, "forecasts", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "forecast_service: publish event failed",
			slog.String("question_id", questionID),
			slog.String("error", pubErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "forecast_service: forecast submitted",
		slog.String("question_id", questionID),
		slog.String("user_id", userID),
	)

	return f, nil
}

// Current returns the user's current forecast for a question.
func (s *ForecastService) Current(ctx context.Context, userID, questionID string) (domain.Forecast, error) {
	f, err := s.forecasts.GetCurrent(ctx, userID, questionID)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast_service: get current: %w", err)
	}
	return f, nil
}

// History returns a user's full revision log for one question, oldest first.
func (s *ForecastService) History(ctx context.Context, userID, questionID string) ([]domain.ForecastRecord, error) {
	recs, err := s.forecasts.History(ctx, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("forecast_service: history: %w", err)
	}
	return recs, nil
}

// ListByQuestion returns every user's current forecast for a question.
func (s *ForecastService) ListByQuestion(ctx context.Context, questionID string) ([]domain.Forecast, error) {
	fs, err := s.forecasts.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("forecast_service: list by question: %w", err)
	}
	return fs, nil
}
