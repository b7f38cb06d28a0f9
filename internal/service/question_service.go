package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forecastlab/econcast/internal/domain"
	"github.com/forecastlab/econcast/internal/notify"
	"github.com/forecastlab/econcast/internal/scoring"
)

// QuestionService handles the question lifecycle: creation, listing, the
// close-date sweep, and the exactly-once resolution transition.
type QuestionService struct {
	questions domain.QuestionStore
	cache     domain.LeaderboardCache
	bus       domain.SignalBus
	notifier  *notify.Notifier
	logger    *slog.Logger
}

// NewQuestionService creates a QuestionService with all required dependencies.
func NewQuestionService(
	questions domain.QuestionStore,
	cache domain.LeaderboardCache,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		cache:     cache,
		bus:       bus,
		notifier:  notifier,
		logger:    logger,
	}
}

// Create validates and persists a new question. Three-category questions get
// the canonical category set when none is supplied; multiple-choice questions
// must carry at least two distinct options.
func (s *QuestionService) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	if strings.TrimSpace(q.Title) == "" {
		return domain.Question{}, fmt.Errorf("question_service: empty title: %w", domain.ErrValidation)
	}

	now := time.Now().UTC()
	switch q.Type {
	case domain.QuestionTypeBinary:
	case domain.QuestionTypeThreeCategory:
		if len(q.Categories) == 0 {
			q.Categories = append([]string(nil), domain.ThreeCategoryKeys...)
		}
	case domain.QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return domain.Question{}, fmt.Errorf("question_service: multiple_choice needs at least 2 options: %w", domain.ErrValidation)
		}
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" || seen[opt] {
				return domain.Question{}, fmt.Errorf("question_service: blank or duplicate option %q: %w", opt, domain.ErrValidation)
			}
			seen[opt] = true
		}
	default:
		return domain.Question{}, fmt.Errorf("question_service: unknown question type %q: %w", q.Type, domain.ErrValidation)
	}

	if q.CreatedDate.IsZero() {
		q.CreatedDate = now
	}
	if !q.CloseDate.After(q.CreatedDate) {
		return domain.Question{}, fmt.Errorf("question_service: close date not after created date: %w", domain.ErrValidation)
	}

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Resolved = false
	q.Resolution = ""
	q.ResolvedDate = nil
	q.CreatedAt = now
	q.UpdatedAt = now

	if err := s.questions.Create(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("question_service: create: %w", err)
	}

	evt, _ := json.Marshal(map[string]string{
		"event":       "question_created",
		"question_id": q.ID,
		"type":        string(q.Type),
	})
	if pubErr := s.bus.Publish(ctx, "questions", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "question_service: publish event failed",
			slog.String("question_id", q.ID),
			slog.String("error", pubErr.Error()),
		)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, notify.EventQuestionCreated,
			"New question", q.Title); err != nil {
			s.logger.WarnContext(ctx, "question_service: notify failed",
				slog.String("question_id", q.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "question_service: question created",
		slog.String("question_id", q.ID),
		slog.String("type", string(q.Type)),
	)

	return q, nil
}

// Get retrieves a question by ID.
func (s *QuestionService) Get(ctx context.Context, id string) (domain.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question_service: get by id %q: %w", id, err)
	}
	return q, nil
}

// List returns questions, newest first.
func (s *QuestionService) List(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	qs, err := s.questions.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("question_service: list: %w", err)
	}
	return qs, nil
}

// ListOpen returns questions still accepting forecasts.
func (s *QuestionService) ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	qs, err := s.questions.ListOpen(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("question_service: list open: %w", err)
	}
	return qs, nil
}

// ListResolved returns questions with a recorded outcome.
func (s *QuestionService) ListResolved(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	qs, err := s.questions.ListResolved(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("question_service: list resolved: %w", err)
	}
	return qs, nil
}

// Resolve records a question's realized outcome. The transition happens
// exactly once: a second call fails with ErrAlreadyResolved. Outcomes that
// match none of the question's scoring keys are rejected with
// ErrInvalidResolution rather than stored; historically malformed rows are
// still tolerated by the scoring engine.
func (s *QuestionService) Resolve(ctx context.Context, id, resolution string) (domain.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question_service: get by id %q: %w", id, err)
	}
	if q.Resolved {
		return domain.Question{}, fmt.Errorf("question_service: question %q: %w", id, domain.ErrAlreadyResolved)
	}

	// Normalize the proposed outcome against the question's key space before
	// anything is written.
	probe := q
	probe.Resolution = resolution
	canon := scoring.NormalizeResolution(probe)
	if canon == "" {
		return domain.Question{}, fmt.Errorf("question_service: resolution %q does not match question %q: %w",
			resolution, id, domain.ErrInvalidResolution)
	}

	now := time.Now().UTC()
	if err := s.questions.Resolve(ctx, id, canon, now); err != nil {
		return domain.Question{}, fmt.Errorf("question_service: resolve %q: %w", id, err)
	}

	q.Resolved = true
	q.Resolution = canon
	q.ResolvedDate = &now
	q.UpdatedAt = now

	// Resolution changes every answering user's score.
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "question_service: leaderboard invalidate failed",
			slog.String("error", err.Error()),
		)
	}

	evt, _ := json.Marshal(map[string]string{
		"event":       "question_resolved",
		"question_id": id,
		"resolution":  canon,
	})
	if pubErr := s.bus.Publish(ctx, "resolutions", evt); pubErr != nil {
		s.logger.WarnContext(ctx, "question_service: publish event failed",
			slog.String("question_id", id),
			slog.String("error", pubErr.Error()),
		)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, notify.EventQuestionResolved,
			"Question resolved", fmt.Sprintf("%s\nOutcome: %s", q.Title, canon)); err != nil {
			s.logger.WarnContext(ctx, "question_service: notify failed",
				slog.String("question_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "question_service: question resolved",
		slog.String("question_id", id),
		slog.String("resolution", canon),
	)

	return q, nil
}

// CloseEarly moves a question's close date to now so it stops accepting
// forecasts immediately. Resolved questions cannot be closed again.
func (s *QuestionService) CloseEarly(ctx context.Context, id string) (domain.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question_service: get by id %q: %w", id, err)
	}
	if q.Resolved {
		return domain.Question{}, fmt.Errorf("question_service: question %q: %w", id, domain.ErrAlreadyResolved)
	}

	now := time.Now().UTC()
	if !q.IsOpen(now) {
		return q, nil
	}
	if err := s.questions.Close(ctx, id, now); err != nil {
		return domain.Question{}, fmt.Errorf("question_service: close %q: %w", id, err)
	}
	q.CloseDate = now
	q.UpdatedAt = now

	s.logger.InfoContext(ctx, "question_service: question closed early",
		slog.String("question_id", id),
	)
	return q, nil
}

// PendingResolution lists questions whose close date has passed but whose
// outcome has not been recorded yet. The background sweep uses this to nag
// admins; submissions against these questions are already rejected by the
// close-date check.
func (s *QuestionService) PendingResolution(ctx context.Context, now time.Time) ([]domain.Question, error) {
	qs, err := s.questions.ListExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("question_service: list expired: %w", err)
	}
	return qs, nil
}

// Count returns the total number of questions.
func (s *QuestionService) Count(ctx context.Context) (int64, error) {
	count, err := s.questions.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("question_service: count: %w", err)
	}
	return count, nil
}
