package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/econcast/internal/domain"
	"github.com/forecastlab/econcast/internal/server/handler"
)

type stubQuestionService struct {
	questions map[string]domain.Question
}

func (s *stubQuestionService) Create(_ context.Context, q domain.Question) (domain.Question, error) {
	q.ID = "new"
	return q, nil
}

func (s *stubQuestionService) Get(_ context.Context, id string) (domain.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	return q, nil
}

func (s *stubQuestionService) List(_ context.Context, _ domain.ListOpts) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	return out, nil
}

func (s *stubQuestionService) ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	return s.List(ctx, opts)
}

func (s *stubQuestionService) ListResolved(_ context.Context, _ domain.ListOpts) ([]domain.Question, error) {
	return nil, nil
}

func (s *stubQuestionService) Resolve(_ context.Context, id, _ string) (domain.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	if q.Resolved {
		return domain.Question{}, domain.ErrAlreadyResolved
	}
	q.Resolved = true
	return q, nil
}

func (s *stubQuestionService) CloseEarly(_ context.Context, id string) (domain.Question, error) {
	return s.Get(context.Background(), id)
}

func (s *stubQuestionService) Count(_ context.Context) (int64, error) {
	return int64(len(s.questions)), nil
}

type stubForecastService struct{}

func (s *stubForecastService) Submit(_ context.Context, userID, questionID string, values map[string]float64) (domain.Forecast, error) {
	return domain.Forecast{QuestionID: questionID, UserID: userID, Values: values}, nil
}

func (s *stubForecastService) Current(_ context.Context, _, _ string) (domain.Forecast, error) {
	return domain.Forecast{}, domain.ErrNotFound
}

func (s *stubForecastService) History(_ context.Context, _, _ string) ([]domain.ForecastRecord, error) {
	return nil, nil
}

type stubLeaderboardService struct{}

func (s *stubLeaderboardService) Leaderboard(_ context.Context) ([]domain.LeaderboardEntry, error) {
	return []domain.LeaderboardEntry{
		{Rank: 1, User: domain.User{ID: "u1", Username: "alice"}},
	}, nil
}

func (s *stubLeaderboardService) UserStats(_ context.Context, userID string) (domain.UserStat, error) {
	if userID != "u1" {
		return domain.UserStat{}, domain.ErrNotFound
	}
	return domain.UserStat{QuestionsAnswered: 3}, nil
}

type stubUserService struct{}

func (s *stubUserService) Register(_ context.Context, username, displayName string) (domain.User, error) {
	return domain.User{ID: "u1", Username: username, DisplayName: displayName}, nil
}

func (s *stubUserService) Get(_ context.Context, id string) (domain.User, error) {
	if id != "u1" {
		return domain.User{}, domain.ErrNotFound
	}
	return domain.User{ID: "u1", Username: "alice"}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

type denyLimiter struct{}

func (denyLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return false, nil
}

func newTestServer(t *testing.T, cfg Config, limiter domain.RateLimiter) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	questions := &stubQuestionService{questions: map[string]domain.Question{
		"q1": {
			ID:        "q1",
			Title:     "Will unemployment fall below 4%?",
			Type:      domain.QuestionTypeBinary,
			CloseDate: time.Now().UTC().Add(24 * time.Hour),
		},
	}}

	handlers := Handlers{
		Health:      handler.NewHealthHandler(stubPinger{}, stubPinger{}, logger),
		Questions:   handler.NewQuestionHandler(questions, logger),
		Forecasts:   handler.NewForecastHandler(&stubForecastService{}, logger),
		Leaderboard: handler.NewLeaderboardHandler(&stubLeaderboardService{}, logger),
		Users:       handler.NewUserHandler(&stubUserService{}, logger),
	}
	return NewServer(cfg, handlers, limiter, nil, logger).httpServer.Handler
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t, Config{}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"list questions", http.MethodGet, "/api/questions", "", http.StatusOK},
		{"get question", http.MethodGet, "/api/questions/q1", "", http.StatusOK},
		{"unknown question", http.MethodGet, "/api/questions/nope", "", http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/questions?status=stale", "", http.StatusBadRequest},
		{"leaderboard", http.MethodGet, "/api/leaderboard", "", http.StatusOK},
		{"user stats", http.MethodGet, "/api/users/u1/stats", "", http.StatusOK},
		{"unknown user stats", http.MethodGet, "/api/users/u2/stats", "", http.StatusNotFound},
		{"news not configured", http.MethodGet, "/api/news", "", http.StatusNotFound},
		{"submit forecast", http.MethodPost, "/api/questions/q1/forecast",
			`{"userId":"u1","values":{"probability":70}}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAdminGuard(t *testing.T) {
	h := newTestServer(t, Config{AdminAPIKey: "secret"}, nil)
	body := `{"title":"New question","type":"binary","closeDate":"2030-01-01T00:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/api/questions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/questions", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new", resp["id"])
}

func TestSubmitRateLimited(t *testing.T) {
	h := newTestServer(t, Config{SubmitLimit: 1, SubmitWindow: time.Minute}, denyLimiter{})

	req := httptest.NewRequest(http.MethodPost, "/api/questions/q1/forecast",
		strings.NewReader(`{"userId":"u1","values":{"probability":70}}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
