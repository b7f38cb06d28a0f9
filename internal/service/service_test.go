package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// In-memory store fakes.
// ---------------------------------------------------------------------------

type memQuestionStore struct {
	mu        sync.Mutex
	questions map[string]domain.Question
}

func newMemQuestionStore(qs ...domain.Question) *memQuestionStore {
	s := &memQuestionStore{questions: make(map[string]domain.Question)}
	for _, q := range qs {
		s.questions[q.ID] = q
	}
	return s
}

func (s *memQuestionStore) Create(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.questions[q.ID] = q
	return nil
}

func (s *memQuestionStore) GetByID(_ context.Context, id string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	return q, nil
}

func (s *memQuestionStore) List(_ context.Context, _ domain.ListOpts) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memQuestionStore) ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	all, _ := s.List(ctx, opts)
	now := time.Now().UTC()
	out := all[:0]
	for _, q := range all {
		if q.IsOpen(now) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memQuestionStore) ListResolved(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	all, _ := s.List(ctx, opts)
	out := all[:0]
	for _, q := range all {
		if q.Resolved {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memQuestionStore) ListExpired(ctx context.Context, now time.Time) ([]domain.Question, error) {
	all, _ := s.List(ctx, domain.ListOpts{})
	out := all[:0]
	for _, q := range all {
		if !q.Resolved && !q.CloseDate.After(now) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memQuestionStore) Resolve(_ context.Context, id, resolution string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if q.Resolved {
		return domain.ErrAlreadyResolved
	}
	q.Resolved = true
	q.Resolution = resolution
	q.ResolvedDate = &resolvedAt
	s.questions[id] = q
	return nil
}

func (s *memQuestionStore) Close(_ context.Context, id string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.ErrNotFound
	}
	q.CloseDate = closedAt
	s.questions[id] = q
	return nil
}

func (s *memQuestionStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.questions)), nil
}

type memForecastStore struct {
	mu      sync.Mutex
	current map[string]domain.Forecast // userID|questionID
	records []domain.ForecastRecord
}

func newMemForecastStore() *memForecastStore {
	return &memForecastStore{current: make(map[string]domain.Forecast)}
}

func fkey(userID, questionID string) string { return userID + "|" + questionID }

func (s *memForecastStore) Upsert(_ context.Context, f domain.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[fkey(f.UserID, f.QuestionID)] = f
	s.records = append(s.records, domain.ForecastRecord{
		ID:         strconv.Itoa(len(s.records) + 1),
		QuestionID: f.QuestionID,
		UserID:     f.UserID,
		Values:     f.Values,
		CreatedAt:  f.UpdatedAt,
	})
	return nil
}

func (s *memForecastStore) GetCurrent(_ context.Context, userID, questionID string) (domain.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.current[fkey(userID, questionID)]
	if !ok {
		return domain.Forecast{}, domain.ErrNotFound
	}
	return f, nil
}

func (s *memForecastStore) History(_ context.Context, userID, questionID string) ([]domain.ForecastRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ForecastRecord
	for _, r := range s.records {
		if r.UserID == userID && r.QuestionID == questionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memForecastStore) ListByQuestion(_ context.Context, questionID string) ([]domain.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Forecast
	for _, f := range s.current {
		if f.QuestionID == questionID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memForecastStore) ListRecordsByQuestions(_ context.Context, questionIDs []string) ([]domain.ForecastRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(questionIDs))
	for _, id := range questionIDs {
		want[id] = true
	}
	var out []domain.ForecastRecord
	for _, r := range s.records {
		if want[r.QuestionID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memForecastStore) ListAllRecords(_ context.Context) ([]domain.ForecastRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ForecastRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserStore(us ...domain.User) *memUserStore {
	s := &memUserStore{users: make(map[string]domain.User)}
	for _, u := range us {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return domain.ErrAlreadyExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *memUserStore) List(_ context.Context, _ domain.ListOpts) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memUserStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

// ---------------------------------------------------------------------------
// Cache and bus fakes.
// ---------------------------------------------------------------------------

type memLeaderboardCache struct {
	mu          sync.Mutex
	entries     []domain.LeaderboardEntry
	set         bool
	invalidated int
	sets        int
	gets        int
}

func (c *memLeaderboardCache) Set(_ context.Context, entries []domain.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.set = true
	c.sets++
	return nil
}

func (c *memLeaderboardCache) Get(_ context.Context) ([]domain.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if !c.set {
		return nil, domain.ErrNotFound
	}
	return c.entries, nil
}

func (c *memLeaderboardCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.set = false
	c.invalidated++
	return nil
}

type memSignalBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newMemSignalBus() *memSignalBus {
	return &memSignalBus{published: make(map[string][][]byte)}
}

func (b *memSignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *memSignalBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *memSignalBus) count(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[channel])
}
