package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/econcast/internal/domain"
)

func openBinaryQuestion(id string) domain.Question {
	now := time.Now().UTC()
	return domain.Question{
		ID:          id,
		Title:       "Will the unemployment rate fall below 4%?",
		Type:        domain.QuestionTypeBinary,
		CreatedDate: now.Add(-24 * time.Hour),
		CloseDate:   now.Add(24 * time.Hour),
	}
}

func openCategoryQuestion(id string) domain.Question {
	q := openBinaryQuestion(id)
	q.Type = domain.QuestionTypeThreeCategory
	q.Categories = []string{"Increase", "About the same", "Decrease"}
	return q
}

func newForecastFixture(qs ...domain.Question) (*ForecastService, *memForecastStore, *memLeaderboardCache, *memSignalBus) {
	questions := newMemQuestionStore(qs...)
	forecasts := newMemForecastStore()
	users := newMemUserStore(domain.User{ID: "u1", Username: "alice"})
	cache := &memLeaderboardCache{}
	bus := newMemSignalBus()
	svc := NewForecastService(questions, forecasts, users, cache, bus, testLogger())
	return svc, forecasts, cache, bus
}

func TestSubmitStoresNormalizedValues(t *testing.T) {
	svc, forecasts, _, _ := newForecastFixture(openCategoryQuestion("q1"))

	f, err := svc.Submit(context.Background(), "u1", "q1", map[string]float64{
		"increase":       50,
		"about the same": 30,
		"decrease":       20,
	})
	require.NoError(t, err)

	// Alias keys are folded onto the canonical category keys.
	assert.Equal(t, map[string]float64{
		"increase":  50,
		"unchanged": 30,
		"decrease":  20,
	}, f.Values)

	stored, err := forecasts.GetCurrent(context.Background(), "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, f.Values, stored.Values)
}

func TestSubmitPublishesAndInvalidates(t *testing.T) {
	svc, _, cache, bus := newForecastFixture(openBinaryQuestion("q1"))
	cache.Set(context.Background(), nil)

	_, err := svc.Submit(context.Background(), "u1", "q1", map[string]float64{"probability": 70})
	require.NoError(t, err)

	assert.Equal(t, 1, bus.count("forecasts"))
	assert.Equal(t, 1, cache.invalidated)
}

func TestSubmitRevisionAppendsHistory(t *testing.T) {
	svc, forecasts, _, _ := newForecastFixture(openBinaryQuestion("q1"))
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "q1", map[string]float64{"probability": 40})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "u1", "q1", map[string]float64{"probability": 80})
	require.NoError(t, err)

	current, err := forecasts.GetCurrent(ctx, "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, 80.0, current.Values["probability"])

	history, err := svc.History(ctx, "u1", "q1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 40.0, history[0].Values["probability"])
	assert.Equal(t, 80.0, history[1].Values["probability"])
}

func TestSubmitRejectsClosedQuestion(t *testing.T) {
	q := openBinaryQuestion("q1")
	q.CloseDate = time.Now().UTC().Add(-time.Hour)
	svc, _, _, _ := newForecastFixture(q)

	_, err := svc.Submit(context.Background(), "u1", "q1", map[string]float64{"probability": 50})
	assert.ErrorIs(t, err, domain.ErrQuestionClosed)
}

func TestSubmitRejectsResolvedQuestion(t *testing.T) {
	q := openBinaryQuestion("q1")
	q.Resolved = true
	q.Resolution = "yes"
	svc, _, _, _ := newForecastFixture(q)

	_, err := svc.Submit(context.Background(), "u1", "q1", map[string]float64{"probability": 50})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestSubmitRejectsInvalidValues(t *testing.T) {
	svc, forecasts, _, _ := newForecastFixture(
		openBinaryQuestion("q1"),
		openCategoryQuestion("q2"),
	)
	ctx := context.Background()

	tests := []struct {
		name       string
		questionID string
		values     map[string]float64
	}{
		{"binary out of range", "q1", map[string]float64{"probability": 120}},
		{"binary empty", "q1", nil},
		{"category sum off", "q2", map[string]float64{"increase": 50, "unchanged": 30, "decrease": 30}},
		{"category unknown key", "q2", map[string]float64{"increase": 50, "sideways": 30, "decrease": 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, "u1", tt.questionID, tt.values)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	records, err := forecasts.ListAllRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "rejected submissions must not be recorded")
}

func TestSubmitUnknownQuestionOrUser(t *testing.T) {
	svc, _, _, _ := newForecastFixture(openBinaryQuestion("q1"))
	ctx := context.Background()

	_, err := svc.Submit(ctx, "u1", "missing", map[string]float64{"probability": 50})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Submit(ctx, "ghost", "q1", map[string]float64{"probability": 50})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
