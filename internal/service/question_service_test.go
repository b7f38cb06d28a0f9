package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/econcast/internal/domain"
)

func newQuestionFixture(qs ...domain.Question) (*QuestionService, *memQuestionStore, *memLeaderboardCache, *memSignalBus) {
	questions := newMemQuestionStore(qs...)
	cache := &memLeaderboardCache{}
	bus := newMemSignalBus()
	svc := NewQuestionService(questions, cache, bus, nil, testLogger())
	return svc, questions, cache, bus
}

func TestCreateQuestion(t *testing.T) {
	svc, store, _, bus := newQuestionFixture()
	ctx := context.Background()

	q, err := svc.Create(ctx, domain.Question{
		Title:     "Will CPI inflation exceed 3% this quarter?",
		Type:      domain.QuestionTypeBinary,
		CloseDate: time.Now().UTC().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.False(t, q.Resolved)

	stored, err := store.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Title, stored.Title)
	assert.Equal(t, 1, bus.count("questions"))
}

func TestCreateQuestionDefaultsCategories(t *testing.T) {
	svc, _, _, _ := newQuestionFixture()

	q, err := svc.Create(context.Background(), domain.Question{
		Title:     "Will the federal funds rate change?",
		Type:      domain.QuestionTypeThreeCategory,
		CloseDate: time.Now().UTC().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ThreeCategoryKeys, q.Categories)
}

func TestCreateQuestionValidation(t *testing.T) {
	svc, _, _, _ := newQuestionFixture()
	ctx := context.Background()
	future := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name string
		q    domain.Question
	}{
		{"empty title", domain.Question{Type: domain.QuestionTypeBinary, CloseDate: future}},
		{"unknown type", domain.Question{Title: "t", Type: "ranked", CloseDate: future}},
		{"one option", domain.Question{Title: "t", Type: domain.QuestionTypeMultipleChoice, Options: []string{"only"}, CloseDate: future}},
		{"duplicate options", domain.Question{Title: "t", Type: domain.QuestionTypeMultipleChoice, Options: []string{"a", "a"}, CloseDate: future}},
		{"close date in past", domain.Question{Title: "t", Type: domain.QuestionTypeBinary, CloseDate: time.Now().UTC().Add(-time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.q)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestResolveQuestionExactlyOnce(t *testing.T) {
	svc, _, cache, bus := newQuestionFixture(openBinaryQuestion("q1"))
	ctx := context.Background()
	cache.Set(ctx, nil)

	q, err := svc.Resolve(ctx, "q1", "Yes")
	require.NoError(t, err)
	assert.True(t, q.Resolved)
	assert.Equal(t, "yes", q.Resolution, "resolution is stored canonically")
	require.NotNil(t, q.ResolvedDate)

	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, 1, bus.count("resolutions"))

	_, err = svc.Resolve(ctx, "q1", "no")
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	assert.Equal(t, 1, bus.count("resolutions"), "second resolve must not publish")
}

func TestResolveQuestionRejectsUnknownOutcome(t *testing.T) {
	svc, store, _, _ := newQuestionFixture(
		openBinaryQuestion("q1"),
		openCategoryQuestion("q2"),
	)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "q1", "maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidResolution)

	_, err = svc.Resolve(ctx, "q2", "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidResolution)

	q, err := store.GetByID(ctx, "q1")
	require.NoError(t, err)
	assert.False(t, q.Resolved, "rejected resolution must not be stored")
}

func TestResolveCategoryAlias(t *testing.T) {
	svc, _, _, _ := newQuestionFixture(openCategoryQuestion("q1"))

	q, err := svc.Resolve(context.Background(), "q1", "No Change")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryUnchanged, q.Resolution)
}

func TestCloseEarly(t *testing.T) {
	svc, store, _, _ := newQuestionFixture(openBinaryQuestion("q1"))
	ctx := context.Background()

	q, err := svc.CloseEarly(ctx, "q1")
	require.NoError(t, err)
	assert.False(t, q.IsOpen(time.Now().UTC().Add(time.Second)))

	stored, err := store.GetByID(ctx, "q1")
	require.NoError(t, err)
	assert.False(t, stored.CloseDate.After(time.Now().UTC()))
}

func TestPendingResolution(t *testing.T) {
	expired := openBinaryQuestion("q1")
	expired.CloseDate = time.Now().UTC().Add(-time.Hour)
	resolved := openBinaryQuestion("q2")
	resolved.CloseDate = time.Now().UTC().Add(-time.Hour)
	resolved.Resolved = true
	resolved.Resolution = "yes"

	svc, _, _, _ := newQuestionFixture(expired, resolved, openBinaryQuestion("q3"))

	pending, err := svc.PendingResolution(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "q1", pending[0].ID)
}
