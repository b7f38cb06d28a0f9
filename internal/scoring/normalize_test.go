package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forecastlab/econcast/internal/domain"
)

func TestNormalizeThreeCategoryAliases(t *testing.T) {
	q := threeCategoryQuestion("unchanged")

	tests := []struct {
		name string
		raw  map[string]float64
	}{
		{
			name: "canonical keys pass through",
			raw:  map[string]float64{"increase": 30, "unchanged": 40, "decrease": 30},
		},
		{
			name: "admin label for middle category",
			raw:  map[string]float64{"increase": 30, "Remain Unchanged": 40, "decrease": 30},
		},
		{
			name: "no change synonym",
			raw:  map[string]float64{"increase": 30, "no change": 40, "decrease": 30},
		},
		{
			name: "substring match",
			raw:  map[string]float64{"increase": 30, "stays unchanged": 40, "decrease": 30},
		},
		{
			name: "mixed case labels",
			raw:  map[string]float64{"Increase": 30, "UNCHANGED": 40, "Decrease": 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, q)
			assert.Equal(t, domain.ThreeCategoryKeys, got.Keys)
			assert.Equal(t, 30.0, got.Values["increase"])
			assert.Equal(t, 40.0, got.Values["unchanged"])
			assert.Equal(t, 30.0, got.Values["decrease"])
		})
	}
}

func TestNormalizeMissingKeysDegradeToZero(t *testing.T) {
	q := choiceQuestion([]string{"a", "b", "c"}, "a")
	got := Normalize(map[string]float64{"a": 100}, q)

	assert.Equal(t, 100.0, got.Values["a"])
	assert.Equal(t, 0.0, got.Values["b"])
	assert.Equal(t, 0.0, got.Values["c"])
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	raw := map[string]float64{"Remain Unchanged": 100}
	_ = Normalize(raw, threeCategoryQuestion("unchanged"))

	assert.Equal(t, map[string]float64{"Remain Unchanged": 100}, raw)
}

func TestNormalizeBinaryPassThrough(t *testing.T) {
	got := Normalize(map[string]float64{"probability": 62.5}, binaryQuestion("yes"))

	assert.Equal(t, []string{"probability"}, got.Keys)
	assert.Equal(t, 62.5, got.Values["probability"])
}

func TestNormalizeResolution(t *testing.T) {
	tests := []struct {
		name     string
		q        domain.Question
		expected string
	}{
		{name: "binary yes", q: binaryQuestion("yes"), expected: "yes"},
		{name: "binary true", q: binaryQuestion("true"), expected: "yes"},
		{name: "binary false", q: binaryQuestion("false"), expected: "no"},
		{name: "binary garbage", q: binaryQuestion("dunno"), expected: ""},
		{name: "category canonical", q: threeCategoryQuestion("decrease"), expected: "decrease"},
		{name: "category label", q: threeCategoryQuestion("Remain Unchanged"), expected: "unchanged"},
		{name: "category unknown", q: threeCategoryQuestion("sideways"), expected: ""},
		{name: "choice verbatim", q: choiceQuestion([]string{"a", "b"}, "b"), expected: "b"},
		{name: "choice unknown", q: choiceQuestion([]string{"a", "b"}, "z"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeResolution(tt.q))
		})
	}
}
