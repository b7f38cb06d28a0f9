package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/econcast/internal/domain"
)

func TestValidateSubmissionBinary(t *testing.T) {
	q := binaryQuestion("")

	tests := []struct {
		name    string
		raw     map[string]float64
		wantErr bool
	}{
		{name: "valid", raw: map[string]float64{"probability": 70}, wantErr: false},
		{name: "zero", raw: map[string]float64{"probability": 0}, wantErr: false},
		{name: "hundred", raw: map[string]float64{"probability": 100}, wantErr: false},
		{name: "negative", raw: map[string]float64{"probability": -1}, wantErr: true},
		{name: "over hundred", raw: map[string]float64{"probability": 101}, wantErr: true},
		{name: "missing key", raw: map[string]float64{"chance": 70}, wantErr: true},
		{name: "extra key", raw: map[string]float64{"probability": 70, "other": 30}, wantErr: true},
		{name: "empty", raw: map[string]float64{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmission(q, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSubmissionThreeCategory(t *testing.T) {
	q := threeCategoryQuestion("")

	tests := []struct {
		name    string
		raw     map[string]float64
		wantErr bool
	}{
		{
			name: "sums to hundred",
			raw:  map[string]float64{"increase": 30, "unchanged": 40, "decrease": 30},
		},
		{
			name: "alias keys accepted",
			raw:  map[string]float64{"increase": 30, "Remain Unchanged": 40, "decrease": 30},
		},
		{
			name:    "sums short",
			raw:     map[string]float64{"increase": 30, "unchanged": 40, "decrease": 20},
			wantErr: true,
		},
		{
			name:    "sums over",
			raw:     map[string]float64{"increase": 50, "unchanged": 40, "decrease": 30},
			wantErr: true,
		},
		{
			name:    "unknown key",
			raw:     map[string]float64{"increase": 30, "sideways": 40, "decrease": 30},
			wantErr: true,
		},
		{
			name:    "negative value",
			raw:     map[string]float64{"increase": -10, "unchanged": 60, "decrease": 50},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmission(q, tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSubmissionMultipleChoice(t *testing.T) {
	q := choiceQuestion([]string{"Fed hikes", "Fed holds", "Fed cuts"}, "")

	assert.NoError(t, ValidateSubmission(q, map[string]float64{
		"Fed hikes": 20, "Fed holds": 50, "Fed cuts": 30,
	}))

	// Omitted options default to 0 but the stated mass must still cover 100.
	assert.NoError(t, ValidateSubmission(q, map[string]float64{"Fed holds": 100}))

	assert.ErrorIs(t, ValidateSubmission(q, map[string]float64{"Fed holds": 60}), domain.ErrValidation)
	assert.ErrorIs(t, ValidateSubmission(q, map[string]float64{"ECB holds": 100}), domain.ErrValidation)
}

func TestValidateSubmissionNormalizedSumProperty(t *testing.T) {
	// Any submission that passes validation normalizes to values summing to
	// exactly 100 across the canonical key set.
	q := threeCategoryQuestion("")
	raws := []map[string]float64{
		{"increase": 30, "unchanged": 40, "decrease": 30},
		{"increase": 100},
		{"No Change": 55, "decrease": 45},
	}

	for _, raw := range raws {
		if err := ValidateSubmission(q, raw); err != nil {
			continue
		}
		n := Normalize(raw, q)
		var sum float64
		for _, k := range n.Keys {
			sum += n.Values[k]
		}
		assert.InDelta(t, 100, sum, sumTolerance)
	}
}
