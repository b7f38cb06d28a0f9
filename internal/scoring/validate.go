package scoring

import (
	"fmt"
	"math"

	"github.com/forecastlab/econcast/internal/domain"
)

// sumTolerance absorbs float noise when checking that category and choice
// probabilities sum to 100. Values arriving from JSON have already been
// through float64 round-trips, so an exact comparison would reject valid
// submissions.
const sumTolerance = 1e-6

// ValidateSubmission checks a raw forecast value map against the question it
// targets, before any normalization or write. Every failure wraps
// domain.ErrValidation so the HTTP layer can map the whole family to a 400
// without contacting the store.
func ValidateSubmission(q domain.Question, raw map[string]float64) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty forecast", domain.ErrValidation)
	}

	switch q.Type {
	case domain.QuestionTypeBinary:
		p, ok := raw[domain.ForecastKeyProbability]
		if !ok {
			return fmt.Errorf("%w: binary forecast requires a %q value", domain.ErrValidation, domain.ForecastKeyProbability)
		}
		if len(raw) > 1 {
			return fmt.Errorf("%w: binary forecast accepts only a %q value", domain.ErrValidation, domain.ForecastKeyProbability)
		}
		return validateRange(domain.ForecastKeyProbability, p)

	case domain.QuestionTypeThreeCategory, domain.QuestionTypeMultipleChoice:
		normalized := Normalize(raw, q)

		// Reject keys that vanish under normalization: the raw map had an
		// entry no scoring key corresponds to.
		if err := checkUnknownKeys(raw, q, normalized); err != nil {
			return err
		}

		var sum float64
		for _, k := range normalized.Keys {
			v := normalized.Values[k]
			if err := validateRange(k, v); err != nil {
				return err
			}
			sum += v
		}
		if math.Abs(sum-100) > sumTolerance {
			return fmt.Errorf("%w: probabilities sum to %v, want 100", domain.ErrValidation, sum)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown question type %q", domain.ErrValidation, q.Type)
	}
}

func validateRange(key string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %q probability %v outside [0,100]", domain.ErrValidation, key, v)
	}
	return nil
}

// checkUnknownKeys verifies that every raw key survived normalization onto a
// scoring key. The alias table makes this tolerant for three-category
// synonyms while still rejecting typos and stale option labels.
func checkUnknownKeys(raw map[string]float64, q domain.Question, normalized Normalized) error {
	for k := range raw {
		mapped := k
		if q.Type == domain.QuestionTypeThreeCategory {
			mapped = canonicalCategoryKey(k, q)
		}
		known := false
		for _, canon := range normalized.Keys {
			if mapped == canon {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: unknown key %q for question type %s", domain.ErrValidation, k, q.Type)
		}
	}
	return nil
}
