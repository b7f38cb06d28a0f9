// Package scoring turns stored forecast histories into Brier scores, user
// statistics, and leaderboard rankings. Every function in this package is a
// pure computation over an immutable snapshot: no store access, no caching,
// no mutable state between calls.
package scoring

import (
	"strings"

	"github.com/forecastlab/econcast/internal/domain"
)

// unchangedAliases maps the key spellings that admins and older clients have
// used for the middle category onto the canonical "unchanged" scoring key.
// Category labels are free text ("Remain Unchanged", "No Change", ...), so
// this table is the single seam where label variability is absorbed; nothing
// downstream of Normalize ever sees a non-canonical key.
var unchangedAliases = map[string]string{
	"unchanged":        domain.CategoryUnchanged,
	"remain unchanged": domain.CategoryUnchanged,
	"remainunchanged":  domain.CategoryUnchanged,
	"no change":        domain.CategoryUnchanged,
	"nochange":         domain.CategoryUnchanged,
	"same":             domain.CategoryUnchanged,
}

// Normalized is a forecast value in canonical form. Its key set is exactly
// the question's scoring keys, in canonical order, with absent entries at 0.
// The question type is resolved once here; score and stats code switch on
// Type instead of re-interpreting raw maps.
type Normalized struct {
	Type   domain.QuestionType
	Keys   []string
	Values map[string]float64
}

// Normalize canonicalizes a raw forecast value map for the given question.
// It never mutates the input, never fails, and degrades missing keys to a
// probability of 0.
func Normalize(raw map[string]float64, q domain.Question) Normalized {
	keys := q.ScoringKeys()
	values := make(map[string]float64, len(keys))

	switch q.Type {
	case domain.QuestionTypeThreeCategory:
		for k, v := range raw {
			values[canonicalCategoryKey(k, q)] = v
		}
	default:
		// Binary and multiple_choice keys pass through verbatim.
		for k, v := range raw {
			values[k] = v
		}
	}

	// Fill the canonical key set so consumers can iterate Keys without
	// presence checks.
	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		out[k] = values[k]
	}

	return Normalized{Type: q.Type, Keys: keys, Values: out}
}

// canonicalCategoryKey maps a raw three-category key onto its canonical
// scoring key. It accepts the canonical keys themselves, known synonyms for
// the middle category, and the question's own category labels.
func canonicalCategoryKey(k string, q domain.Question) string {
	folded := strings.ToLower(strings.TrimSpace(k))

	if canon, ok := unchangedAliases[folded]; ok {
		return canon
	}
	if strings.Contains(folded, "unchanged") {
		return domain.CategoryUnchanged
	}
	switch folded {
	case domain.CategoryIncrease, domain.CategoryDecrease:
		return folded
	}

	// Admin-edited display labels: match by position against the question's
	// categories (index order: increase, unchanged, decrease).
	for i, label := range q.Categories {
		if i >= len(domain.ThreeCategoryKeys) {
			break
		}
		if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(k)) {
			return domain.ThreeCategoryKeys[i]
		}
	}

	return folded
}

// NormalizeResolution maps a resolved question's stored outcome onto the
// canonical key space used for scoring. An outcome that matches no known key
// is returned empty; the score function treats that as "no category wins".
func NormalizeResolution(q domain.Question) string {
	res := strings.TrimSpace(q.Resolution)

	switch q.Type {
	case domain.QuestionTypeBinary:
		switch strings.ToLower(res) {
		case "yes", "true", "1":
			return ResolutionYes
		case "no", "false", "0":
			return ResolutionNo
		}
		return ""
	case domain.QuestionTypeThreeCategory:
		canon := canonicalCategoryKey(res, q)
		for _, k := range domain.ThreeCategoryKeys {
			if canon == k {
				return canon
			}
		}
		return ""
	case domain.QuestionTypeMultipleChoice:
		for _, opt := range q.Options {
			if res == opt {
				return res
			}
		}
		return ""
	}
	return ""
}
