package scoring

import (
	"sort"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

const day = 24 * time.Hour

// TimeWeightedScore folds a user's full forecast history for one resolved
// question into a single scalar: the day-weighted mean of each revision's
// Brier score over the window it was live. A forecaster who committed to an
// accurate value early and held it is rewarded over the whole window, not
// just scored once at resolution.
//
// Window weights: a revision is live from its own CreatedAt until the next
// revision (exclusive, minimum one day so same-day replacements still
// count), and the final revision's window runs to the resolution date with
// both endpoints counted. A ten-day unrevised forecast therefore weighs
// eleven days, which cancels out in the mean (a single revision always
// scores exactly its plain Brier score).
//
// An empty history returns 0, which callers must treat as "no score" (gate
// on QuestionsAnswered), never as a perfect forecast.
func TimeWeightedScore(history []domain.ForecastRecord, q domain.Question) float64 {
	if len(history) == 0 {
		return 0
	}

	// Callers are expected to pass history ordered by CreatedAt, but sorting
	// here keeps the weights correct when they don't. Sort a copy; scoring
	// never mutates its inputs.
	records := make([]domain.ForecastRecord, len(history))
	copy(records, history)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	resolvedAt := q.CloseDate
	if q.ResolvedDate != nil {
		resolvedAt = *q.ResolvedDate
	}

	var weightedSum, totalDays float64
	for i, rec := range records {
		var days float64
		if i+1 < len(records) {
			days = windowDays(rec.CreatedAt, records[i+1].CreatedAt, 0)
		} else {
			days = windowDays(rec.CreatedAt, resolvedAt, 1)
		}

		score := Score(Normalize(rec.Values, q), q)

		weightedSum += score * days
		totalDays += days
	}

	return weightedSum / totalDays
}

// windowDays counts whole days between start and end plus the inclusive
// correction for the closing window, clamped to a minimum of one day. The
// clamp covers both same-day revisions and negative spans from resolution
// timestamps that precede the last revision (clock skew in imported data);
// neither may produce a zero or negative weight that would silently discard
// a forecast's contribution.
func windowDays(start, end time.Time, inclusive float64) float64 {
	d := float64(int(end.Sub(start)/day)) + inclusive
	if d < 1 {
		return 1
	}
	return d
}
