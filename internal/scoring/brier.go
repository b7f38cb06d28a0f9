package scoring

import "github.com/forecastlab/econcast/internal/domain"

// Canonical binary outcomes after NormalizeResolution.
const (
	ResolutionYes = "yes"
	ResolutionNo  = "no"
)

// binaryScoreDoubled documents that the binary formula scores both the "yes"
// and the "no" arm, which doubles the single-term Brier score. The doubling
// is load-bearing: historical leaderboard values were produced with it, so
// correcting the formula would silently reshuffle past rankings. Flip this
// only together with a deliberate migration of stored expectations.
const binaryScoreDoubled = true

// Score computes the Brier score of one normalized forecast against the
// question's resolved outcome. The result is in [0, 2]: 0 is perfect
// certainty correctly placed, 2 is full confidence in a wrong outcome.
//
// A resolution that matches no scoring key contributes no indicator at all
// (every term scores the stated probability against 0), so malformed data
// degrades to a deterministic pessimistic score instead of failing.
func Score(f Normalized, q domain.Question) float64 {
	resolution := NormalizeResolution(q)

	if f.Type == domain.QuestionTypeBinary {
		p := f.Values[domain.ForecastKeyProbability] / 100

		var yesInd, noInd float64
		switch resolution {
		case ResolutionYes:
			yesInd = 1
		case ResolutionNo:
			noInd = 1
		}

		yes := p - yesInd
		no := (1 - p) - noInd
		return yes*yes + no*no
	}

	var sum float64
	for _, key := range f.Keys {
		p := f.Values[key] / 100
		var ind float64
		if key == resolution {
			ind = 1
		}
		d := p - ind
		sum += d * d
	}
	return sum
}

// ScoreRaw is a convenience for callers holding an un-normalized value map.
func ScoreRaw(raw map[string]float64, q domain.Question) float64 {
	return Score(Normalize(raw, q), q)
}
