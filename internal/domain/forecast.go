package domain

import "time"

// ForecastKeyProbability is the single value key for binary forecasts.
const ForecastKeyProbability = "probability"

// Forecast is a user's current belief snapshot for one question. Exactly one
// current row exists per (UserID, QuestionID) pair; revisions overwrite it,
// and the full revision history is retained separately as ForecastRecords.
type Forecast struct {
	ID         string
	QuestionID string
	UserID     string

	// Values maps scoring keys to probabilities in [0,100]. The key set
	// depends on the question type: {"probability"} for binary, the three
	// canonical category keys for three_category, and the question's option
	// labels for multiple_choice. Category and choice values sum to 100.
	Values map[string]float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ForecastRecord is one append-only history entry: the value a forecast held
// starting at CreatedAt. Histories are ordered by CreatedAt ascending.
type ForecastRecord struct {
	ID         string
	QuestionID string
	UserID     string
	Values     map[string]float64
	CreatedAt  time.Time
}

// Clone returns a deep copy of the record's value map. Scoring code never
// mutates its inputs; writers that need a private copy use this.
func (r ForecastRecord) Clone() map[string]float64 {
	out := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}
