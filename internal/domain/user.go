package domain

import "time"

// User is a forecaster account. Credentials and sessions live with the
// external auth provider; the backend only stores the identity row.
type User struct {
	ID          string
	Username    string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
}

// UserStat is the derived per-user accuracy summary. It is computed fresh
// from question/forecast snapshots on every query and never persisted.
type UserStat struct {
	// BrierScore is the unweighted mean of per-question time-weighted Brier
	// scores over resolved questions the user forecast on, rounded to 3
	// decimals. Lower is better. Users with no resolved answered questions
	// carry the sentinel value 0; check QuestionsAnswered before trusting it.
	BrierScore float64 `json:"brierScore"`

	// QuestionsAnswered counts the distinct questions the user has ever
	// forecast on, resolved or not. Note this is deliberately NOT the
	// denominator used for Accuracy.
	QuestionsAnswered int `json:"questionsAnswered"`

	// Accuracy is the percentage of resolved answered questions whose last
	// forecast placed its highest probability on the realized outcome,
	// rounded to 1 decimal.
	Accuracy float64 `json:"accuracy"`
}

// LeaderboardEntry pairs a user with their computed stats at one rank.
type LeaderboardEntry struct {
	Rank  int      `json:"rank"`
	User  User     `json:"user"`
	Stats UserStat `json:"stats"`
}
