package domain

import "time"

// QuestionType discriminates the three forecast shapes a question can take.
// Adding a type requires extending both the scoring normalizer and the score
// function together.
type QuestionType string

const (
	QuestionTypeBinary         QuestionType = "binary"
	QuestionTypeThreeCategory  QuestionType = "three_category"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
)

// Canonical three-category scoring keys. Category labels are admin-editable
// free text; these keys are the stable identifiers forecasts are scored
// against.
const (
	CategoryIncrease  = "increase"
	CategoryUnchanged = "unchanged"
	CategoryDecrease  = "decrease"
)

// ThreeCategoryKeys is the canonical key order for three-category questions.
var ThreeCategoryKeys = []string{CategoryIncrease, CategoryUnchanged, CategoryDecrease}

// Question is a single forecasting target authored by an admin.
type Question struct {
	ID    string
	Title string
	Type  QuestionType

	// Categories holds the three display labels for three_category questions
	// (index order: increase, unchanged, decrease). Empty otherwise.
	Categories []string

	// Options holds the option labels for multiple_choice questions, in
	// display order. Empty otherwise. Option labels are also the forecast
	// map keys, verbatim.
	Options []string

	CreatedDate time.Time
	CloseDate   time.Time

	// Resolved flips to true exactly once; Resolution and ResolvedDate are
	// only meaningful when it is set.
	Resolved     bool
	Resolution   string
	ResolvedDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the question still accepts forecasts at t.
func (q Question) IsOpen(t time.Time) bool {
	return !q.Resolved && t.Before(q.CloseDate)
}

// ScoringKeys returns the canonical key set a forecast on this question is
// scored over: the fixed category keys for three_category, the option labels
// for multiple_choice, and the single probability key for binary.
func (q Question) ScoringKeys() []string {
	switch q.Type {
	case QuestionTypeThreeCategory:
		return ThreeCategoryKeys
	case QuestionTypeMultipleChoice:
		return q.Options
	default:
		return []string{ForecastKeyProbability}
	}
}
