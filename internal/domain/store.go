package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// QuestionStore persists forecasting questions.
type QuestionStore interface {
	Create(ctx context.Context, q Question) error
	GetByID(ctx context.Context, id string) (Question, error)
	List(ctx context.Context, opts ListOpts) ([]Question, error)
	ListOpen(ctx context.Context, opts ListOpts) ([]Question, error)
	ListResolved(ctx context.Context, opts ListOpts) ([]Question, error)
	// ListExpired returns unresolved questions whose close date has passed.
	ListExpired(ctx context.Context, now time.Time) ([]Question, error)
	// Resolve records the realized outcome. It fails with ErrAlreadyResolved
	// when the question has been resolved before; the transition happens
	// exactly once.
	Resolve(ctx context.Context, id, resolution string, resolvedAt time.Time) error
	Close(ctx context.Context, id string, closedAt time.Time) error
	Count(ctx context.Context) (int64, error)
}

// ForecastStore persists the current forecast per (user, question) pair and
// the append-only revision history behind it.
type ForecastStore interface {
	// Upsert overwrites the current forecast for (f.UserID, f.QuestionID)
	// and appends a history record in the same transaction.
	Upsert(ctx context.Context, f Forecast) error
	GetCurrent(ctx context.Context, userID, questionID string) (Forecast, error)
	// History returns a user's revision log for one question, ordered by
	// CreatedAt ascending.
	History(ctx context.Context, userID, questionID string) ([]ForecastRecord, error)
	ListByQuestion(ctx context.Context, questionID string) ([]Forecast, error)
	// ListRecordsByQuestions returns the full history for a set of questions,
	// across all users. This is the snapshot the scoring engine consumes.
	ListRecordsByQuestions(ctx context.Context, questionIDs []string) ([]ForecastRecord, error)
	ListAllRecords(ctx context.Context) ([]ForecastRecord, error)
}

// UserStore persists forecaster identities.
type UserStore interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context, opts ListOpts) ([]User, error)
	Count(ctx context.Context) (int64, error)
}
