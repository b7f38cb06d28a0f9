package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecastlab/econcast/internal/domain"
)

// ForecastStore implements domain.ForecastStore using PostgreSQL. The
// current forecast per (user, question) lives in the forecasts table with
// upsert-on-conflict semantics; every accepted submission also appends to
// forecast_history, which is what time-weighted scoring reads.
type ForecastStore struct {
	pool *pgxpool.Pool
}

// NewForecastStore creates a ForecastStore backed by the given connection pool.
func NewForecastStore(pool *pgxpool.Pool) *ForecastStore {
	return &ForecastStore{pool: pool}
}

// Upsert overwrites the current forecast for (f.UserID, f.QuestionID) and
// appends a history record in the same transaction. Last write wins on
// concurrent submissions from the same user.
func (s *ForecastStore) Upsert(ctx context.Context, f domain.Forecast) error {
	vals, err := json.Marshal(f.Values)
	if err != nil {
		return fmt.Errorf("postgres: marshal forecast values: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin forecast upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO forecasts (id, question_id, user_id, vals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, question_id) DO UPDATE SET
			vals       = EXCLUDED.vals,
			updated_at = NOW()`

	if _, err := tx.Exec(ctx, upsert, f.ID, f.QuestionID, f.UserID, vals); err != nil {
		return fmt.Errorf("postgres: upsert forecast %s/%s: %w", f.UserID, f.QuestionID, err)
	}

	const appendHistory = `
		INSERT INTO forecast_history (id, question_id, user_id, vals, created_at)
		VALUES ($1, $2, $3, $4, NOW())`

	if _, err := tx.Exec(ctx, appendHistory, uuid.NewString(), f.QuestionID, f.UserID, vals); err != nil {
		return fmt.Errorf("postgres: append forecast history %s/%s: %w", f.UserID, f.QuestionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit forecast upsert: %w", err)
	}
	return nil
}

func scanForecast(row pgx.Row) (domain.Forecast, error) {
	var f domain.Forecast
	var vals []byte
	err := row.Scan(&f.ID, &f.QuestionID, &f.UserID, &vals, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return domain.Forecast{}, err
	}
	if err := json.Unmarshal(vals, &f.Values); err != nil {
		return domain.Forecast{}, fmt.Errorf("decode forecast values: %w", err)
	}
	return f, nil
}

// GetCurrent retrieves the current forecast for one (user, question) pair.
func (s *ForecastStore) GetCurrent(ctx context.Context, userID, questionID string) (domain.Forecast, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, question_id, user_id, vals, created_at, updated_at
		FROM forecasts
		WHERE user_id = $1 AND question_id = $2`,
		userID, questionID,
	)
	f, err := scanForecast(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Forecast{}, domain.ErrNotFound
		}
		return domain.Forecast{}, fmt.Errorf("postgres: get forecast %s/%s: %w", userID, questionID, err)
	}
	return f, nil
}

// History returns one user's revision log for a question, oldest first.
func (s *ForecastStore) History(ctx context.Context, userID, questionID string) ([]domain.ForecastRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_id, user_id, vals, created_at
		FROM forecast_history
		WHERE user_id = $1 AND question_id = $2
		ORDER BY created_at ASC`,
		userID, questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: forecast history %s/%s: %w", userID, questionID, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByQuestion returns every user's current forecast for one question.
func (s *ForecastStore) ListByQuestion(ctx context.Context, questionID string) ([]domain.Forecast, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_id, user_id, vals, created_at, updated_at
		FROM forecasts
		WHERE question_id = $1
		ORDER BY updated_at DESC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list forecasts for %s: %w", questionID, err)
	}
	defer rows.Close()

	var forecasts []domain.Forecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}

// ListRecordsByQuestions returns the full revision history for a set of
// questions across all users, ordered by creation time. This is the snapshot
// the scoring engine consumes.
func (s *ForecastStore) ListRecordsByQuestions(ctx context.Context, questionIDs []string) ([]domain.ForecastRecord, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, question_id, user_id, vals, created_at
		FROM forecast_history
		WHERE question_id = ANY($1)
		ORDER BY created_at ASC`,
		questionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list forecast records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListAllRecords returns the complete forecast history across all questions.
func (s *ForecastStore) ListAllRecords(ctx context.Context) ([]domain.ForecastRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_id, user_id, vals, created_at
		FROM forecast_history
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list all forecast records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]domain.ForecastRecord, error) {
	var records []domain.ForecastRecord
	for rows.Next() {
		var r domain.ForecastRecord
		var vals []byte
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.UserID, &vals, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan forecast record: %w", err)
		}
		if err := json.Unmarshal(vals, &r.Values); err != nil {
			return nil, fmt.Errorf("postgres: decode forecast record values: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Compile-time interface check.
var _ domain.ForecastStore = (*ForecastStore)(nil)
