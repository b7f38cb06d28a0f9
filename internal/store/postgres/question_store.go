package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecastlab/econcast/internal/domain"
)

// QuestionStore implements domain.QuestionStore using PostgreSQL.
type QuestionStore struct {
	pool *pgxpool.Pool
}

// NewQuestionStore creates a QuestionStore backed by the given connection pool.
func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionCols = `id, title, type, categories, options,
	created_date, close_date, resolved, resolution, resolved_date,
	created_at, updated_at`

// Create inserts a new question.
func (s *QuestionStore) Create(ctx context.Context, q domain.Question) error {
	const query = `
		INSERT INTO questions (
			id, title, type, categories, options,
			created_date, close_date, resolved, resolution, resolved_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`

	_, err := s.pool.Exec(ctx, query,
		q.ID, q.Title, string(q.Type), q.Categories, q.Options,
		q.CreatedDate, q.CloseDate, q.Resolved, q.Resolution, q.ResolvedDate,
	)
	if err != nil {
		return fmt.Errorf("postgres: create question %s: %w", q.ID, err)
	}
	return nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	var qType string
	err := row.Scan(
		&q.ID, &q.Title, &qType, &q.Categories, &q.Options,
		&q.CreatedDate, &q.CloseDate, &q.Resolved, &q.Resolution, &q.ResolvedDate,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return domain.Question{}, err
	}
	q.Type = domain.QuestionType(qType)
	return q, nil
}

// GetByID retrieves a question by its primary key.
func (s *QuestionStore) GetByID(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrNotFound
		}
		return domain.Question{}, fmt.Errorf("postgres: get question %s: %w", id, err)
	}
	return q, nil
}

func (s *QuestionStore) list(ctx context.Context, where string, opts domain.ListOpts, args ...any) ([]domain.Question, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + questionCols + ` FROM questions ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, opts.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// List returns questions ordered newest first.
func (s *QuestionStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	return s.list(ctx, "", opts)
}

// ListOpen returns unresolved questions that are still accepting forecasts.
func (s *QuestionStore) ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	return s.list(ctx, `WHERE NOT resolved AND close_date > NOW()`, opts)
}

// ListResolved returns resolved questions.
func (s *QuestionStore) ListResolved(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error) {
	return s.list(ctx, `WHERE resolved`, opts)
}

// ListExpired returns unresolved questions whose close date has passed.
func (s *QuestionStore) ListExpired(ctx context.Context, now time.Time) ([]domain.Question, error) {
	return s.list(ctx, `WHERE NOT resolved AND close_date <= $1`, domain.ListOpts{Limit: 500}, now)
}

// Resolve records the realized outcome for a question. The WHERE clause
// guards the exactly-once transition: a second resolution attempt matches no
// row and surfaces as ErrAlreadyResolved.
func (s *QuestionStore) Resolve(ctx context.Context, id, resolution string, resolvedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET resolved = TRUE, resolution = $2, resolved_date = $3, updated_at = NOW()
		WHERE id = $1 AND NOT resolved`,
		id, resolution, resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: resolve question %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrAlreadyResolved
	}
	return nil
}

// Close moves a question's close date so it stops accepting forecasts.
func (s *QuestionStore) Close(ctx context.Context, id string, closedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions SET close_date = $2, updated_at = NOW()
		WHERE id = $1`,
		id, closedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: close question %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of questions.
func (s *QuestionStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count questions: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.QuestionStore = (*QuestionStore)(nil)
