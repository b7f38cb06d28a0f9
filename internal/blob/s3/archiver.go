package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
	"github.com/forecastlab/econcast/internal/scoring"
)

// -----------------------------------------------------------------------
// Narrow store interfaces required by the archiver. The Postgres stores
// satisfy these implicitly; the archiver only needs the query methods it
// actually calls.
// -----------------------------------------------------------------------

// QuestionArchiveStore provides read access to resolved questions.
type QuestionArchiveStore interface {
	ListResolved(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error)
}

// ForecastArchiveStore provides read access to forecast history.
type ForecastArchiveStore interface {
	ListRecordsByQuestions(ctx context.Context, questionIDs []string) ([]domain.ForecastRecord, error)
}

// questionSnapshot is one JSONL line: a resolved question and the final
// per-user time-weighted scores it produced. Archived snapshots let the
// scoring history be audited after the hot data is eventually pruned.
type questionSnapshot struct {
	Question   domain.Question    `json:"question"`
	UserScores map[string]float64 `json:"userScores"`
	ArchivedAt time.Time          `json:"archivedAt"`
}

// ArchiveImpl implements domain.Archiver: it queries resolved questions,
// recomputes their final scores, serializes a snapshot per question to
// JSONL, and uploads the result to object storage.
//
// Deleting the archived rows from the primary store is intentionally NOT
// done here; that is a separate explicit step after the archive is verified.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	questions QuestionArchiveStore
	forecasts ForecastArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, questions QuestionArchiveStore, forecasts ForecastArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		questions: questions,
		forecasts: forecasts,
	}
}

// ArchiveResolved exports snapshots for questions resolved before the given
// cutoff and returns the number of questions archived.
func (a *ArchiveImpl) ArchiveResolved(ctx context.Context, before time.Time) (int64, error) {
	questions, err := a.questions.ListResolved(ctx, domain.ListOpts{Limit: 1000})
	if err != nil {
		return 0, fmt.Errorf("s3blob: list resolved questions: %w", err)
	}

	var eligible []domain.Question
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		if q.ResolvedDate == nil || !q.ResolvedDate.Before(before) {
			continue
		}
		eligible = append(eligible, q)
		ids = append(ids, q.ID)
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	records, err := a.forecasts.ListRecordsByQuestions(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list forecast records: %w", err)
	}

	now := time.Now().UTC()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, q := range eligible {
		snap := questionSnapshot{
			Question:   q,
			UserScores: finalScores(q, records),
			ArchivedAt: now,
		}
		if err := enc.Encode(snap); err != nil {
			return 0, fmt.Errorf("s3blob: encode snapshot %s: %w", q.ID, err)
		}
	}

	path := fmt.Sprintf("snapshots/%s/questions-%s.jsonl",
		now.Format("2006/01/02"), now.Format("150405"))

	if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: upload snapshot: %w", err)
	}

	return int64(len(eligible)), nil
}

// finalScores computes the time-weighted score of every user who forecast
// on the question.
func finalScores(q domain.Question, records []domain.ForecastRecord) map[string]float64 {
	byUser := make(map[string][]domain.ForecastRecord)
	for _, r := range records {
		if r.QuestionID != q.ID {
			continue
		}
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	scores := make(map[string]float64, len(byUser))
	for userID, history := range byUser {
		scores[userID] = scoring.TimeWeightedScore(history, q)
	}
	return scores
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
