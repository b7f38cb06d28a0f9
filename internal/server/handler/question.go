package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

// QuestionService defines the methods the question handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type QuestionService interface {
	Create(ctx context.Context, q domain.Question) (domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error)
	ListOpen(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error)
	ListResolved(ctx context.Context, opts domain.ListOpts) ([]domain.Question, error)
	Resolve(ctx context.Context, id, resolution string) (domain.Question, error)
	CloseEarly(ctx context.Context, id string) (domain.Question, error)
	Count(ctx context.Context) (int64, error)
}

// QuestionHandler serves question lifecycle HTTP endpoints.
type QuestionHandler struct {
	questions QuestionService
	logger    *slog.Logger
}

// NewQuestionHandler creates a QuestionHandler with the given service and
// logger.
func NewQuestionHandler(questions QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		logger:    logger,
	}
}

// questionResponse is the wire form of a question.
type questionResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Categories   []string `json:"categories,omitempty"`
	Options      []string `json:"options,omitempty"`
	CreatedDate  string   `json:"createdDate"`
	CloseDate    string   `json:"closeDate"`
	Resolved     bool     `json:"resolved"`
	Resolution   string   `json:"resolution,omitempty"`
	ResolvedDate string   `json:"resolvedDate,omitempty"`
	Open         bool     `json:"open"`
}

func toQuestionResponse(q domain.Question) questionResponse {
	resp := questionResponse{
		ID:          q.ID,
		Title:       q.Title,
		Type:        string(q.Type),
		Categories:  q.Categories,
		Options:     q.Options,
		CreatedDate: q.CreatedDate.UTC().Format(time.RFC3339),
		CloseDate:   q.CloseDate.UTC().Format(time.RFC3339),
		Resolved:    q.Resolved,
		Resolution:  q.Resolution,
		Open:        q.IsOpen(time.Now().UTC()),
	}
	if q.ResolvedDate != nil {
		resp.ResolvedDate = q.ResolvedDate.UTC().Format(time.RFC3339)
	}
	return resp
}

// createQuestionRequest is the admin question-creation payload.
type createQuestionRequest struct {
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Categories []string `json:"categories"`
	Options    []string `json:"options"`
	CloseDate  string   `json:"closeDate"`
}

// listQuestionsResponse wraps the list endpoint output with metadata.
type listQuestionsResponse struct {
	Questions []questionResponse `json:"questions"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// ListQuestions returns questions with pagination, optionally filtered by
// lifecycle status.
// GET /api/questions?status=open|resolved&limit=50&offset=0
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var (
		questions []domain.Question
		err       error
	)
	switch r.URL.Query().Get("status") {
	case "open":
		questions, err = h.questions.ListOpen(r.Context(), opts)
	case "resolved":
		questions, err = h.questions.ListResolved(r.Context(), opts)
	case "":
		questions, err = h.questions.List(r.Context(), opts)
	default:
		writeError(w, http.StatusBadRequest, "status must be open or resolved")
		return
	}
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: list questions failed")
		return
	}

	total, err := h.questions.Count(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: count questions failed")
		return
	}

	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionResponse(q))
	}
	writeJSON(w, http.StatusOK, listQuestionsResponse{
		Questions: out,
		Total:     total,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	})
}

// GetQuestion returns a single question by its ID.
// GET /api/questions/{id}
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing question id")
		return
	}

	q, err := h.questions.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: get question failed")
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// CreateQuestion creates a new question. Admin only.
// POST /api/questions
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	closeDate, err := time.Parse(time.RFC3339, req.CloseDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "closeDate must be RFC3339")
		return
	}

	q, err := h.questions.Create(r.Context(), domain.Question{
		Title:      req.Title,
		Type:       domain.QuestionType(req.Type),
		Categories: req.Categories,
		Options:    req.Options,
		CloseDate:  closeDate,
	})
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: create question failed")
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// resolveQuestionRequest carries the realized outcome.
type resolveQuestionRequest struct {
	Resolution string `json:"resolution"`
}

// ResolveQuestion records a question's outcome. Admin only; resolving twice
// returns 409.
// POST /api/questions/{id}/resolve
func (h *QuestionHandler) ResolveQuestion(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing question id")
		return
	}

	var req resolveQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.questions.Resolve(r.Context(), id, req.Resolution)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: resolve question failed")
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}

// CloseQuestion closes a question to further forecasts ahead of its close
// date. Admin only.
// POST /api/questions/{id}/close
func (h *QuestionHandler) CloseQuestion(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing question id")
		return
	}

	q, err := h.questions.CloseEarly(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: close question failed")
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}
