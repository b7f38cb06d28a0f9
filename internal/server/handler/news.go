package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/forecastlab/econcast/internal/domain"
)

// defaultNewsTopic is queried when the request names no topic.
const defaultNewsTopic = "economy"

// NewsService defines the methods the news handler requires from the service
// layer.
type NewsService interface {
	Headlines(ctx context.Context, topic string, limit int) ([]domain.Headline, error)
}

// NewsHandler serves the economic headline feed.
type NewsHandler struct {
	news   NewsService
	logger *slog.Logger
}

// NewNewsHandler creates a NewsHandler with the given service and logger.
func NewNewsHandler(news NewsService, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{
		news:   news,
		logger: logger,
	}
}

// GetNews returns recent headlines for a topic.
// GET /api/news?topic=economy&limit=10
func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = defaultNewsTopic
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	headlines, err := h.news.Headlines(r.Context(), topic, limit)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: get news failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"topic":     topic,
		"headlines": headlines,
	})
}
