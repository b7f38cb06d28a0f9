package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

// ForecastService defines the methods the forecast handler requires from the
// service layer.
type ForecastService interface {
	Submit(ctx context.Context, userID, questionID string, values map[string]float64) (domain.Forecast, error)
	Current(ctx context.Context, userID, questionID string) (domain.Forecast, error)
	History(ctx context.Context, userID, questionID string) ([]domain.ForecastRecord, error)
}

// ForecastHandler serves forecast submission and history endpoints.
type ForecastHandler struct {
	forecasts ForecastService
	logger    *slog.Logger
}

// NewForecastHandler creates a ForecastHandler with the given service and
// logger.
func NewForecastHandler(forecasts ForecastService, logger *slog.Logger) *ForecastHandler {
	return &ForecastHandler{
		forecasts: forecasts,
		logger:    logger,
	}
}

// submitForecastRequest is the submission payload. Values maps forecast keys
// to probabilities in [0,100]; the key set depends on the question type.
type submitForecastRequest struct {
	UserID string             `json:"userId"`
	Values map[string]float64 `json:"values"`
}

// forecastResponse is the wire form of a current forecast.
type forecastResponse struct {
	QuestionID string             `json:"questionId"`
	UserID     string             `json:"userId"`
	Values     map[string]float64 `json:"values"`
	UpdatedAt  string             `json:"updatedAt"`
}

// forecastRecordResponse is one revision-history entry.
type forecastRecordResponse struct {
	Values    map[string]float64 `json:"values"`
	CreatedAt string             `json:"createdAt"`
}

// SubmitForecast records or revises the user's forecast for a question.
// POST /api/questions/{id}/forecast
func (h *ForecastHandler) SubmitForecast(w http.ResponseWriter, r *http.Request) {
	questionID := pathParam(r, "id")
	if questionID == "" {
		writeError(w, http.StatusBadRequest, "missing question id")
		return
	}

	var req submitForecastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	f, err := h.forecasts.Submit(r.Context(), req.UserID, questionID, req.Values)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: submit forecast failed")
		return
	}

	writeJSON(w, http.StatusOK, forecastResponse{
		QuestionID: f.QuestionID,
		UserID:     f.UserID,
		Values:     f.Values,
		UpdatedAt:  f.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// GetForecastHistory returns a user's full revision log for a question,
// oldest first.
// GET /api/questions/{id}/forecasts/{userID}
func (h *ForecastHandler) GetForecastHistory(w http.ResponseWriter, r *http.Request) {
	questionID := pathParam(r, "id")
	userID := pathParam(r, "userID")
	if questionID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "missing question or user id")
		return
	}

	records, err := h.forecasts.History(r.Context(), userID, questionID)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: forecast history failed")
		return
	}

	out := make([]forecastRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, forecastRecordResponse{
			Values:    rec.Values,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questionId": questionID,
		"userId":     userID,
		"history":    out,
	})
}
