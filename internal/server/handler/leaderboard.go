package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/forecastlab/econcast/internal/domain"
)

// LeaderboardService defines the methods the leaderboard handler requires
// from the service layer.
type LeaderboardService interface {
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
	UserStats(ctx context.Context, userID string) (domain.UserStat, error)
}

// LeaderboardHandler serves the ranked leaderboard and per-user stats.
type LeaderboardHandler struct {
	leaderboard LeaderboardService
	logger      *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler with the given service
// and logger.
func NewLeaderboardHandler(leaderboard LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// leaderboardEntryResponse is one ranked row. User identity is flattened so
// the webapp does not need a second lookup.
type leaderboardEntryResponse struct {
	Rank        int             `json:"rank"`
	UserID      string          `json:"userId"`
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName"`
	Stats       domain.UserStat `json:"stats"`
}

// GetLeaderboard returns every user ranked by mean time-weighted Brier
// score, best first.
// GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Leaderboard(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: leaderboard failed")
		return
	}

	out := make([]leaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryResponse{
			Rank:        e.Rank,
			UserID:      e.User.ID,
			Username:    e.User.Username,
			DisplayName: e.User.DisplayName,
			Stats:       e.Stats,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": out})
}

// GetUserStats returns one user's accuracy summary.
// GET /api/users/{id}/stats
func (h *LeaderboardHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := pathParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	stats, err := h.leaderboard.UserStats(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: user stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
