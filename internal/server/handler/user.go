package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

// UserService defines the methods the user handler requires from the service
// layer.
type UserService interface {
	Register(ctx context.Context, username, displayName string) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
}

// UserHandler serves forecaster identity endpoints.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler with the given service and logger.
func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// registerUserRequest is the registration payload.
type registerUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// userResponse is the wire form of a user.
type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// RegisterUser creates a new forecaster identity.
// POST /api/users
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Register(r.Context(), req.Username, req.DisplayName)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: register user failed")
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// GetUser returns a single user by ID.
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, r, err, "handler: get user failed")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
