package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forecastlab/econcast/internal/domain"
)

// UserService handles forecaster registration and lookup. Authentication
// lives with the external provider; this only manages the identity rows
// forecasts and stats hang off.
type UserService struct {
	users  domain.UserStore
	logger *slog.Logger
}

// NewUserService creates a UserService with the given store and logger.
func NewUserService(users domain.UserStore, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Register creates a new forecaster identity. Usernames are unique;
// registering an existing one fails with ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, displayName string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("user_service: empty username: %w", domain.ErrValidation)
	}
	if displayName == "" {
		displayName = username
	}

	u := domain.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("user_service: create %q: %w", username, err)
	}

	s.logger.InfoContext(ctx, "user_service: user registered",
		slog.String("user_id", u.ID),
		slog.String("username", username),
	)
	return u, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("user_service: get by id %q: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by their unique username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.User{}, fmt.Errorf("user_service: get by username %q: %w", username, err)
	}
	return u, nil
}
