package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
	"github.com/forecastlab/econcast/internal/server/handler"
	"github.com/forecastlab/econcast/internal/server/middleware"
	"github.com/forecastlab/econcast/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string

	// AdminAPIKey guards question creation, early close, and resolution.
	// Empty disables the guard.
	AdminAPIKey string

	// SubmitLimit/SubmitWindow bound forecast submissions per client IP.
	SubmitLimit  int
	SubmitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Questions   *handler.QuestionHandler
	Forecasts   *handler.ForecastHandler
	Leaderboard *handler.LeaderboardHandler
	Users       *handler.UserHandler
	News        *handler.NewsHandler
}

// Server is the HTTP + WebSocket API behind the forecasting webapp.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// Public reads are unauthenticated; question lifecycle writes require the
// admin API key, and forecast submissions pass through the rate limiter.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAdmin(cfg.AdminAPIKey, h)
	}

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Question endpoints.
	mux.HandleFunc("GET /api/questions", handlers.Questions.ListQuestions)
	mux.HandleFunc("GET /api/questions/{id}", handlers.Questions.GetQuestion)
	mux.HandleFunc("POST /api/questions", admin(handlers.Questions.CreateQuestion))
	mux.HandleFunc("POST /api/questions/{id}/resolve", admin(handlers.Questions.ResolveQuestion))
	mux.HandleFunc("POST /api/questions/{id}/close", admin(handlers.Questions.CloseQuestion))

	// Forecast endpoints.
	submit := handlers.Forecasts.SubmitForecast
	if limiter != nil && cfg.SubmitLimit > 0 {
		submit = middleware.RateLimit(limiter, cfg.SubmitLimit, cfg.SubmitWindow, submit)
	}
	mux.HandleFunc("POST /api/questions/{id}/forecast", submit)
	mux.HandleFunc("GET /api/questions/{id}/forecasts/{userID}", handlers.Forecasts.GetForecastHistory)

	// Leaderboard and stats.
	mux.HandleFunc("GET /api/leaderboard", handlers.Leaderboard.GetLeaderboard)
	mux.HandleFunc("GET /api/users/{id}/stats", handlers.Leaderboard.GetUserStats)

	// User endpoints.
	mux.HandleFunc("POST /api/users", handlers.Users.RegisterUser)
	mux.HandleFunc("GET /api/users/{id}", handlers.Users.GetUser)

	// News feed. Optional: only registered when an upstream API is configured.
	if handlers.News != nil {
		mux.HandleFunc("GET /api/news", handlers.News.GetNews)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
