package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forecastlab/econcast/internal/server"
	"github.com/forecastlab/econcast/internal/server/handler"
	"github.com/forecastlab/econcast/internal/server/ws"
	"github.com/forecastlab/econcast/internal/service"
)

// sweepInterval is how often the pending-resolution sweep runs in serve mode.
const sweepInterval = 10 * time.Minute

// ServeMode runs the HTTP + WebSocket API together with the background
// pending-resolution sweep and, when configured, the periodic snapshot
// archiver. It blocks until the context is cancelled or a component fails.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	// Services.
	questionSvc := service.NewQuestionService(
		deps.QuestionStore, deps.LeaderboardCache, deps.SignalBus, deps.Notifier, a.logger,
	)
	forecastSvc := service.NewForecastService(
		deps.QuestionStore, deps.ForecastStore, deps.UserStore,
		deps.LeaderboardCache, deps.SignalBus, a.logger,
	)
	leaderboardSvc := service.NewLeaderboardService(
		deps.QuestionStore, deps.ForecastStore, deps.UserStore,
		deps.LeaderboardCache, a.logger,
	)
	userSvc := service.NewUserService(deps.UserStore, a.logger)

	var newsHandler *handler.NewsHandler
	if deps.NewsClient != nil {
		newsSvc := service.NewNewsService(deps.NewsClient, deps.NewsCache, a.cfg.News.CacheTTL.Duration, a.logger)
		newsHandler = handler.NewNewsHandler(newsSvc, a.logger)
	}

	// WebSocket hub bridging Redis pub/sub to browsers.
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	// HTTP server.
	srv := server.NewServer(
		server.Config{
			Port:         a.cfg.Server.Port,
			CORSOrigins:  a.cfg.Server.CORSOrigins,
			AdminAPIKey:  a.cfg.Server.AdminAPIKey,
			SubmitLimit:  a.cfg.Server.SubmitRateLimit,
			SubmitWindow: a.cfg.Server.SubmitRateWindow.Duration,
		},
		server.Handlers{
			Health:      handler.NewHealthHandler(deps.Postgres, deps.Redis, a.logger),
			Questions:   handler.NewQuestionHandler(questionSvc, a.logger),
			Forecasts:   handler.NewForecastHandler(forecastSvc, a.logger),
			Leaderboard: handler.NewLeaderboardHandler(leaderboardSvc, a.logger),
			Users:       handler.NewUserHandler(userSvc, a.logger),
			News:        newsHandler,
		},
		deps.RateLimiter,
		hub,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Pending-resolution sweep: periodically surface questions past their
	// close date so admins resolve them.
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				pending, err := questionSvc.PendingResolution(ctx, time.Now().UTC())
				if err != nil {
					a.logger.WarnContext(ctx, "serve mode: pending-resolution sweep failed",
						slog.String("error", err.Error()),
					)
					continue
				}
				if len(pending) > 0 {
					a.logger.InfoContext(ctx, "serve mode: questions awaiting resolution",
						slog.Int("count", len(pending)),
					)
				}
			}
		}
	})

	// Periodic snapshot archive.
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			ticker := time.NewTicker(a.cfg.Archive.Interval.Duration)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					a.runArchive(ctx, deps)
				}
			}
		})
	}

	return g.Wait()
}

// MigrateMode runs database migrations and exits. Wire already applies
// migrations when postgres.run_migrations is set, so this mode exists for
// operators who keep that flag off in production.
func (a *App) MigrateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting migrate mode")
	if err := deps.Postgres.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrate mode: %w", err)
	}
	a.logger.InfoContext(ctx, "migrations applied")
	return nil
}

// ArchiveMode performs a single snapshot-archive pass and exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")
	if deps.Archiver == nil {
		return fmt.Errorf("archive mode: s3 is not enabled")
	}
	a.runArchive(ctx, deps)
	return nil
}

// runArchive exports resolved questions older than the retention window.
func (a *App) runArchive(ctx context.Context, deps *Dependencies) {
	before := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
	n, err := deps.Archiver.ArchiveResolved(ctx, before)
	if err != nil {
		a.logger.ErrorContext(ctx, "archive: snapshot failed",
			slog.String("error", err.Error()),
		)
		return
	}
	a.logger.InfoContext(ctx, "archive: snapshot complete",
		slog.Int64("questions", n),
		slog.Time("before", before),
	)
}
