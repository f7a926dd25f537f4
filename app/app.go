package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Black-And-White-Club/srk-board/app/modules/scoreboard"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/Black-And-White-Club/srk-board/config"
	"github.com/Black-And-White-Club/srk-board/db/bundb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
)

// App holds the process-wide resources and the scoreboard module.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	Pool          *pgxpool.Pool
	Scoreboard    *scoreboard.Module

	servers []*http.Server
}

// Version is set at build time.
var Version = "dev"

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	obs, err := observability.Init(ctx, observability.Config{
		ServiceName:     "srk-board",
		Environment:     cfg.Observability.Environment,
		Version:         Version,
		LogLevel:        cfg.Observability.LogLevel,
		OTLPEndpoint:    cfg.Observability.OTLPEndpoint,
		OTLPInsecure:    cfg.Observability.OTLPInsecure,
		TraceSampleRate: cfg.Observability.TraceSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Provider.Logger

	app := &App{Config: cfg, Observability: obs}
	if cfg.Postgres.DSN != "" {
		if app.DB, err = bundb.Open(ctx, cfg.Postgres.DSN); err != nil {
			app.Close()
			return nil, err
		}
		if err := bundb.Migrate(ctx, app.DB, logger); err != nil {
			app.Close()
			return nil, err
		}
		if app.Pool, err = bundb.OpenPool(ctx, cfg.Postgres.DSN); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Scoreboard, err = scoreboard.NewScoreboardModule(ctx, cfg, obs, app.DB, app.Pool)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize scoreboard module: %w", err)
	}

	logger.InfoContext(ctx, "Application initialized",
		attr.ContestID(cfg.Contest.ID),
		attr.String("source", cfg.Source.Kind),
		attr.String("scheduler", cfg.Scheduler.Kind),
		attr.Bool("postgres", app.DB != nil),
	)
	return app, nil
}

// Run serves HTTP and drives the scoreboard. Once the contest is over the
// final snapshot stays served until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := app.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	moduleErr := make(chan error, 1)
	go func() { moduleErr <- app.Scoreboard.Run(ctx, &wg) }()

	var runErr error
	select {
	case err := <-serveErr:
		runErr = err
	case err := <-moduleErr:
		if err != nil {
			runErr = err
			break
		}
		logger.InfoContext(ctx, "Contest is over, serving the final scoreboard until shutdown")
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			runErr = err
		}
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()
	app.Shutdown(context.WithoutCancel(ctx))
	if errors.Is(runErr, http.ErrServerClosed) {
		return nil
	}
	return runErr
}

// Close releases database handles and flushes telemetry.
func (app *App) Close() {
	if app.Scoreboard != nil {
		app.Scoreboard.Close()
	}
	if app.Pool != nil {
		app.Pool.Close()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Observability.Provider.Logger.Error("Error closing database connection", attr.Error(err))
		}
	}
	if err := app.Observability.Shutdown(context.Background()); err != nil {
		app.Observability.Provider.Logger.Error("Error shutting down telemetry", attr.Error(err))
	}
}
