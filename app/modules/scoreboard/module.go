package scoreboard

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Black-And-White-Club/srk-board/app/eventbus"
	scoreboardservice "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/application"
	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboardhandlers "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/handlers"
	scoreboardpublishers "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/publishers"
	scoreboarddb "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/repositories"
	scoreboardroster "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/roster"
	scoreboardscheduler "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/scheduler"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/Black-And-White-Club/srk-board/config"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
)

// runner drives cycles until the contest is over.
type runner interface {
	Run(ctx context.Context) error
}

// Module represents the scoreboard module.
type Module struct {
	Service *scoreboardservice.ScoreboardService
	Memory  *scoreboardpublishers.MemorySink
	Router  chi.Router

	config        *config.Config
	observability observability.Observability
	pool          *pgxpool.Pool
	runner        runner
	closers       []func()
	cancelFunc    context.CancelFunc
}

// NewScoreboardModule wires the scoreboard of cfg.Contest. db and pool may be
// nil, which keeps the ledger in memory and skips the writer lock.
func NewScoreboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	pool *pgxpool.Pool,
) (*Module, error) {
	logger := obs.Provider.Logger.With(attr.ContestID(cfg.Contest.ID))
	metrics := obs.Registry.ScoreboardMetrics
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "scoreboard.NewScoreboardModule called")

	m := &Module{config: cfg, observability: obs, pool: pool}
	ok := false
	defer func() {
		if !ok {
			m.release()
		}
	}()

	contest, err := buildContest(cfg.Contest, time.Now())
	if err != nil {
		return nil, err
	}
	contestLoc, err := cfg.Contest.Location()
	if err != nil {
		return nil, err
	}

	roster, err := scoreboardroster.Load(cfg.Roster.Path, cfg.Roster.TeamsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	registry, err := roster.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}

	series, err := buildSeries(cfg.Series)
	if err != nil {
		return nil, err
	}
	normalizer, err := buildNormalizer(cfg.Source)
	if err != nil {
		return nil, err
	}
	decoder, err := buildDecoder(cfg.Source, contestLoc)
	if err != nil {
		return nil, err
	}

	source, closeSource, err := buildSource(ctx, cfg, decoder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission source: %w", err)
	}
	m.closers = append(m.closers, closeSource)

	m.Memory = scoreboardpublishers.NewMemorySink(true)
	sinks := append([]scoreboardpublishers.Sink{m.Memory}, buildFileSinks(cfg.Publish)...)

	if cfg.Publish.Redis.Enabled {
		client, err := scoreboardpublishers.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, func() { _ = client.Close() })
		sinks = append(sinks, scoreboardpublishers.NewRedisSink(client, cfg.Publish.Redis.Prefix, cfg.Publish.Redis.TTL))
	}

	if cfg.Publish.Events.Enabled {
		topic := cmp.Or(cfg.Publish.Events.Topic, scoreboardpublishers.SnapshotPublishedV1)
		if cfg.Publish.Events.JetStream {
			if err := eventbus.ProvisionStream(ctx, cfg.NATS.URL, topic, logger); err != nil {
				return nil, err
			}
		}
		publisher, err := eventbus.NewPublisher(eventbus.Config{URL: cfg.NATS.URL, JetStream: cfg.Publish.Events.JetStream}, logger)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, func() { _ = publisher.Close() })
		sinks = append(sinks, scoreboardpublishers.NewEventSink(publisher, topic))
	}

	var repo scoreboarddb.Repository
	if db != nil {
		repo = scoreboarddb.NewRepository(db)
	} else {
		logger.WarnContext(ctx, "No database configured, the ledger is kept in memory")
		repo = scoreboarddb.NewMemoryLedger()
	}

	svc, err := scoreboardservice.NewScoreboardService(
		contest,
		registry,
		normalizer,
		repo,
		source,
		scoreboardpublishers.NewPublisher(logger, metrics, sinks...),
		logger,
		metrics,
		tracer,
		db,
		scoreboardservice.Options{
			Series:         series,
			FetchLimit:     cfg.Source.FetchLimit,
			ReplayPageSize: cfg.Scheduler.ReplayPageSize,
			ScrollWindow:   cfg.Publish.ScrollWindow,
			Document:       scoreboarddomain.DocumentOptions{IncludeSolutions: cfg.Publish.IncludeSolutions},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoreboard service: %w", err)
	}
	m.Service = svc

	switch cfg.Scheduler.Kind {
	case config.SchedulerRiver:
		if pool == nil {
			return nil, errors.New("river scheduler requires postgres")
		}
		m.runner, err = scoreboardscheduler.NewRiverScheduler(ctx, pool, svc, contest.ID, cfg.Scheduler.PollInterval, logger)
		if err != nil {
			return nil, err
		}
	default:
		m.runner = scoreboardscheduler.NewLoop(svc, scoreboardscheduler.LoopConfig{
			PollInterval: cfg.Scheduler.PollInterval,
			RetryDelay:   cfg.Scheduler.RetryDelay,
		}, logger)
	}

	routerCfg := scoreboardhandlers.RouterConfig{
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Burst:             cfg.HTTP.Burst,
	}
	if cfg.Observability.MetricsAddress == "" {
		routerCfg.Prometheus = obs.Registry.Prometheus
	}
	if cfg.JWT.Secret != "" {
		routerCfg.Issuer = scoreboardhandlers.NewTokenIssuer(cfg.JWT.Secret)
	} else {
		logger.WarnContext(ctx, "No JWT secret configured, admin endpoints are disabled")
	}
	m.Router = scoreboardhandlers.NewRouter(
		scoreboardhandlers.NewHandlers(contest.ID, m.Memory, svc, logger),
		routerCfg,
	)

	ok = true
	return m, nil
}

// Run takes the writer lock, rebuilds the board from the ledger and drives
// cycles until the contest is over or ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting scoreboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.pool != nil {
		lock, err := scoreboarddb.AcquireWriterLock(ctx, m.pool, m.config.Contest.ID)
		if err != nil {
			return err
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := lock.Release(releaseCtx); err != nil {
				logger.Error("Failed to release writer lock", attr.Error(err))
			}
		}()
	}

	res, err := m.Service.Resume(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume scoreboard: %w", err)
	}
	logger.InfoContext(ctx, "Scoreboard resumed",
		attr.Int("replayed", res.Replayed),
		attr.Int("dropped", res.Dropped),
		attr.Int64("high_water_mark", res.HighWaterMark),
	)

	err = m.runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.InfoContext(ctx, "Scoreboard module stopped")
		return nil
	}
	return err
}

// Replay rebuilds the board from the ledger and then folds everything the
// source has right now, without waiting between cycles. It stops at the first
// cycle that fetches nothing or stalls.
func (m *Module) Replay(ctx context.Context) (scoreboardservice.CycleResult, error) {
	logger := m.observability.Provider.Logger

	if _, err := m.Service.Resume(ctx); err != nil {
		return scoreboardservice.CycleResult{}, fmt.Errorf("failed to resume scoreboard: %w", err)
	}
	for {
		res, err := m.Service.RunCycle(ctx, time.Now())
		if err != nil {
			return res, err
		}
		if res.Fetched == 0 || res.Stalled {
			logger.InfoContext(ctx, "Replay finished",
				attr.Int64("high_water_mark", res.HighWaterMark),
				attr.Bool("stalled", res.Stalled),
			)
			return res, nil
		}
	}
}

// Close stops the scoreboard module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping scoreboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.release()

	logger.Info("Scoreboard module stopped")
	return nil
}

func (m *Module) release() {
	for i := len(m.closers) - 1; i >= 0; i-- {
		m.closers[i]()
	}
	m.closers = nil
}
