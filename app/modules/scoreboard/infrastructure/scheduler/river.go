package scoreboardscheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	scoreboardservice "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/application"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// QueueName is the river queue cycles run on. It has a single worker so
// cycles never overlap.
const QueueName = "scoreboard"

// CycleArgs is the periodic cycle job.
type CycleArgs struct {
	ContestID string `json:"contest_id"`
}

// Kind returns the job type identifier for River
func (CycleArgs) Kind() string { return "scoreboard_cycle" }

// CycleWorker runs a cycle per job and reports when the contest is over.
type CycleWorker struct {
	river.WorkerDefaults[CycleArgs]

	runner CycleRunner
	logger *slog.Logger
	now    func() time.Time

	ended    atomic.Bool
	doneOnce sync.Once
	done     chan struct{}
}

func NewCycleWorker(runner CycleRunner, logger *slog.Logger) *CycleWorker {
	return &CycleWorker{runner: runner, logger: logger, now: time.Now, done: make(chan struct{})}
}

func (w *CycleWorker) Work(ctx context.Context, job *river.Job[CycleArgs]) error {
	if w.ended.Load() {
		return nil
	}

	res, err := w.runner.RunCycle(ctx, w.now())
	if res.Ended && err == nil {
		w.ended.Store(true)
		w.doneOnce.Do(func() { close(w.done) })
		w.logger.InfoContext(ctx, "Contest is over, periodic cycles stopped",
			attr.ContestID(job.Args.ContestID),
			attr.Int64("high_water_mark", res.HighWaterMark),
		)
	}
	if err != nil && errors.Is(err, scoreboardservice.ErrTransientFetch) {
		// The next periodic job is the retry.
		w.logger.WarnContext(ctx, "Fetch failed, waiting for the next periodic cycle", attr.Error(err))
		return nil
	}
	return err
}

// Ended reports whether the closing cycle has been published.
func (w *CycleWorker) Ended() bool { return w.ended.Load() }

// Done is closed once the closing cycle has been published.
func (w *CycleWorker) Done() <-chan struct{} { return w.done }

// nextJob is the periodic constructor. It stops inserting once the contest is over.
func (w *CycleWorker) nextJob(contestID string) (river.JobArgs, *river.InsertOpts) {
	if w.ended.Load() {
		return nil, nil
	}
	return CycleArgs{ContestID: contestID}, &river.InsertOpts{Queue: QueueName, MaxAttempts: 1}
}

// RiverScheduler runs cycles as a periodic river job.
type RiverScheduler struct {
	client *river.Client[pgx.Tx]
	worker *CycleWorker
	logger *slog.Logger
}

// MigrateRiver applies river's schema migrations.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	return nil
}

func NewRiverScheduler(
	ctx context.Context,
	pool *pgxpool.Pool,
	runner CycleRunner,
	contestID string,
	interval time.Duration,
	logger *slog.Logger,
) (*RiverScheduler, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if err := MigrateRiver(ctx, pool); err != nil {
		return nil, err
	}

	worker := NewCycleWorker(runner, logger)
	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 1},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) { return worker.nextJob(contestID) },
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &RiverScheduler{client: client, worker: worker, logger: logger}, nil
}

// Run starts the client and blocks until the contest is over or ctx ends.
func (s *RiverScheduler) Run(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case <-s.worker.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.client.Stop(stopCtx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
	}
	return runErr
}
