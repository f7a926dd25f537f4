package scoreboardscheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	scoreboardservice "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/application"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultRetryDelay   = 10 * time.Second

	// defaultFinalAttempts bounds retries once the contest is over and the
	// closing cycle keeps failing.
	defaultFinalAttempts = 30
)

// CycleRunner runs one scoreboard cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) (scoreboardservice.CycleResult, error)
}

type LoopConfig struct {
	PollInterval  time.Duration
	RetryDelay    time.Duration
	FinalAttempts int
}

// Loop drives cycles until the contest is over. It captures now once per
// cycle and waits the poll interval between cycles, or the retry delay after
// a failed fetch.
type Loop struct {
	runner CycleRunner
	cfg    LoopConfig
	logger *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewLoop(runner CycleRunner, cfg LoopConfig, logger *slog.Logger) *Loop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.FinalAttempts <= 0 {
		cfg.FinalAttempts = defaultFinalAttempts
	}
	return &Loop{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Run returns nil after the closing cycle has been published, ctx.Err() when
// cancelled, or the last error when the closing cycle never succeeds.
func (l *Loop) Run(ctx context.Context) error {
	finalFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := l.runner.RunCycle(ctx, l.now())
		if res.Ended {
			if err == nil {
				l.logger.InfoContext(ctx, "Contest is over, final scoreboard published",
					attr.String("cycle_id", res.CycleID),
					attr.Int64("high_water_mark", res.HighWaterMark),
				)
				return nil
			}
			finalFailures++
			if finalFailures >= l.cfg.FinalAttempts {
				return fmt.Errorf("closing cycle failed %d times: %w", finalFailures, err)
			}
		}

		wait := l.cfg.PollInterval
		switch {
		case err == nil:
		case errors.Is(err, scoreboardservice.ErrTransientFetch):
			wait = l.cfg.RetryDelay
			l.logger.WarnContext(ctx, "Fetch failed, retrying",
				attr.Duration("retry_in", wait),
				attr.Error(err),
			)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			if ctx.Err() != nil {
				return ctx.Err()
			}
		default:
			l.logger.ErrorContext(ctx, "Scoreboard cycle failed",
				attr.String("cycle_id", res.CycleID),
				attr.Error(err),
			)
		}

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
