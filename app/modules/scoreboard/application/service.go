package scoreboardservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboarddb "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/repositories"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ScoreboardService implements the Service interface. It is the single
// writer of the board; cycles and resumes are serialized.
type ScoreboardService struct {
	contest    scoreboarddomain.Contest
	registry   *scoreboarddomain.Registry
	normalizer *scoreboarddomain.Normalizer
	repo       scoreboarddb.Repository
	source     SubmissionSource
	publisher  SnapshotPublisher
	logger     *slog.Logger
	metrics    observability.ScoreboardMetrics
	tracer     trace.Tracer
	db         *bun.DB
	opts       Options

	mu      sync.Mutex
	board   *scoreboarddomain.Board
	unknown *scoreboarddomain.UnknownStatuses

	newCycleID func() string
}

// NewScoreboardService creates a new ScoreboardService. db may be nil when
// repo is not database backed.
func NewScoreboardService(
	contest scoreboarddomain.Contest,
	registry *scoreboarddomain.Registry,
	normalizer *scoreboarddomain.Normalizer,
	repo scoreboarddb.Repository,
	source SubmissionSource,
	publisher SnapshotPublisher,
	logger *slog.Logger,
	metrics observability.ScoreboardMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	opts Options,
) (*ScoreboardService, error) {
	if err := contest.Validate(); err != nil {
		return nil, err
	}
	if err := validateSeries(opts.Series); err != nil {
		return nil, err
	}
	if opts.ScrollWindow <= 0 {
		opts.ScrollWindow = scoreboarddomain.DefaultScrollWindow
	}
	if opts.ReplayPageSize <= 0 {
		opts.ReplayPageSize = defaultReplayPageSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &ScoreboardService{
		contest:    contest,
		registry:   registry,
		normalizer: normalizer,
		repo:       repo,
		source:     source,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		db:         db,
		opts:       opts,
		unknown:    scoreboarddomain.NewUnknownStatuses(),
		newCycleID: uuid.NewString,
	}, nil
}

func validateSeries(defs []scoreboarddomain.SeriesDefinition) error {
	seen := make(map[string]struct{}, len(defs))
	for i, def := range defs {
		if def.Medals != nil {
			if err := def.Medals.Validate(); err != nil {
				return fmt.Errorf("series %d (%q): %w", i, def.Title, err)
			}
			if ref := def.Medals.Reference; ref != "" {
				if _, ok := seen[ref]; !ok {
					return fmt.Errorf("series %d (%q): reference %q must name an earlier series", i, def.Title, ref)
				}
			}
		}
		seen[def.Title] = struct{}{}
	}
	return nil
}

func (s *ScoreboardService) Contest() scoreboarddomain.Contest { return s.contest }

func (s *ScoreboardService) HighWaterMark() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return 0
	}
	return s.board.HighWaterMark()
}

// UnknownStatuses lists every status token no vocabulary recognised.
func (s *ScoreboardService) UnknownStatuses() []scoreboarddomain.UnknownStatusReport {
	return s.unknown.Report()
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[T any](
	s *ScoreboardService,
	ctx context.Context,
	operationName string,
	op func(ctx context.Context) (T, error),
) (result T, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("contest_id", s.contest.ID),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	s.logger.DebugContext(ctx, operationName+" triggered",
		attr.String("operation", operationName),
		attr.ContestID(s.contest.ID),
		attr.CycleIDFromContext(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ContestID(s.contest.ID),
				attr.CycleIDFromContext(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			var zero T
			result = zero
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.String("operation", operationName),
			attr.ContestID(s.contest.ID),
			attr.CycleIDFromContext(ctx),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		span.SetStatus(codes.Error, wrappedErr.Error())
		return result, wrappedErr
	}

	s.logger.DebugContext(ctx, operationName+" completed successfully",
		attr.String("operation", operationName),
		attr.ContestID(s.contest.ID),
		attr.CycleIDFromContext(ctx),
	)
	s.metrics.RecordOperationSuccess(ctx, operationName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx(s *ScoreboardService, ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
