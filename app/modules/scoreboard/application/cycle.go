package scoreboardservice

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/uptrace/bun"
)

// RunCycle runs one fetch-to-publish pass against the captured time now.
// A fetch or ledger failure leaves the board untouched. A publish failure
// leaves the board folded; the next cycle republishes.
func (s *ScoreboardService) RunCycle(ctx context.Context, now time.Time) (CycleResult, error) {
	cycleID := s.newCycleID()
	ctx = attr.WithCycleID(ctx, cycleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return withTelemetry(s, ctx, "RunCycle", func(ctx context.Context) (CycleResult, error) {
		return s.runCycle(ctx, cycleID, now)
	})
}

func (s *ScoreboardService) runCycle(ctx context.Context, cycleID string, now time.Time) (CycleResult, error) {
	result := CycleResult{
		CycleID:    cycleID,
		CapturedAt: now,
		Ended:      s.contest.Ended(now),
	}
	if s.board == nil {
		return result, ErrNotResumed
	}

	mark := s.board.HighWaterMark()
	result.HighWaterMark = mark

	raws, err := s.source.Fetch(ctx, mark, s.opts.FetchLimit)
	if err != nil {
		return result, fmt.Errorf("%w: source %s after %d: %w", ErrTransientFetch, s.source.Name(), mark, err)
	}
	result.Fetched = len(raws)
	s.metrics.RecordSubmissionsFetched(ctx, s.source.Name(), len(raws))

	prefix := s.foldablePrefix(ctx, raws, mark, now, &result)

	if len(prefix) > 0 {
		err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) error {
			return s.repo.AppendSubmissions(ctx, db, s.contest.ID, prefix)
		})
		if err != nil {
			return result, fmt.Errorf("%w: ledger append: %w", ErrPersistence, err)
		}
		result.Ledgered = len(prefix)
	}

	outcomes := s.fold(ctx, s.board, prefix, &result)
	result.HighWaterMark = s.board.HighWaterMark()
	s.metrics.RecordSubmissionsFolded(ctx, result.Folded)
	s.metrics.RecordHighWaterMark(ctx, result.HighWaterMark)

	scroll := scoreboarddomain.BuildScroll(outcomes, now, s.opts.ScrollWindow)
	result.ScrollRows = len(scroll)

	if err := s.publish(ctx, cycleID, now, scroll); err != nil {
		return result, err
	}
	result.Published = true

	s.logger.InfoContext(ctx, "Scoreboard cycle completed",
		attr.ContestID(s.contest.ID),
		attr.CycleIDFromContext(ctx),
		attr.Int("fetched", result.Fetched),
		attr.Int("folded", result.Folded),
		attr.Int("dropped", result.Dropped),
		attr.Bool("stalled", result.Stalled),
		attr.Int64("high_water_mark", result.HighWaterMark),
		attr.Bool("ended", result.Ended),
	)
	return result, nil
}

// foldablePrefix orders the batch by id, discards redeliveries and cuts it
// before the first submission whose verdict is not final.
func (s *ScoreboardService) foldablePrefix(
	ctx context.Context,
	raws []scoreboarddomain.RawSubmission,
	mark int64,
	now time.Time,
	result *CycleResult,
) []scoreboarddomain.Submission {
	ordered := slices.Clone(raws)
	slices.SortStableFunc(ordered, func(a, b scoreboarddomain.RawSubmission) int {
		return cmp.Compare(a.ID, b.ID)
	})

	prefix := make([]scoreboarddomain.Submission, 0, len(ordered))
	last := mark
	for _, raw := range ordered {
		if raw.ID <= last {
			result.Redelivered++
			continue
		}

		sub := s.normalizer.Submission(raw)
		if !sub.Verdict.IsResolved() {
			result.Stalled = true
			result.StalledAt = sub.ID
			result.StalledStatus = sub.RawStatus

			if sub.Verdict == scoreboarddomain.VerdictUnknown {
				s.unknown.Record(s.normalizer.Source(), sub.RawStatus, sub.ID, now)
				s.metrics.RecordUnknownVerdict(ctx, s.normalizer.Source(), sub.RawStatus)
				s.logger.WarnContext(ctx, "Unrecognized status token, holding back the rest of the batch",
					attr.CycleIDFromContext(ctx),
					attr.Source(s.normalizer.Source()),
					attr.SubmissionID(sub.ID),
					attr.String("status", sub.RawStatus),
				)
			} else {
				s.logger.DebugContext(ctx, "Submission still pending",
					attr.CycleIDFromContext(ctx),
					attr.SubmissionID(sub.ID),
				)
			}
			break
		}

		prefix = append(prefix, sub)
		last = sub.ID
	}
	return prefix
}

// fold applies subs to board. Missing roster entries are dropped and logged.
func (s *ScoreboardService) fold(
	ctx context.Context,
	board *scoreboarddomain.Board,
	subs []scoreboarddomain.Submission,
	result *CycleResult,
) []scoreboarddomain.FoldOutcome {
	outcomes := make([]scoreboarddomain.FoldOutcome, 0, len(subs))
	for _, sub := range subs {
		outcome, err := board.Fold(sub)
		if err != nil {
			var missing *scoreboarddomain.MissingRosterEntryError
			if errors.As(err, &missing) {
				s.logger.WarnContext(ctx, "Dropping submission with missing roster entry",
					attr.CycleIDFromContext(ctx),
					attr.SubmissionID(sub.ID),
					attr.String("kind", missing.Kind),
					attr.String("ref", missing.Ref),
				)
			} else {
				s.logger.ErrorContext(ctx, "Failed to fold submission",
					attr.CycleIDFromContext(ctx),
					attr.SubmissionID(sub.ID),
					attr.Error(err),
				)
			}
			result.Dropped++
			s.metrics.RecordSubmissionDropped(ctx, string(outcome.Skipped))
			continue
		}

		switch outcome.Skipped {
		case scoreboarddomain.SkipNone:
			result.Folded++
		case scoreboarddomain.SkipOutOfContest:
			result.Dropped++
			s.metrics.RecordSubmissionDropped(ctx, string(outcome.Skipped))
			s.logger.DebugContext(ctx, "Submission outside the contest window",
				attr.CycleIDFromContext(ctx),
				attr.SubmissionID(sub.ID),
				attr.Int64("relative_seconds", outcome.RelativeSeconds),
			)
		default:
			s.metrics.RecordSubmissionDropped(ctx, string(outcome.Skipped))
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *ScoreboardService) publish(ctx context.Context, cycleID string, now time.Time, scroll []scoreboarddomain.ScrollRow) error {
	standings, err := scoreboarddomain.ComputeStandings(s.board.Entries(), s.opts.Series)
	if err != nil {
		return fmt.Errorf("failed to compute standings: %w", err)
	}

	snap := scoreboarddomain.NewSnapshot(s.board, standings, scroll, cycleID, now, s.opts.Document)
	if err := s.publisher.Publish(ctx, snap); err != nil {
		return fmt.Errorf("%w: publish snapshot: %w", ErrPersistence, err)
	}
	return nil
}
