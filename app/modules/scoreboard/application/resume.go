package scoreboardservice

import (
	"context"
	"fmt"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
)

// Resume discards the in-memory board, rebuilds it by replaying the ledger in
// id order and publishes the result. A failed publish is logged, not
// returned: the first cycle publishes again.
func (s *ScoreboardService) Resume(ctx context.Context) (ResumeResult, error) {
	cycleID := s.newCycleID()
	ctx = attr.WithCycleID(ctx, cycleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	return withTelemetry(s, ctx, "Resume", func(ctx context.Context) (ResumeResult, error) {
		capturedAt := s.opts.Clock()
		board, result, err := s.replay(ctx)
		if err != nil {
			return result, err
		}
		s.board = board
		s.metrics.RecordHighWaterMark(ctx, result.HighWaterMark)

		if err := s.publish(ctx, cycleID, capturedAt, nil); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish resumed snapshot",
				attr.ContestID(s.contest.ID),
				attr.CycleIDFromContext(ctx),
				attr.Error(err),
			)
		} else {
			result.Published = true
		}

		s.logger.InfoContext(ctx, "Scoreboard resumed from ledger",
			attr.ContestID(s.contest.ID),
			attr.Int("replayed", result.Replayed),
			attr.Int("dropped", result.Dropped),
			attr.Int64("high_water_mark", result.HighWaterMark),
		)
		return result, nil
	})
}

func (s *ScoreboardService) replay(ctx context.Context) (*scoreboarddomain.Board, ResumeResult, error) {
	board := scoreboarddomain.NewBoard(s.contest, s.registry)
	var result ResumeResult

	var after int64
	for {
		page, err := s.repo.ListSubmissions(ctx, nil, s.contest.ID, after, s.opts.ReplayPageSize)
		if err != nil {
			return nil, result, fmt.Errorf("failed to replay ledger after %d: %w", after, err)
		}

		for _, sub := range page {
			after = sub.ID
			// Only the folded prefix is ever ledgered, so this is a corrupt row.
			if !sub.Verdict.IsResolved() {
				result.Dropped++
				continue
			}
			outcome, err := board.Fold(sub)
			if err != nil || outcome.Skipped != scoreboarddomain.SkipNone {
				result.Dropped++
				continue
			}
			result.Replayed++
		}

		if len(page) < s.opts.ReplayPageSize {
			break
		}
	}

	result.HighWaterMark = board.HighWaterMark()
	return board, result, nil
}
