package scoreboardservice

import (
	"context"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// Service runs the scoreboard of one contest.
type Service interface {
	// Resume rebuilds the board from the ledger and publishes it.
	Resume(ctx context.Context) (ResumeResult, error)

	// RunCycle fetches, normalizes, ledgers, folds, ranks and publishes once.
	// now is the single timestamp every decision in the cycle is made against.
	RunCycle(ctx context.Context, now time.Time) (CycleResult, error)

	Contest() scoreboarddomain.Contest
	HighWaterMark() int64
	UnknownStatuses() []scoreboarddomain.UnknownStatusReport
}

// SubmissionSource hands over judged submissions newer than a mark.
type SubmissionSource interface {
	Name() string
	// Fetch returns submissions with id > afterID, at most limit of them
	// when limit is positive.
	Fetch(ctx context.Context, afterID int64, limit int) ([]scoreboarddomain.RawSubmission, error)
}

// SnapshotPublisher delivers a snapshot to its readers.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error
}
