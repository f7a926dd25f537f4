package scoreboarddb

import (
	"context"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/uptrace/bun"
)

// Repository is the submission ledger. Every method takes the bun.IDB to run
// on so callers can compose it into a transaction; implementations that are
// not backed by a database ignore it.
//
// Error semantics:
//   - ErrNotFound: submission does not exist
//   - Other errors: infrastructure failures
type Repository interface {
	// AppendSubmissions upserts by (contest, id). Appending an id twice
	// replaces the earlier row.
	AppendSubmissions(ctx context.Context, db bun.IDB, contestID string, subs []scoreboarddomain.Submission) error

	// ListSubmissions returns up to limit submissions with id > afterID in id order.
	ListSubmissions(ctx context.Context, db bun.IDB, contestID string, afterID int64, limit int) ([]scoreboarddomain.Submission, error)

	// GetSubmission returns one submission or ErrNotFound.
	GetSubmission(ctx context.Context, db bun.IDB, contestID string, id int64) (scoreboarddomain.Submission, error)

	// HighWaterMark returns the greatest ledgered id, or 0 for an empty ledger.
	HighWaterMark(ctx context.Context, db bun.IDB, contestID string) (int64, error)
}
