package scoreboardservice

import (
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// Options tunes the pipeline.
type Options struct {
	Series         []scoreboarddomain.SeriesDefinition
	FetchLimit     int
	ReplayPageSize int
	ScrollWindow   time.Duration
	Document       scoreboarddomain.DocumentOptions
	// Clock stamps snapshots published outside a cycle. Defaults to time.Now.
	Clock func() time.Time
}

const defaultReplayPageSize = 1000

// CycleResult summarises one cycle. It is filled as far as the cycle got,
// so it is meaningful alongside an error too.
type CycleResult struct {
	CycleID       string
	CapturedAt    time.Time
	Fetched       int
	Redelivered   int
	Ledgered      int
	Folded        int
	Dropped       int
	Stalled       bool
	StalledAt     int64
	StalledStatus string
	HighWaterMark int64
	ScrollRows    int
	Published     bool
	// Ended is true once CapturedAt is past the end of the contest.
	Ended bool
}

type ResumeResult struct {
	Replayed      int
	Dropped       int
	HighWaterMark int64
	Published     bool
}
