package scoreboarddomain

import "time"

// Snapshot is everything one cycle publishes. It is a value: sinks may keep it.
type Snapshot struct {
	ContestID     string
	CycleID       string
	CapturedAt    time.Time
	HighWaterMark int64
	Ranking       RankingDocument
	Scroll        ScrollDocument
	Statistics    []ProblemStatistics
}

// NewSnapshot renders board at the captured time now.
func NewSnapshot(board *Board, standings Standings, scroll []ScrollRow, cycleID string, now time.Time, opts DocumentOptions) Snapshot {
	return Snapshot{
		ContestID:     board.Contest().ID,
		CycleID:       cycleID,
		CapturedAt:    now,
		HighWaterMark: board.HighWaterMark(),
		Ranking:       BuildRankingDocument(board, standings, now, opts),
		Scroll:        BuildScrollDocument(scroll, now),
		Statistics:    board.Statistics(),
	}
}
