package scoreboardpublishers

import (
	"context"
	"io"
	"log/slog"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() scoreboarddomain.Snapshot {
	captured := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	return scoreboarddomain.Snapshot{
		ContestID:     "regional-2025",
		CycleID:       "cycle-1",
		CapturedAt:    captured,
		HighWaterMark: 42,
		Ranking: scoreboarddomain.RankingDocument{
			Type:    scoreboarddomain.RankingDocumentType,
			Version: scoreboarddomain.RankingDocumentVersion,
			Contest: scoreboarddomain.ContestInfo{Title: "Regional 2025"},
			Rows: []scoreboarddomain.RowInfo{
				{User: scoreboarddomain.UserInfo{ID: "t1", Name: "Alpha"}},
				{User: scoreboarddomain.UserInfo{ID: "t2", Name: "Bravo"}},
			},
		},
		Scroll: scoreboarddomain.ScrollDocument{UpdatedAt: captured.Unix(), Rows: []scoreboarddomain.ScrollRowInfo{}},
		Statistics: []scoreboarddomain.ProblemStatistics{
			{Problem: scoreboarddomain.Problem{ID: "1001", Alias: "A", Style: &scoreboarddomain.ProblemStyle{BackgroundColor: "#ff0000"}}, Accepted: 2, Submitted: 5},
			{Problem: scoreboarddomain.Problem{ID: "1002", Alias: "B"}, Accepted: 0, Submitted: 3},
		},
	}
}

// FakeSink records snapshots and fails when PublishFunc says so.
type FakeSink struct {
	NameValue   string
	PublishFunc func(ctx context.Context, snap scoreboarddomain.Snapshot) error
	Published   []scoreboarddomain.Snapshot
}

func (f *FakeSink) Name() string { return f.NameValue }

func (f *FakeSink) Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error {
	f.Published = append(f.Published, snap)
	if f.PublishFunc != nil {
		return f.PublishFunc(ctx, snap)
	}
	return nil
}
