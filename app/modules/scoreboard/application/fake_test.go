package scoreboardservice

import (
	"context"
	"sync"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboarddb "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Ledger
// ------------------------

// FakeLedger delegates to an in-memory ledger unless a Func field overrides
// the call.
type FakeLedger struct {
	mu    sync.Mutex
	trace []string
	inner *scoreboarddb.MemoryLedger

	AppendSubmissionsFunc func(ctx context.Context, db bun.IDB, contestID string, subs []scoreboarddomain.Submission) error
	ListSubmissionsFunc   func(ctx context.Context, db bun.IDB, contestID string, afterID int64, limit int) ([]scoreboarddomain.Submission, error)
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{trace: []string{}, inner: scoreboarddb.NewMemoryLedger()}
}

func (f *FakeLedger) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeLedger) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLedger) AppendSubmissions(ctx context.Context, db bun.IDB, contestID string, subs []scoreboarddomain.Submission) error {
	f.record("AppendSubmissions")
	if f.AppendSubmissionsFunc != nil {
		return f.AppendSubmissionsFunc(ctx, db, contestID, subs)
	}
	return f.inner.AppendSubmissions(ctx, db, contestID, subs)
}

func (f *FakeLedger) ListSubmissions(ctx context.Context, db bun.IDB, contestID string, afterID int64, limit int) ([]scoreboarddomain.Submission, error) {
	f.record("ListSubmissions")
	if f.ListSubmissionsFunc != nil {
		return f.ListSubmissionsFunc(ctx, db, contestID, afterID, limit)
	}
	return f.inner.ListSubmissions(ctx, db, contestID, afterID, limit)
}

func (f *FakeLedger) GetSubmission(ctx context.Context, db bun.IDB, contestID string, id int64) (scoreboarddomain.Submission, error) {
	f.record("GetSubmission")
	return f.inner.GetSubmission(ctx, db, contestID, id)
}

func (f *FakeLedger) HighWaterMark(ctx context.Context, db bun.IDB, contestID string) (int64, error) {
	f.record("HighWaterMark")
	return f.inner.HighWaterMark(ctx, db, contestID)
}

var _ scoreboarddb.Repository = (*FakeLedger)(nil)

// ------------------------
// Fake Source
// ------------------------

// FakeSource serves Submissions after the requested id unless FetchFunc is set.
type FakeSource struct {
	Submissions []scoreboarddomain.RawSubmission
	FetchFunc   func(ctx context.Context, afterID int64, limit int) ([]scoreboarddomain.RawSubmission, error)

	Calls []int64
}

func (f *FakeSource) Name() string { return "fake" }

func (f *FakeSource) Fetch(ctx context.Context, afterID int64, limit int) ([]scoreboarddomain.RawSubmission, error) {
	f.Calls = append(f.Calls, afterID)
	if f.FetchFunc != nil {
		return f.FetchFunc(ctx, afterID, limit)
	}
	var out []scoreboarddomain.RawSubmission
	for _, s := range f.Submissions {
		if s.ID > afterID {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	PublishFunc func(ctx context.Context, snap scoreboarddomain.Snapshot) error
	Published   []scoreboarddomain.Snapshot
}

func (f *FakePublisher) Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error {
	if f.PublishFunc != nil {
		if err := f.PublishFunc(ctx, snap); err != nil {
			return err
		}
	}
	f.Published = append(f.Published, snap)
	return nil
}

func (f *FakePublisher) Last() (scoreboarddomain.Snapshot, bool) {
	if len(f.Published) == 0 {
		return scoreboarddomain.Snapshot{}, false
	}
	return f.Published[len(f.Published)-1], true
}
