package scoreboarddb

import (
	"context"
	"slices"
	"sync"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/uptrace/bun"
)

// MemoryLedger keeps the ledger in process. It backs replays and dry runs;
// nothing survives a restart.
type MemoryLedger struct {
	mu       sync.RWMutex
	contests map[string]map[int64]scoreboarddomain.Submission
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{contests: make(map[string]map[int64]scoreboarddomain.Submission)}
}

var _ Repository = (*MemoryLedger)(nil)

func (m *MemoryLedger) AppendSubmissions(_ context.Context, _ bun.IDB, contestID string, subs []scoreboarddomain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.contests[contestID]
	if !ok {
		rows = make(map[int64]scoreboarddomain.Submission)
		m.contests[contestID] = rows
	}
	for _, s := range subs {
		rows[s.ID] = s
	}
	return nil
}

func (m *MemoryLedger) ListSubmissions(_ context.Context, _ bun.IDB, contestID string, afterID int64, limit int) ([]scoreboarddomain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.contests[contestID]
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]scoreboarddomain.Submission, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out, nil
}

func (m *MemoryLedger) GetSubmission(_ context.Context, _ bun.IDB, contestID string, id int64) (scoreboarddomain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.contests[contestID][id]
	if !ok {
		return scoreboarddomain.Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryLedger) HighWaterMark(_ context.Context, _ bun.IDB, contestID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var mark int64
	for id := range m.contests[contestID] {
		mark = max(mark, id)
	}
	return mark, nil
}
