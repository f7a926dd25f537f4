package scoreboardpublishers

import (
	"context"
	"sync"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// MemorySink holds the latest rendered snapshot for the HTTP API.
type MemorySink struct {
	mu        sync.RWMutex
	docs      Documents
	chart     []byte
	snap      scoreboarddomain.Snapshot
	published bool
	withChart bool
}

// NewMemorySink renders the statistics chart on every publish when withChart is set.
func NewMemorySink(withChart bool) *MemorySink {
	return &MemorySink{withChart: withChart}
}

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Publish(_ context.Context, snap scoreboarddomain.Snapshot) error {
	docs, err := Encode(snap)
	if err != nil {
		return err
	}
	var png []byte
	if s.withChart {
		if png, err = RenderStatisticsChart(snap.Ranking.Contest.Title, snap.Statistics); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.chart = png
	s.snap = snap
	s.published = true
	return nil
}

// Latest returns the rendered documents, or false before the first publish.
func (s *MemorySink) Latest() (Documents, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs, s.published
}

// Chart returns the statistics PNG, or false when none is available.
func (s *MemorySink) Chart() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chart, len(s.chart) > 0
}

// Snapshot returns the latest snapshot value.
func (s *MemorySink) Snapshot() (scoreboarddomain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.published
}
