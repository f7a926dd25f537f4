package scoreboarddomain

import (
	"testing"
	"time"
)

var testStart = time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)

func testContest() Contest {
	return Contest{
		ID:             "regional-2025",
		Title:          "Regional 2025",
		StartAt:        testStart,
		Duration:       5 * time.Hour,
		FrozenDuration: time.Hour,
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(
		[]Team{
			{ID: "t1", Name: "Alpha", Organization: "North", Members: []string{"a1", "a2"}, Coach: "ca", Official: true},
			{ID: "t2", Name: "Bravo", Organization: "South", Official: true, Markers: []MarkerID{"female"}},
			{ID: "t3", Name: "Charlie", Organization: "North", Official: true},
		},
		[]Problem{{ID: "1001", Alias: "A"}, {ID: "1002", Alias: "B"}},
		[]Marker{{ID: "female", Label: "Female team", Style: "pink"}},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func sub(id int64, team, problem string, v Verdict, rel time.Duration) Submission {
	return Submission{
		ID:         id,
		Source:     "test",
		TeamID:     TeamID(team),
		ProblemRef: problem,
		Verdict:    v,
		Timestamp:  testStart.Add(rel),
	}
}

func mustFold(t *testing.T, b *Board, subs ...Submission) []FoldOutcome {
	t.Helper()
	out := make([]FoldOutcome, 0, len(subs))
	for _, s := range subs {
		o, err := b.Fold(s)
		if err != nil {
			t.Fatalf("Fold(%d): %v", s.ID, err)
		}
		out = append(out, o)
	}
	return out
}
