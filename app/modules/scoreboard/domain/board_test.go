package scoreboarddomain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBoardPenaltyArithmetic(t *testing.T) {
	tests := []struct {
		name        string
		subs        []Submission
		wantTries   int
		wantAccept  int64
		wantPenalty int64
	}{
		{
			name: "one rejection then accepted at 125s",
			subs: []Submission{
				sub(1, "t1", "A", VerdictWrongAnswer, 40*time.Second),
				sub(2, "t1", "A", VerdictAccepted, 125*time.Second),
			},
			wantTries:   2,
			wantAccept:  120,
			wantPenalty: 1320,
		},
		{
			name: "two rejections then accepted at 125s",
			subs: []Submission{
				sub(1, "t1", "A", VerdictWrongAnswer, 40*time.Second),
				sub(2, "t1", "A", VerdictTimeLimitExceeded, 80*time.Second),
				sub(3, "t1", "A", VerdictAccepted, 125*time.Second),
			},
			wantTries:   3,
			wantAccept:  120,
			wantPenalty: 2520,
		},
		{
			name: "compile errors cost nothing",
			subs: []Submission{
				sub(1, "t1", "A", VerdictCompileError, 40*time.Second),
				sub(2, "t1", "A", VerdictSystemError, 50*time.Second),
				sub(3, "t1", "A", VerdictAccepted, 59*time.Second),
			},
			wantTries:   1,
			wantAccept:  0,
			wantPenalty: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard(testContest(), testRegistry(t))
			mustFold(t, b, tt.subs...)

			a, ok := b.Attempt("t1", "A")
			if !ok {
				t.Fatal("attempt not found")
			}
			if a.Tries != tt.wantTries {
				t.Errorf("tries = %d, want %d", a.Tries, tt.wantTries)
			}
			if a.AcceptedAtSeconds == nil || *a.AcceptedAtSeconds != tt.wantAccept {
				t.Errorf("acceptedAtSeconds = %v, want %d", a.AcceptedAtSeconds, tt.wantAccept)
			}
			e, _ := b.Entry("t1")
			if e.Solved != 1 || e.PenaltySeconds != tt.wantPenalty {
				t.Errorf("entry = %+v, want solved 1 penalty %d", e, tt.wantPenalty)
			}
		})
	}
}

func TestBoardFoldIsIdempotent(t *testing.T) {
	subs := []Submission{
		sub(1, "t1", "A", VerdictWrongAnswer, 10*time.Minute),
		sub(2, "t1", "A", VerdictAccepted, 20*time.Minute),
	}

	once := NewBoard(testContest(), testRegistry(t))
	mustFold(t, once, subs...)

	twice := NewBoard(testContest(), testRegistry(t))
	mustFold(t, twice, subs...)
	outcomes := mustFold(t, twice, subs...)
	for _, o := range outcomes {
		if o.Skipped != SkipDuplicate {
			t.Errorf("refold of %d: skipped = %q, want duplicate", o.Submission.ID, o.Skipped)
		}
	}

	if diff := cmp.Diff(once.Entries(), twice.Entries()); diff != "" {
		t.Errorf("entries differ after refold (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(once.Attempts("t1"), twice.Attempts("t1")); diff != "" {
		t.Errorf("attempts differ after refold (-once +twice):\n%s", diff)
	}
}

func TestBoardTriesAreMonotonicAndStopOnSolve(t *testing.T) {
	b := NewBoard(testContest(), testRegistry(t))
	verdicts := []Verdict{
		VerdictWrongAnswer, VerdictCompileError, VerdictRuntimeError,
		VerdictAccepted, VerdictWrongAnswer, VerdictAccepted,
	}

	last := 0
	for i, v := range verdicts {
		mustFold(t, b, sub(int64(i+1), "t2", "B", v, time.Duration(i+1)*time.Minute))
		a, _ := b.Attempt("t2", "B")
		if a.Tries < last {
			t.Fatalf("tries decreased from %d to %d", last, a.Tries)
		}
		last = a.Tries
	}

	a, _ := b.Attempt("t2", "B")
	if a.Tries != 3 {
		t.Errorf("tries = %d, want 3", a.Tries)
	}
	if a.State() != StateSolved || *a.AcceptedAtSeconds != 240 {
		t.Errorf("state = %v accepted = %d, want Solved at 240", a.State(), *a.AcceptedAtSeconds)
	}
	if len(a.History) != len(verdicts) {
		t.Errorf("history has %d entries, want %d", len(a.History), len(verdicts))
	}
}

func TestBoardFrozenWindow(t *testing.T) {
	b := NewBoard(testContest(), testRegistry(t))
	out := mustFold(t, b,
		sub(1, "t1", "A", VerdictWrongAnswer, 3*time.Hour),
		sub(2, "t1", "A", VerdictWrongAnswer, 4*time.Hour+time.Minute),
		sub(3, "t1", "A", VerdictAccepted, 4*time.Hour+2*time.Minute),
		sub(4, "t2", "A", VerdictCompileError, 4*time.Hour+3*time.Minute),
	)

	if out[0].Frozen || !out[1].Frozen || !out[2].Frozen {
		t.Errorf("frozen flags = %v %v %v, want false true true", out[0].Frozen, out[1].Frozen, out[2].Frozen)
	}
	if out[3].Frozen {
		t.Error("compile error must never freeze")
	}

	a, _ := b.Attempt("t1", "A")
	if a.State() != StateFrozen {
		t.Errorf("state = %v, want Frozen", a.State())
	}
	if a.Tries != 2 {
		t.Errorf("tries = %d, want 2 (freezing submission counts, later ones do not)", a.Tries)
	}
	if len(a.History) != 3 {
		t.Errorf("history has %d entries, want 3", len(a.History))
	}

	untouched, _ := b.Attempt("t2", "A")
	if untouched.State() != StateUntried || untouched.Tries != 0 {
		t.Errorf("compile error changed state: %+v", untouched)
	}

	e, _ := b.Entry("t1")
	if e.Solved != 0 {
		t.Errorf("frozen acceptance must not be scored, solved = %d", e.Solved)
	}
}

func TestBoardFreezeDisabled(t *testing.T) {
	c := testContest()
	c.FrozenDuration = 0
	b := NewBoard(c, testRegistry(t))
	out := mustFold(t, b, sub(1, "t1", "A", VerdictAccepted, 5*time.Hour))
	if out[0].Frozen {
		t.Error("no submission may freeze when the frozen duration is zero")
	}
}

func TestBoardFirstBlood(t *testing.T) {
	t.Run("earliest official acceptance wins", func(t *testing.T) {
		b := NewBoard(testContest(), testRegistry(t))
		out := mustFold(t, b,
			sub(1, "t2", "A", VerdictAccepted, 30*time.Minute),
			sub(2, "t1", "A", VerdictAccepted, 40*time.Minute),
		)
		if !out[0].FirstBlood || out[1].FirstBlood {
			t.Errorf("first blood flags = %v %v, want true false", out[0].FirstBlood, out[1].FirstBlood)
		}
		if team, _ := b.FirstBlood("1001"); team != "t2" {
			t.Errorf("first blood holder = %q, want t2", team)
		}
	})

	t.Run("identical timestamps go to the lowest team id regardless of fold order", func(t *testing.T) {
		b := NewBoard(testContest(), testRegistry(t))
		mustFold(t, b,
			sub(1, "t3", "A", VerdictAccepted, 30*time.Minute),
			sub(2, "t1", "A", VerdictAccepted, 30*time.Minute),
		)
		if team, _ := b.FirstBlood("A"); team != "t1" {
			t.Errorf("first blood holder = %q, want t1", team)
		}
		t1, _ := b.Attempt("t1", "A")
		t3, _ := b.Attempt("t3", "A")
		if !t1.IsFirstBlood || t3.IsFirstBlood {
			t.Errorf("flags t1=%v t3=%v, want exactly one flagged", t1.IsFirstBlood, t3.IsFirstBlood)
		}
	})

	t.Run("unofficial teams never take first blood", func(t *testing.T) {
		r, err := NewRegistry(
			[]Team{{ID: "guest", Name: "Guest"}, {ID: "t1", Name: "Alpha", Official: true}},
			[]Problem{{ID: "A"}},
			nil,
		)
		if err != nil {
			t.Fatal(err)
		}
		b := NewBoard(testContest(), r)
		mustFold(t, b,
			sub(1, "guest", "A", VerdictAccepted, time.Minute),
			sub(2, "t1", "A", VerdictAccepted, 2*time.Minute),
		)
		if team, _ := b.FirstBlood("A"); team != "t1" {
			t.Errorf("first blood holder = %q, want t1", team)
		}
	})
}

func TestBoardSkips(t *testing.T) {
	b := NewBoard(testContest(), testRegistry(t))

	o, err := b.Fold(sub(7, "ghost", "A", VerdictAccepted, time.Minute))
	var missing *MissingRosterEntryError
	if !errors.As(err, &missing) || missing.Kind != "team" || o.Skipped != SkipMissingTeam {
		t.Errorf("unknown team: err = %v, skipped = %q", err, o.Skipped)
	}

	o, err = b.Fold(sub(8, "t1", "Z", VerdictAccepted, time.Minute))
	if !errors.As(err, &missing) || missing.Kind != "problem" || o.Skipped != SkipMissingProblem {
		t.Errorf("unknown problem: err = %v, skipped = %q", err, o.Skipped)
	}

	o, err = b.Fold(sub(9, "t1", "A", VerdictAccepted, 6*time.Hour))
	if err != nil || o.Skipped != SkipOutOfContest {
		t.Errorf("after end: err = %v, skipped = %q", err, o.Skipped)
	}

	if _, err := b.Fold(sub(10, "t1", "A", VerdictPending, time.Minute)); !errors.Is(err, ErrUnresolvedVerdict) {
		t.Errorf("pending verdict: err = %v, want ErrUnresolvedVerdict", err)
	}

	if got := b.HighWaterMark(); got != 9 {
		t.Errorf("high-water mark = %d, want 9", got)
	}
	if e, _ := b.Entry("t1"); e.Solved != 0 {
		t.Errorf("skipped submissions were scored: %+v", e)
	}
}

func TestBoardStatistics(t *testing.T) {
	b := NewBoard(testContest(), testRegistry(t))
	mustFold(t, b,
		sub(1, "t1", "A", VerdictWrongAnswer, time.Minute),
		sub(2, "t1", "A", VerdictAccepted, 2*time.Minute),
		sub(3, "t2", "A", VerdictCompileError, 3*time.Minute),
		sub(4, "t2", "B", VerdictWrongAnswer, 4*time.Minute),
	)

	got := b.Statistics()
	if got[0].Accepted != 1 || got[0].Submitted != 2 {
		t.Errorf("problem A = %+v, want accepted 1 submitted 2", got[0])
	}
	if got[1].Accepted != 0 || got[1].Submitted != 1 {
		t.Errorf("problem B = %+v, want accepted 0 submitted 1", got[1])
	}
}

func TestRegistryValidation(t *testing.T) {
	problems := []Problem{{ID: "A"}}
	tests := []struct {
		name     string
		teams    []Team
		problems []Problem
		markers  []Marker
	}{
		{"no problems", []Team{{ID: "t"}}, nil, nil},
		{"duplicate team", []Team{{ID: "t"}, {ID: "t"}}, problems, nil},
		{"duplicate alias", nil, []Problem{{ID: "1", Alias: "A"}, {ID: "2", Alias: "A"}}, nil},
		{"undeclared marker", []Team{{ID: "t", Markers: []MarkerID{"x"}}}, problems, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.teams, tt.problems, tt.markers); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRegistryResolveProblem(t *testing.T) {
	r := testRegistry(t)
	for ref, want := range map[string]int{"1001": 0, "B": 1, "2": 1, " A ": 0} {
		i, _, ok := r.ResolveProblem(ref)
		if !ok || i != want {
			t.Errorf("ResolveProblem(%q) = %d, %v; want %d", ref, i, ok, want)
		}
	}
	if _, _, ok := r.ResolveProblem("9"); ok {
		t.Error("out-of-range position resolved")
	}
}

func TestNewProblemStyle(t *testing.T) {
	s, err := NewProblemStyle("yellow")
	if err != nil {
		t.Fatal(err)
	}
	if s.BackgroundColor != "#ffd700" || s.TextColor != "#000000" {
		t.Errorf("yellow = %+v", s)
	}
	s, _ = NewProblemStyle("#1e90ff")
	if s.TextColor != "#ffffff" {
		t.Errorf("blue text colour = %q, want white", s.TextColor)
	}
	if s, err := NewProblemStyle(""); s != nil || err != nil {
		t.Errorf("empty colour = %v, %v", s, err)
	}
	if _, err := NewProblemStyle("#12"); err == nil {
		t.Error("expected an error for a short hex colour")
	}
}
