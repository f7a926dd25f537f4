package scoreboarddomain

// AttemptResult is the scoring outcome of one team on one problem.
type AttemptResult int

const (
	ResultNone AttemptResult = iota
	ResultRejectedAttempt
	ResultAcceptedAttempt
	ResultFrozenAttempt
)

// AttemptState is the resolution state machine position of a pair:
// Untried -> Open -> {Solved, Frozen}.
type AttemptState int

const (
	StateUntried AttemptState = iota
	StateOpen
	StateSolved
	StateFrozen
)

func (s AttemptState) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateSolved:
		return "Solved"
	case StateFrozen:
		return "Frozen"
	default:
		return "Untried"
	}
}

// HistoryEntry is one submission as folded, whatever its effect.
type HistoryEntry struct {
	SubmissionID    int64
	Verdict         Verdict
	RelativeSeconds int64
	Frozen          bool
}

// ProblemAttempt is the per (team, problem) state.
//
// Tries counts penalty-bearing submissions up to and including the one that
// made the pair terminal, so an accepted pair carries tries-1 rejections.
type ProblemAttempt struct {
	Tries             int
	Result            AttemptResult
	AcceptedAtSeconds *int64
	IsFirstBlood      bool
	History           []HistoryEntry
}

func (a *ProblemAttempt) State() AttemptState {
	switch a.Result {
	case ResultAcceptedAttempt:
		return StateSolved
	case ResultFrozenAttempt:
		return StateFrozen
	case ResultRejectedAttempt:
		return StateOpen
	default:
		return StateUntried
	}
}

func (a *ProblemAttempt) Solved() bool { return a.Result == ResultAcceptedAttempt }

func (a *ProblemAttempt) terminal() bool {
	return a.Result == ResultAcceptedAttempt || a.Result == ResultFrozenAttempt
}

// apply folds one resolved verdict. History always grows; tries and the
// result only move while the pair is not terminal. It reports whether the
// pair changed.
func (a *ProblemAttempt) apply(id int64, v Verdict, rel int64, frozen bool) bool {
	frozen = frozen && v.IsPenaltyBearing()
	a.History = append(a.History, HistoryEntry{
		SubmissionID:    id,
		Verdict:         v,
		RelativeSeconds: rel,
		Frozen:          frozen,
	})

	if !v.IsPenaltyBearing() || a.terminal() {
		return false
	}

	a.Tries++
	switch {
	case frozen:
		a.Result = ResultFrozenAttempt
	case v == VerdictAccepted:
		at := rel / 60 * 60
		a.AcceptedAtSeconds = &at
		a.Result = ResultAcceptedAttempt
	default:
		a.Result = ResultRejectedAttempt
	}
	return true
}

// PenaltySeconds is floor(acceptedAt/60)*60 + penalty*(tries-1) for a solved
// pair and zero otherwise.
func (a *ProblemAttempt) PenaltySeconds(penaltyPerTry int64) int64 {
	if !a.Solved() || a.AcceptedAtSeconds == nil {
		return 0
	}
	return *a.AcceptedAtSeconds + penaltyPerTry*int64(a.Tries-1)
}

func (a ProblemAttempt) clone() ProblemAttempt {
	out := a
	out.History = append([]HistoryEntry(nil), a.History...)
	if a.AcceptedAtSeconds != nil {
		at := *a.AcceptedAtSeconds
		out.AcceptedAtSeconds = &at
	}
	return out
}
