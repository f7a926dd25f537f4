package scoreboarddomain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnresolvedVerdict is returned when a pending or unknown submission is
// offered for folding. The pipeline must stop before such submissions.
var ErrUnresolvedVerdict = errors.New("submission verdict is not resolved")

// SkipReason says why a fold left the board untouched.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipDuplicate      SkipReason = "duplicate"
	SkipMissingTeam    SkipReason = "missing_team"
	SkipMissingProblem SkipReason = "missing_problem"
	SkipOutOfContest   SkipReason = "out_of_contest"
)

// FoldOutcome describes what one submission did to the board.
type FoldOutcome struct {
	Submission      Submission
	Team            Team
	Problem         Problem
	RelativeSeconds int64
	Frozen          bool
	Counted         bool
	FirstBlood      bool
	Solved          int
	Skipped         SkipReason
}

type firstBloodMark struct {
	set  bool
	team TeamID
	at   time.Time
}

// Board is the scoreboard state of one contest run. It is owned by a single
// writer and is not safe for concurrent use.
type Board struct {
	contest    Contest
	registry   *Registry
	attempts   map[TeamID][]ProblemAttempt
	solved     map[TeamID]int
	firstBlood []firstBloodMark
	folded     map[int64]struct{}
	highWater  int64
}

func NewBoard(contest Contest, registry *Registry) *Board {
	b := &Board{
		contest:    contest,
		registry:   registry,
		attempts:   make(map[TeamID][]ProblemAttempt, len(registry.Teams())),
		solved:     make(map[TeamID]int, len(registry.Teams())),
		firstBlood: make([]firstBloodMark, len(registry.Problems())),
		folded:     make(map[int64]struct{}),
	}
	for _, t := range registry.Teams() {
		b.attempts[t.ID] = make([]ProblemAttempt, len(registry.Problems()))
	}
	return b
}

func (b *Board) Contest() Contest { return b.contest }

func (b *Board) Registry() *Registry { return b.registry }

// HighWaterMark is the greatest submission id folded so far.
func (b *Board) HighWaterMark() int64 { return b.highWater }

// Fold applies one submission. Folding an id a second time is a no-op.
// Submissions for unknown teams or problems advance the high-water mark and
// are reported through a *MissingRosterEntryError alongside the outcome.
func (b *Board) Fold(sub Submission) (FoldOutcome, error) {
	out := FoldOutcome{Submission: sub, RelativeSeconds: b.contest.RelativeSeconds(sub.Timestamp)}

	if !sub.Verdict.IsResolved() {
		return out, fmt.Errorf("submission %d: %w", sub.ID, ErrUnresolvedVerdict)
	}
	if _, seen := b.folded[sub.ID]; seen {
		out.Skipped = SkipDuplicate
		return out, nil
	}
	b.folded[sub.ID] = struct{}{}
	if sub.ID > b.highWater {
		b.highWater = sub.ID
	}

	team, ok := b.registry.Team(sub.TeamID)
	if !ok {
		out.Skipped = SkipMissingTeam
		return out, &MissingRosterEntryError{SubmissionID: sub.ID, Kind: "team", Ref: string(sub.TeamID)}
	}
	out.Team = team

	idx, problem, ok := b.registry.ResolveProblem(sub.ProblemRef)
	if !ok {
		out.Skipped = SkipMissingProblem
		return out, &MissingRosterEntryError{SubmissionID: sub.ID, Kind: "problem", Ref: sub.ProblemRef}
	}
	out.Problem = problem

	if !b.contest.InContest(out.RelativeSeconds) {
		out.Skipped = SkipOutOfContest
		out.Solved = b.solved[team.ID]
		return out, nil
	}

	out.Frozen = b.contest.InFrozenWindow(out.RelativeSeconds) && sub.Verdict.IsPenaltyBearing()

	attempt := &b.attempts[team.ID][idx]
	out.Counted = attempt.apply(sub.ID, sub.Verdict, out.RelativeSeconds, out.Frozen)
	if out.Counted && attempt.Solved() {
		b.solved[team.ID]++
		if team.Official {
			b.considerFirstBlood(idx, team.ID, sub.Timestamp)
		}
	}
	out.FirstBlood = out.Counted && attempt.IsFirstBlood
	out.Solved = b.solved[team.ID]
	return out, nil
}

// considerFirstBlood keeps the earliest official acceptance per problem.
// On identical timestamps the lowest team id wins, so the holder does not
// depend on the order submissions were folded in.
func (b *Board) considerFirstBlood(idx int, team TeamID, at time.Time) {
	mark := b.firstBlood[idx]
	if mark.set {
		switch {
		case at.Before(mark.at):
		case at.Equal(mark.at) && team < mark.team:
		default:
			return
		}
		b.attempts[mark.team][idx].IsFirstBlood = false
	}
	b.firstBlood[idx] = firstBloodMark{set: true, team: team, at: at}
	b.attempts[team][idx].IsFirstBlood = true
}

// FirstBlood returns the team holding first blood on problem.
func (b *Board) FirstBlood(problem ProblemID) (TeamID, bool) {
	idx, _, ok := b.registry.ResolveProblem(string(problem))
	if !ok || !b.firstBlood[idx].set {
		return "", false
	}
	return b.firstBlood[idx].team, true
}

// Attempt returns a copy of the state of one pair.
func (b *Board) Attempt(team TeamID, problem ProblemID) (ProblemAttempt, bool) {
	row, ok := b.attempts[team]
	if !ok {
		return ProblemAttempt{}, false
	}
	idx, _, ok := b.registry.ResolveProblem(string(problem))
	if !ok {
		return ProblemAttempt{}, false
	}
	return row[idx].clone(), true
}

// Attempts returns copies of a team's attempts in problem order.
func (b *Board) Attempts(team TeamID) []ProblemAttempt {
	row := b.attempts[team]
	out := make([]ProblemAttempt, len(row))
	for i := range row {
		out[i] = row[i].clone()
	}
	return out
}

// ScoreboardEntry is derived from attempts on every call.
type ScoreboardEntry struct {
	Team           Team
	Solved         int
	PenaltySeconds int64
}

func (b *Board) Entry(id TeamID) (ScoreboardEntry, bool) {
	team, ok := b.registry.Team(id)
	if !ok {
		return ScoreboardEntry{}, false
	}
	return b.entry(team), true
}

func (b *Board) entry(team Team) ScoreboardEntry {
	e := ScoreboardEntry{Team: team}
	penalty := b.contest.PenaltySeconds()
	for i := range b.attempts[team.ID] {
		a := &b.attempts[team.ID][i]
		if a.Solved() {
			e.Solved++
			e.PenaltySeconds += a.PenaltySeconds(penalty)
		}
	}
	return e
}

// Entries returns one entry per roster team, in roster order.
func (b *Board) Entries() []ScoreboardEntry {
	teams := b.registry.Teams()
	out := make([]ScoreboardEntry, 0, len(teams))
	for _, t := range teams {
		out = append(out, b.entry(t))
	}
	return out
}

type ProblemStatistics struct {
	Problem   Problem
	Accepted  int
	Submitted int
}

// Statistics counts tries and solved pairs per problem across all teams.
func (b *Board) Statistics() []ProblemStatistics {
	problems := b.registry.Problems()
	out := make([]ProblemStatistics, len(problems))
	for i, p := range problems {
		out[i].Problem = p
	}
	for _, row := range b.attempts {
		for i := range row {
			out[i].Submitted += row[i].Tries
			if row[i].Solved() {
				out[i].Accepted++
			}
		}
	}
	return out
}
