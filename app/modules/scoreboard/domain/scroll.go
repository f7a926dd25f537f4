package scoreboarddomain

import "time"

// DefaultScrollWindow is how long a submission stays in the ticker.
const DefaultScrollWindow = 5 * time.Minute

// ScrollRow is one public ticker line.
type ScrollRow struct {
	SubmissionID int64
	Team         Team
	ProblemAlias string
	Result       string
	Solved       int
}

// BuildScroll turns the outcomes of one cycle into ticker rows. Only
// penalty-bearing submissions younger than window (measured against now)
// appear. Frozen submissions show as "?", the current first blood as "FB".
func BuildScroll(outcomes []FoldOutcome, now time.Time, window time.Duration) []ScrollRow {
	if window <= 0 {
		window = DefaultScrollWindow
	}

	rows := make([]ScrollRow, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Skipped != SkipNone || !o.Submission.Verdict.IsPenaltyBearing() {
			continue
		}
		if now.Sub(o.Submission.Timestamp) >= window {
			continue
		}

		result := o.Submission.Verdict.Code()
		switch {
		case o.Frozen:
			result = ResultFrozen
		case o.FirstBlood:
			result = ResultFirstBlood
		}

		rows = append(rows, ScrollRow{
			SubmissionID: o.Submission.ID,
			Team:         o.Team,
			ProblemAlias: o.Problem.Alias,
			Result:       result,
			Solved:       o.Solved,
		})
	}
	return rows
}
