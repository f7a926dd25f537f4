package scoreboarddb

import (
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/uptrace/bun"
)

// Submission is one ledger row. The primary key is (contest_id, id) so one
// database can hold several contests.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ContestID  string    `bun:"contest_id,pk"`
	ID         int64     `bun:"id,pk"`
	Source     string    `bun:"source,notnull"`
	TeamID     string    `bun:"team_id,notnull"`
	ProblemRef string    `bun:"problem_ref,notnull"`
	Verdict    string    `bun:"verdict,notnull"`
	RawStatus  string    `bun:"raw_status,notnull"`
	SubmitTime time.Time `bun:"submitted_at,notnull"`
	LedgeredAt time.Time `bun:"ledgered_at,nullzero,notnull,default:current_timestamp"`
}

func fromDomain(contestID string, s scoreboarddomain.Submission) *Submission {
	return &Submission{
		ContestID:  contestID,
		ID:         s.ID,
		Source:     s.Source,
		TeamID:     string(s.TeamID),
		ProblemRef: s.ProblemRef,
		Verdict:    s.Verdict.String(),
		RawStatus:  s.RawStatus,
		SubmitTime: s.Timestamp.UTC(),
	}
}

func (m *Submission) toDomain() scoreboarddomain.Submission {
	verdict, _ := scoreboarddomain.ParseVerdict(m.Verdict)
	return scoreboarddomain.Submission{
		ID:         m.ID,
		Source:     m.Source,
		TeamID:     scoreboarddomain.TeamID(m.TeamID),
		ProblemRef: m.ProblemRef,
		Verdict:    verdict,
		RawStatus:  m.RawStatus,
		Timestamp:  m.SubmitTime,
	}
}
