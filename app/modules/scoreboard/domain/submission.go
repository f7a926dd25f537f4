package scoreboarddomain

import "time"

// RawSubmission is what a source hands over before normalization.
type RawSubmission struct {
	ID         int64
	TeamID     string
	ProblemRef string
	Status     string
	Timestamp  time.Time
}

// Submission is the canonical, ledgered form of a judged submission.
// ProblemRef is kept as the source sent it and resolved against the roster on fold.
type Submission struct {
	ID         int64
	Source     string
	TeamID     TeamID
	ProblemRef string
	Verdict    Verdict
	RawStatus  string
	Timestamp  time.Time
}

// Submission converts raw into its canonical form.
func (n *Normalizer) Submission(raw RawSubmission) Submission {
	return Submission{
		ID:         raw.ID,
		Source:     n.source,
		TeamID:     TeamID(raw.TeamID),
		ProblemRef: raw.ProblemRef,
		Verdict:    n.Normalize(raw.Status),
		RawStatus:  raw.Status,
		Timestamp:  raw.Timestamp,
	}
}
