package scoreboarddomain

import (
	"errors"
	"math"
	"time"
)

// DefaultPenalty is the ICPC penalty per rejected try.
const DefaultPenalty = 20 * time.Minute

// Contest holds the timing rules of one run.
type Contest struct {
	ID             string
	Title          string
	StartAt        time.Time
	Duration       time.Duration
	FrozenDuration time.Duration
	Penalty        time.Duration
}

func (c Contest) Validate() error {
	switch {
	case c.ID == "":
		return errors.New("contest id is required")
	case c.StartAt.IsZero():
		return errors.New("contest start is required")
	case c.Duration <= 0:
		return errors.New("contest duration must be positive")
	case c.FrozenDuration < 0 || c.FrozenDuration > c.Duration:
		return errors.New("frozen duration must be within the contest duration")
	case c.Penalty < 0:
		return errors.New("penalty must not be negative")
	}
	return nil
}

func (c Contest) EndAt() time.Time { return c.StartAt.Add(c.Duration) }

// Ended reports whether now is past the end of the contest.
func (c Contest) Ended(now time.Time) bool { return now.After(c.EndAt()) }

// PenaltySeconds falls back to DefaultPenalty when unset.
func (c Contest) PenaltySeconds() int64 {
	if c.Penalty == 0 {
		return int64(DefaultPenalty / time.Second)
	}
	return int64(c.Penalty / time.Second)
}

// RelativeSeconds is the whole number of seconds from start to ts, floored.
func (c Contest) RelativeSeconds(ts time.Time) int64 {
	return int64(math.Floor(ts.Sub(c.StartAt).Seconds()))
}

func (c Contest) durationSeconds() int64 { return int64(c.Duration / time.Second) }

// InContest reports whether rel falls in [0, duration].
func (c Contest) InContest(rel int64) bool {
	return rel >= 0 && rel <= c.durationSeconds()
}

// InFrozenWindow reports whether rel falls in [duration-frozen, duration].
// A zero frozen duration disables the freeze.
func (c Contest) InFrozenWindow(rel int64) bool {
	if c.FrozenDuration <= 0 {
		return false
	}
	end := c.durationSeconds()
	return rel >= end-int64(c.FrozenDuration/time.Second) && rel <= end
}
