package scoreboarddomain

import (
	"errors"
	"fmt"
	"math"
)

type MedalPolicyKind string

const (
	MedalPolicyCounts    MedalPolicyKind = "counts"
	MedalPolicyFractions MedalPolicyKind = "fractions"
)

type Rounding string

const (
	RoundingCeil    Rounding = "ceil"
	RoundingFloor   Rounding = "floor"
	RoundingNearest Rounding = "round"
)

var (
	MedalTitles = [3]string{"Gold", "Silver", "Bronze"}
	MedalStyles = [3]string{"gold", "silver", "bronze"}
)

// MedalPolicy decides how many teams of a series get each medal.
type MedalPolicy struct {
	Kind      MedalPolicyKind
	Counts    [3]int
	Fractions [3]float64
	Rounding  Rounding

	// At or above LargePopulationThreshold scoring teams, fractions give way
	// to LargePopulationCounts. Zero disables the switch.
	LargePopulationThreshold int
	LargePopulationCounts    [3]int

	// Fewer scoring teams than this and nobody gets a medal.
	MinScoringTeams int

	// Reference names an earlier series. Tier k of this series only keeps
	// teams solving at least the last tier-k team of the reference minus
	// MaxSolvedGap.
	Reference    string
	MaxSolvedGap int
}

// ICPCMedalPolicy is the regional preset: 10/20/30 percent of scoring teams,
// rounded up, with world-final style 24/48/72 quotas from 240 teams on.
func ICPCMedalPolicy() MedalPolicy {
	return MedalPolicy{
		Kind:                     MedalPolicyFractions,
		Fractions:                [3]float64{0.1, 0.2, 0.3},
		Rounding:                 RoundingCeil,
		LargePopulationThreshold: 240,
		LargePopulationCounts:    [3]int{24, 48, 72},
		MinScoringTeams:          1,
	}
}

func (p MedalPolicy) Validate() error {
	switch p.Kind {
	case MedalPolicyCounts:
		for _, c := range p.Counts {
			if c < 0 {
				return errors.New("medal counts must not be negative")
			}
		}
	case MedalPolicyFractions:
		for _, f := range p.Fractions {
			if f < 0 || f > 1 {
				return fmt.Errorf("medal fraction %v out of range", f)
			}
		}
		switch p.Rounding {
		case "", RoundingCeil, RoundingFloor, RoundingNearest:
		default:
			return fmt.Errorf("unknown rounding %q", p.Rounding)
		}
	default:
		return fmt.Errorf("unknown medal policy kind %q", p.Kind)
	}
	if p.MinScoringTeams < 0 || p.LargePopulationThreshold < 0 || p.MaxSolvedGap < 0 {
		return errors.New("medal thresholds must not be negative")
	}
	return nil
}

// cumulativeEnds returns the nominal end index of each tier counted from the
// top of the list, so gold ends at g, silver at g+s and bronze at g+s+b.
// Fractions are summed before rounding.
func (p MedalPolicy) cumulativeEnds(scoring int) [3]int {
	if p.Kind == MedalPolicyCounts {
		return runningSum(p.Counts)
	}
	if p.LargePopulationThreshold > 0 && scoring >= p.LargePopulationThreshold {
		return runningSum(p.LargePopulationCounts)
	}

	var out [3]int
	total := 0.0
	for i, f := range p.Fractions {
		total += f
		x := float64(scoring) * total
		switch p.Rounding {
		case RoundingFloor:
			x = math.Floor(x + 1e-9)
		case RoundingNearest:
			x = math.Round(x)
		default:
			// Guard against 0.1*30 landing a hair above 3.
			x = math.Ceil(x - 1e-9)
		}
		out[i] = int(x)
	}
	return out
}

func runningSum(counts [3]int) [3]int {
	var out [3]int
	sum := 0
	for i, c := range counts {
		sum += c
		out[i] = sum
	}
	return out
}

// RankKey is the primary ordering key. Teams sharing one are tied.
type RankKey struct {
	Solved         int
	PenaltySeconds int64
}

func KeyOf(e ScoreboardEntry) RankKey {
	return RankKey{Solved: e.Solved, PenaltySeconds: e.PenaltySeconds}
}

// MedalCutoffs are cumulative end indices: gold is [0,Gold), silver
// [Gold,Silver), bronze [Silver,Bronze).
type MedalCutoffs struct {
	Gold   int
	Silver int
	Bronze int
}

func (c MedalCutoffs) Counts() [3]int {
	return [3]int{c.Gold, c.Silver - c.Gold, c.Bronze - c.Silver}
}

// Segment returns the medal tier of position i.
func (c MedalCutoffs) Segment(i int) (int, bool) {
	switch {
	case i < 0:
		return 0, false
	case i < c.Gold:
		return 0, true
	case i < c.Silver:
		return 1, true
	case i < c.Bronze:
		return 2, true
	default:
		return 0, false
	}
}

func (c MedalCutoffs) cuts() [3]int { return [3]int{c.Gold, c.Silver, c.Bronze} }

// AllocateMedals computes cutoffs over keys, which must be in series order.
// Only the leading teams with at least one solve are eligible.
func AllocateMedals(keys []RankKey, policy MedalPolicy) MedalCutoffs {
	scoring := 0
	for scoring < len(keys) && keys[scoring].Solved > 0 {
		scoring++
	}
	if scoring == 0 || scoring < policy.MinScoringTeams {
		return MedalCutoffs{}
	}
	eligible := keys[:scoring]

	// Each end is placed on its own. A tie pushed past the gold end eats into
	// silver instead of shifting bronze down.
	var cuts [3]int
	prev := 0
	for k, end := range policy.cumulativeEnds(scoring) {
		cuts[k] = max(advanceCutoff(eligible, end), prev)
		prev = cuts[k]
	}
	return MedalCutoffs{Gold: cuts[0], Silver: cuts[1], Bronze: cuts[2]}
}

// advanceCutoff moves idx forward until it no longer splits a tie group.
func advanceCutoff(keys []RankKey, idx int) int {
	if idx > len(keys) {
		idx = len(keys)
	}
	for idx > 0 && idx < len(keys) && keys[idx-1] == keys[idx] {
		idx++
	}
	return idx
}

// constrainToFloors pulls each cutoff back until the last team of the tier
// solved at least floors[k]. Solve counts are non-increasing in series order,
// so a pull-back removes whole tie groups.
func constrainToFloors(c MedalCutoffs, keys []RankKey, floors [3]*int) MedalCutoffs {
	cuts := c.cuts()
	lower := 0
	for k := range cuts {
		if floors[k] != nil {
			for cuts[k] > lower && keys[cuts[k]-1].Solved < *floors[k] {
				cuts[k]--
			}
		}
		lower = cuts[k]
	}
	return MedalCutoffs{Gold: cuts[0], Silver: cuts[1], Bronze: cuts[2]}
}

// tierFloors returns, per tier, the solve count of the last medalist of
// reference minus gap. Empty tiers impose nothing.
func tierFloors(reference SeriesStanding, gap int) [3]*int {
	var floors [3]*int
	start := 0
	for k, end := range reference.Medals.cuts() {
		if end > start {
			f := reference.Members[end-1].Solved - gap
			floors[k] = &f
		}
		start = end
	}
	return floors
}
