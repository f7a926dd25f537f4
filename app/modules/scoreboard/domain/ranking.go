package scoreboarddomain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SeriesRule narrows the global order for one series. The zero value admits everyone.
type SeriesRule struct {
	OfficialOnly         bool
	UniqueByOrganization bool
	Marker               MarkerID
}

func (r SeriesRule) admits(t Team) bool {
	if r.OfficialOnly && !t.Official {
		return false
	}
	if r.Marker != "" && !t.HasMarker(r.Marker) {
		return false
	}
	return true
}

// SeriesDefinition is a named ranking view.
type SeriesDefinition struct {
	Title  string
	Rule   SeriesRule
	Medals *MedalPolicy
}

// compareEntries orders by solved desc, penalty asc, then name and id for a
// stable presentation order. Only the first two affect rank numbers.
func compareEntries(a, b ScoreboardEntry) int {
	if c := cmp.Compare(b.Solved, a.Solved); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PenaltySeconds, b.PenaltySeconds); c != 0 {
		return c
	}
	if c := strings.Compare(a.Team.Name, b.Team.Name); c != 0 {
		return c
	}
	return strings.Compare(string(a.Team.ID), string(b.Team.ID))
}

// SortEntries returns a sorted copy of entries in global order.
func SortEntries(entries []ScoreboardEntry) []ScoreboardEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, compareEntries)
	return out
}

// SeriesStanding is one series evaluated against the global order.
type SeriesStanding struct {
	Definition SeriesDefinition
	Members    []ScoreboardEntry
	Ranks      []int
	Medals     MedalCutoffs
	position   map[TeamID]int
}

// Rank returns the team's rank and medal tier in this series. ok is false
// when the series excludes the team; segment is -1 without a medal.
func (s SeriesStanding) Rank(team TeamID) (rank, segment int, ok bool) {
	i, ok := s.position[team]
	if !ok {
		return 0, -1, false
	}
	segment = -1
	if seg, medal := s.Medals.Segment(i); medal {
		segment = seg
	}
	return s.Ranks[i], segment, true
}

// Standings is the ranked board: the global order plus every series.
type Standings struct {
	Entries []ScoreboardEntry
	Series  []SeriesStanding
}

// ComputeStandings sorts once and derives every series from that order.
func ComputeStandings(entries []ScoreboardEntry, defs []SeriesDefinition) (Standings, error) {
	sorted := SortEntries(entries)
	out := Standings{Entries: sorted, Series: make([]SeriesStanding, 0, len(defs))}

	for i, def := range defs {
		s := buildSeries(sorted, def)
		if def.Medals != nil {
			keys := make([]RankKey, len(s.Members))
			for j, m := range s.Members {
				keys[j] = KeyOf(m)
			}
			s.Medals = AllocateMedals(keys, *def.Medals)

			if ref := def.Medals.Reference; ref != "" {
				j := slices.IndexFunc(out.Series, func(prev SeriesStanding) bool {
					return prev.Definition.Title == ref
				})
				if j < 0 {
					return Standings{}, fmt.Errorf("series %d (%q): reference %q must name an earlier series", i, def.Title, ref)
				}
				s.Medals = constrainToFloors(s.Medals, keys, tierFloors(out.Series[j], def.Medals.MaxSolvedGap))
			}
		}
		out.Series = append(out.Series, s)
	}
	return out, nil
}

func buildSeries(sorted []ScoreboardEntry, def SeriesDefinition) SeriesStanding {
	s := SeriesStanding{Definition: def, position: make(map[TeamID]int)}
	seenOrg := make(map[string]struct{})

	for _, e := range sorted {
		if !def.Rule.admits(e.Team) {
			continue
		}
		if def.Rule.UniqueByOrganization && e.Team.Organization != "" {
			if _, seen := seenOrg[e.Team.Organization]; seen {
				continue
			}
			seenOrg[e.Team.Organization] = struct{}{}
		}
		s.position[e.Team.ID] = len(s.Members)
		s.Members = append(s.Members, e)
	}

	s.Ranks = make([]int, len(s.Members))
	for i := range s.Members {
		if i > 0 && KeyOf(s.Members[i-1]) == KeyOf(s.Members[i]) {
			s.Ranks[i] = s.Ranks[i-1]
		} else {
			s.Ranks[i] = i + 1
		}
	}
	return s
}
