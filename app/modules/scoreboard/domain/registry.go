package scoreboarddomain

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type (
	TeamID    string
	ProblemID string
	MarkerID  string
)

// Team is immutable for the duration of a contest run.
type Team struct {
	ID           TeamID
	Name         string
	Organization string
	Members      []string
	Coach        string
	Official     bool
	Markers      []MarkerID
}

func (t Team) HasMarker(id MarkerID) bool {
	return slices.Contains(t.Markers, id)
}

// ProblemStyle is the balloon colour of a problem.
type ProblemStyle struct {
	TextColor       string `json:"textColor"`
	BackgroundColor string `json:"backgroundColor"`
}

type Problem struct {
	ID    ProblemID
	Alias string
	Style *ProblemStyle
}

type Marker struct {
	ID    MarkerID
	Label string
	Style string
}

// Registry is the static roster of one contest.
type Registry struct {
	teams        []Team
	teamIndex    map[TeamID]int
	problems     []Problem
	problemIndex map[ProblemID]int
	aliasIndex   map[string]int
	markers      []Marker
}

// NewRegistry validates the roster. Team and problem ids must be unique,
// aliases must be unique, and every marker a team carries must be declared.
func NewRegistry(teams []Team, problems []Problem, markers []Marker) (*Registry, error) {
	if len(problems) == 0 {
		return nil, errors.New("roster has no problems")
	}

	r := &Registry{
		teams:        slices.Clone(teams),
		teamIndex:    make(map[TeamID]int, len(teams)),
		problems:     slices.Clone(problems),
		problemIndex: make(map[ProblemID]int, len(problems)),
		aliasIndex:   make(map[string]int, len(problems)),
		markers:      slices.Clone(markers),
	}

	declared := make(map[MarkerID]struct{}, len(markers))
	for _, m := range markers {
		if m.ID == "" {
			return nil, errors.New("marker with empty id")
		}
		declared[m.ID] = struct{}{}
	}

	for i, p := range r.problems {
		if p.ID == "" {
			return nil, fmt.Errorf("problem %d has empty id", i)
		}
		if p.Alias == "" {
			r.problems[i].Alias = string(p.ID)
			p.Alias = string(p.ID)
		}
		if _, dup := r.problemIndex[p.ID]; dup {
			return nil, fmt.Errorf("duplicate problem id %q", p.ID)
		}
		if _, dup := r.aliasIndex[p.Alias]; dup {
			return nil, fmt.Errorf("duplicate problem alias %q", p.Alias)
		}
		r.problemIndex[p.ID] = i
		r.aliasIndex[p.Alias] = i
	}

	for i, t := range r.teams {
		if t.ID == "" {
			return nil, fmt.Errorf("team %d has empty id", i)
		}
		if _, dup := r.teamIndex[t.ID]; dup {
			return nil, fmt.Errorf("duplicate team id %q", t.ID)
		}
		for _, m := range t.Markers {
			if _, ok := declared[m]; !ok {
				return nil, fmt.Errorf("team %q references undeclared marker %q", t.ID, m)
			}
		}
		r.teamIndex[t.ID] = i
	}

	return r, nil
}

func (r *Registry) Team(id TeamID) (Team, bool) {
	i, ok := r.teamIndex[id]
	if !ok {
		return Team{}, false
	}
	return r.teams[i], true
}

// Teams returns the roster in load order. Callers must not modify it.
func (r *Registry) Teams() []Team { return r.teams }

func (r *Registry) Problems() []Problem { return r.problems }

func (r *Registry) Markers() []Marker { return r.markers }

// ResolveProblem finds a problem by internal id first, then by alias.
// Numeric references that match neither are treated as 1-based positions,
// which is how some judges label problems.
func (r *Registry) ResolveProblem(ref string) (int, Problem, bool) {
	ref = strings.TrimSpace(ref)
	if i, ok := r.problemIndex[ProblemID(ref)]; ok {
		return i, r.problems[i], true
	}
	if i, ok := r.aliasIndex[ref]; ok {
		return i, r.problems[i], true
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(r.problems) {
		return n - 1, r.problems[n-1], true
	}
	return -1, Problem{}, false
}

// MissingRosterEntryError is returned for submissions naming a team or
// problem the roster does not know.
type MissingRosterEntryError struct {
	SubmissionID int64
	Kind         string
	Ref          string
}

func (e *MissingRosterEntryError) Error() string {
	return fmt.Sprintf("submission %d references unknown %s %q", e.SubmissionID, e.Kind, e.Ref)
}

var namedColors = map[string]string{
	"red":    "#ff0000",
	"orange": "#ff8c00",
	"yellow": "#ffd700",
	"green":  "#2e8b57",
	"cyan":   "#00ced1",
	"blue":   "#1e90ff",
	"purple": "#8a2be2",
	"pink":   "#ff69b4",
	"brown":  "#8b4513",
	"black":  "#000000",
	"white":  "#ffffff",
	"gray":   "#808080",
	"grey":   "#808080",
	"gold":   "#daa520",
	"silver": "#c0c0c0",
}

// NewProblemStyle derives a readable text colour for a balloon colour given
// as a name or a #rrggbb hex string. It returns nil for an empty colour.
func NewProblemStyle(color string) (*ProblemStyle, error) {
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		return nil, nil
	}
	if hex, ok := namedColors[color]; ok {
		color = hex
	}
	if len(color) != 7 || color[0] != '#' {
		return nil, fmt.Errorf("invalid colour %q", color)
	}
	rgb, err := strconv.ParseUint(color[1:], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", color, err)
	}

	red := float64((rgb >> 16) & 0xff)
	green := float64((rgb >> 8) & 0xff)
	blue := float64(rgb & 0xff)
	text := "#ffffff"
	if 0.299*red+0.587*green+0.114*blue > 160 {
		text = "#000000"
	}
	return &ProblemStyle{TextColor: text, BackgroundColor: color}, nil
}
