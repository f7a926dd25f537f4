package scoreboardroster

import (
	"fmt"
	"os"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"gopkg.in/yaml.v3"
)

type yamlRoster struct {
	Problems []yamlProblem `yaml:"problems"`
	Markers  []yamlMarker  `yaml:"markers"`
	Teams    []yamlTeam    `yaml:"teams"`
}

type yamlProblem struct {
	ID    string     `yaml:"id"`
	Alias string     `yaml:"alias"`
	Color string     `yaml:"color"`
	Style *yamlStyle `yaml:"style"`
}

type yamlStyle struct {
	TextColor       string `yaml:"textColor"`
	BackgroundColor string `yaml:"backgroundColor"`
}

type yamlMarker struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Style string `yaml:"style"`
}

type yamlTeam struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Organization string   `yaml:"organization"`
	Members      []string `yaml:"members"`
	Coach        string   `yaml:"coach"`
	Official     *bool    `yaml:"official"`
	Markers      []string `yaml:"markers"`
}

func LoadYAML(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	roster, err := ParseYAML(data)
	if err != nil {
		return Roster{}, fmt.Errorf("roster %s: %w", path, err)
	}
	return roster, nil
}

// ParseYAML decodes a roster. Teams are official unless they say otherwise;
// a problem colour may be given by name, by hex, or as an explicit style.
func ParseYAML(data []byte) (Roster, error) {
	var doc yamlRoster
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Roster{}, fmt.Errorf("failed to parse roster: %w", err)
	}

	var r Roster
	for i, p := range doc.Problems {
		problem := scoreboarddomain.Problem{ID: scoreboarddomain.ProblemID(p.ID), Alias: p.Alias}
		switch {
		case p.Style != nil:
			problem.Style = &scoreboarddomain.ProblemStyle{TextColor: p.Style.TextColor, BackgroundColor: p.Style.BackgroundColor}
		case p.Color != "":
			style, err := scoreboarddomain.NewProblemStyle(p.Color)
			if err != nil {
				return Roster{}, fmt.Errorf("problem %d (%s): %w", i, p.ID, err)
			}
			problem.Style = style
		}
		r.Problems = append(r.Problems, problem)
	}

	for _, m := range doc.Markers {
		r.Markers = append(r.Markers, scoreboarddomain.Marker{ID: scoreboarddomain.MarkerID(m.ID), Label: m.Label, Style: m.Style})
	}

	for _, t := range doc.Teams {
		team := scoreboarddomain.Team{
			ID:           scoreboarddomain.TeamID(t.ID),
			Name:         t.Name,
			Organization: t.Organization,
			Members:      t.Members,
			Coach:        t.Coach,
			Official:     t.Official == nil || *t.Official,
		}
		for _, m := range t.Markers {
			team.Markers = append(team.Markers, scoreboarddomain.MarkerID(m))
		}
		r.Teams = append(r.Teams, team)
	}
	return r, nil
}
