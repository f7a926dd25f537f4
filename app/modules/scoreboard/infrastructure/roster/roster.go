package scoreboardroster

import (
	"fmt"
	"path/filepath"
	"strings"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// FemaleMarker is added to teams flagged as female in a spreadsheet roster.
const FemaleMarker scoreboarddomain.MarkerID = "female"

// Roster is the loaded, not yet validated, contest roster.
type Roster struct {
	Teams    []scoreboarddomain.Team
	Problems []scoreboarddomain.Problem
	Markers  []scoreboarddomain.Marker
}

// Registry validates the roster.
func (r Roster) Registry() (*scoreboarddomain.Registry, error) {
	return scoreboarddomain.NewRegistry(r.Teams, r.Problems, r.Markers)
}

// WithTeams replaces the teams and declares any marker the teams use that the
// roster does not, so spreadsheet flags need no YAML counterpart.
func (r Roster) WithTeams(teams []scoreboarddomain.Team) Roster {
	r.Teams = teams

	declared := make(map[scoreboarddomain.MarkerID]struct{}, len(r.Markers))
	for _, m := range r.Markers {
		declared[m.ID] = struct{}{}
	}
	for _, t := range teams {
		for _, id := range t.Markers {
			if _, ok := declared[id]; ok {
				continue
			}
			declared[id] = struct{}{}
			r.Markers = append(r.Markers, defaultMarker(id))
		}
	}
	return r
}

func defaultMarker(id scoreboarddomain.MarkerID) scoreboarddomain.Marker {
	if id == FemaleMarker {
		return scoreboarddomain.Marker{ID: id, Label: "Female team", Style: "pink"}
	}
	return scoreboarddomain.Marker{ID: id, Label: string(id), Style: "blue"}
}

// Load reads a YAML roster and, when teamsPath is set, takes the teams from
// that file instead. teamsPath may be YAML or XLSX.
func Load(path, teamsPath string) (Roster, error) {
	roster, err := LoadYAML(path)
	if err != nil {
		return Roster{}, err
	}
	if teamsPath == "" {
		return roster, nil
	}

	switch strings.ToLower(filepath.Ext(teamsPath)) {
	case ".xlsx", ".xlsm":
		teams, err := LoadTeamsXLSX(teamsPath, "")
		if err != nil {
			return Roster{}, err
		}
		return roster.WithTeams(teams), nil
	case ".yaml", ".yml":
		other, err := LoadYAML(teamsPath)
		if err != nil {
			return Roster{}, err
		}
		return roster.WithTeams(other.Teams), nil
	default:
		return Roster{}, fmt.Errorf("unsupported team roster format %q", teamsPath)
	}
}
