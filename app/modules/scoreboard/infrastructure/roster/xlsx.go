package scoreboardroster

import (
	"fmt"
	"strings"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/xuri/excelize/v2"
)

// column aliases accepted in the header row, compared case-insensitively.
var headerAliases = map[string]string{
	"id":           "id",
	"team id":      "id",
	"队伍编号":         "id",
	"organization": "organization",
	"school":       "organization",
	"学校":           "organization",
	"name":         "name",
	"team":         "name",
	"team name":    "name",
	"队名":           "name",
	"coach":        "coach",
	"教练":           "coach",
	"member":       "member",
	"member1":      "member",
	"member2":      "member",
	"member3":      "member",
	"队员":           "member",
	"official":     "official",
	"markers":      "markers",
	"female":       "female",
	"remark":       "remark",
	"note":         "remark",
	"备注":           "remark",
}

// LoadTeamsXLSX reads teams from a school-roster spreadsheet. The first row
// is the header; columns are found by name. sheet defaults to the first one.
func LoadTeamsXLSX(path, sheet string) ([]scoreboarddomain.Team, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("XLSX file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return parseTeamRows(rows)
}

type teamColumns struct {
	single  map[string]int
	members []int
}

func (c teamColumns) cell(row []string, name string) string {
	idx, ok := c.single[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func findColumns(header []string) (teamColumns, error) {
	cols := teamColumns{single: make(map[string]int)}
	for i, h := range header {
		name, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if name == "member" {
			cols.members = append(cols.members, i)
			continue
		}
		if _, dup := cols.single[name]; !dup {
			cols.single[name] = i
		}
	}
	for _, required := range []string{"id", "name"} {
		if _, ok := cols.single[required]; !ok {
			return cols, fmt.Errorf("header row has no %q column", required)
		}
	}
	return cols, nil
}

func parseTeamRows(rows [][]string) ([]scoreboarddomain.Team, error) {
	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var teams []scoreboarddomain.Team
	for i, row := range rows[1:] {
		id := cols.cell(row, "id")
		if id == "" {
			continue
		}

		team := scoreboarddomain.Team{
			ID:           scoreboarddomain.TeamID(id),
			Name:         cols.cell(row, "name"),
			Organization: cols.cell(row, "organization"),
			Coach:        cols.cell(row, "coach"),
			Official:     true,
		}
		if team.Name == "" {
			return nil, fmt.Errorf("row %d: team %s has no name", i+2, id)
		}
		for _, idx := range cols.members {
			if idx < len(row) {
				if m := strings.TrimSpace(row[idx]); m != "" {
					team.Members = append(team.Members, m)
				}
			}
		}

		if v := cols.cell(row, "official"); v != "" {
			team.Official = truthy(v)
		}
		for _, m := range strings.FieldsFunc(cols.cell(row, "markers"), isListSeparator) {
			team.Markers = append(team.Markers, scoreboarddomain.MarkerID(m))
		}
		female := truthy(cols.cell(row, "female"))

		switch strings.ToLower(cols.cell(row, "remark")) {
		case "打星", "star", "unofficial":
			team.Official = false
		case "女队", "female":
			female = true
		}
		if female && !team.HasMarker(FemaleMarker) {
			team.Markers = append(team.Markers, FemaleMarker)
		}

		teams = append(teams, team)
	}
	return teams, nil
}

func isListSeparator(r rune) bool {
	return r == ',' || r == ';' || r == ' ' || r == '，'
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "x", "✓", "是":
		return true
	}
	return false
}
