package scoreboardroster

import (
	"path/filepath"
	"testing"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "teams.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadTeamsXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"ID", "School", "Team Name", "Coach", "Member1", "Member2", "Member3", "Female", "Remark"},
		{"t1", "North", "Alpha", "ca", "a1", "a2", "a3", "", ""},
		{"t2", "South", "Bravo", "", "b1", "b2", "", "yes", ""},
		{"t3", "East", "Charlie", "cc", "c1", "", "", "", "打星"},
		{"", "", "", "", "", "", "", "", ""},
		{"t4", "West", "Delta", "", "d1", "", "", "", "女队"},
	})

	teams, err := LoadTeamsXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, teams, 4)

	assert.Equal(t, scoreboarddomain.Team{
		ID:           "t1",
		Name:         "Alpha",
		Organization: "North",
		Members:      []string{"a1", "a2", "a3"},
		Coach:        "ca",
		Official:     true,
	}, teams[0])

	assert.True(t, teams[1].HasMarker(FemaleMarker))
	assert.Equal(t, []string{"b1", "b2"}, teams[1].Members)
	assert.False(t, teams[2].Official)
	assert.True(t, teams[3].HasMarker(FemaleMarker))
	assert.True(t, teams[3].Official)
}

func TestLoadTeamsXLSX_OfficialColumn(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"id", "name", "official", "markers"},
		{"t1", "Alpha", "0", "girls, rookie"},
		{"t2", "Bravo", "true", ""},
	})

	teams, err := LoadTeamsXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.False(t, teams[0].Official)
	assert.Equal(t, []scoreboarddomain.MarkerID{"girls", "rookie"}, teams[0].Markers)
	assert.True(t, teams[1].Official)
}

func TestLoadTeamsXLSX_Errors(t *testing.T) {
	t.Run("no id column", func(t *testing.T) {
		path := writeWorkbook(t, [][]any{{"name"}, {"Alpha"}})
		_, err := LoadTeamsXLSX(path, "")
		require.ErrorContains(t, err, `"id"`)
	})
	t.Run("missing name", func(t *testing.T) {
		path := writeWorkbook(t, [][]any{{"id", "name"}, {"t1", ""}})
		_, err := LoadTeamsXLSX(path, "")
		require.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTeamsXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), "")
		require.Error(t, err)
	})
}
