package scoreboard

import (
	"testing"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/config"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedalPolicy(t *testing.T) {
	zero := 0

	tests := []struct {
		name    string
		cfg     config.MedalsConfig
		want    scoreboarddomain.MedalPolicy
		wantErr bool
	}{
		{
			name: "icpc preset",
			cfg:  config.MedalsConfig{Preset: "icpc"},
			want: scoreboarddomain.ICPCMedalPolicy(),
		},
		{
			name: "preset with floor rounding and a reference",
			cfg:  config.MedalsConfig{Preset: "ratio", Rounding: "floor", Reference: "Pro", MaxSolvedGap: 1},
			want: func() scoreboarddomain.MedalPolicy {
				p := scoreboarddomain.ICPCMedalPolicy()
				p.Rounding = scoreboarddomain.RoundingFloor
				p.Reference = "Pro"
				p.MaxSolvedGap = 1
				return p
			}(),
		},
		{
			name: "fixed counts",
			cfg:  config.MedalsConfig{Counts: [3]int{4, 8, 12}, MinScoringTeams: &zero},
			want: scoreboarddomain.MedalPolicy{
				Kind:   scoreboarddomain.MedalPolicyCounts,
				Counts: [3]int{4, 8, 12},
			},
		},
		{
			name: "fractions",
			cfg:  config.MedalsConfig{Fractions: [3]float64{0.05, 0.1, 0.15}},
			want: scoreboarddomain.MedalPolicy{
				Kind:            scoreboarddomain.MedalPolicyFractions,
				Fractions:       [3]float64{0.05, 0.1, 0.15},
				MinScoringTeams: 1,
			},
		},
		{name: "unknown preset", cfg: config.MedalsConfig{Preset: "olympic"}, wantErr: true},
		{name: "no kind", cfg: config.MedalsConfig{}, wantErr: true},
		{name: "fraction out of range", cfg: config.MedalsConfig{Fractions: [3]float64{2, 0, 0}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := medalPolicy(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("medalPolicy() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSeries(t *testing.T) {
	defs, err := buildSeries([]config.SeriesConfig{
		{Title: "Official", Rule: config.SeriesRule{OfficialOnly: true}, Medals: &config.MedalsConfig{Preset: "icpc"}},
		{Title: "Female", Rule: config.SeriesRule{Marker: "female"}},
	})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.True(t, defs[0].Rule.OfficialOnly)
	require.NotNil(t, defs[0].Medals)
	assert.Nil(t, defs[1].Medals)
	assert.Equal(t, scoreboarddomain.MarkerID("female"), defs[1].Rule.Marker)
}

func TestBuildContest(t *testing.T) {
	now := time.Date(2025, 10, 12, 6, 0, 0, 0, time.UTC)

	contest, err := buildContest(config.ContestConfig{
		ID:             "c",
		Title:          "C",
		StartAt:        "2025-10-12 09:00:00",
		Timezone:       "UTC",
		Duration:       5 * time.Hour,
		FrozenDuration: time.Hour,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC), contest.StartAt)
	assert.Equal(t, time.Date(2025, 10, 12, 14, 0, 0, 0, time.UTC), contest.EndAt())

	_, err = buildContest(config.ContestConfig{ID: "c", StartAt: "2025-10-12T09:00:00Z"}, now)
	assert.Error(t, err, "zero duration")
}
