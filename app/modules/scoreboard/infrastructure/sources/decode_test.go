package scoreboardsources

import (
	"testing"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_DecodeBatch(t *testing.T) {
	tests := []struct {
		name    string
		fields  FieldMapping
		unit    TimestampUnit
		body    string
		wantIDs []int64
		check   func(t *testing.T, first scoreboarddomain.RawSubmission)
		wantErr bool
	}{
		{
			name:    "plain array in seconds, sorted by id",
			body:    `[{"id":2,"team_id":"t1","problem_id":"A","status":"AC","submitted_at":1760263325},{"id":1,"team_id":"t2","problem_id":"B","status":"WA","submitted_at":1760263200}]`,
			wantIDs: []int64{1, 2},
			check: func(t *testing.T, first scoreboarddomain.RawSubmission) {
				assert.Equal(t, "t2", first.TeamID)
				assert.Equal(t, time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC), first.Timestamp)
			},
		},
		{
			name:    "wrapped object with custom field names in milliseconds",
			fields:  FieldMapping{ID: "solutionId", Team: "userId", Problem: "problemId", Status: "result", Timestamp: "createdAt"},
			unit:    TimestampMillis,
			body:    `{"submissions":[{"solutionId":"17","userId":42,"problemId":1001,"result":4,"createdAt":1760263200500}]}`,
			wantIDs: []int64{17},
			check: func(t *testing.T, first scoreboarddomain.RawSubmission) {
				assert.Equal(t, "42", first.TeamID)
				assert.Equal(t, "1001", first.ProblemRef)
				assert.Equal(t, "4", first.Status)
				assert.Equal(t, int64(1760263200500), first.Timestamp.UnixMilli())
			},
		},
		{
			name:    "rfc3339 timestamps",
			unit:    TimestampRFC3339,
			body:    `[{"id":5,"team_id":"t1","problem_id":"A","status":"AC","submitted_at":"2025-10-12T10:00:00+08:00"}]`,
			wantIDs: []int64{5},
			check: func(t *testing.T, first scoreboarddomain.RawSubmission) {
				assert.True(t, first.Timestamp.Equal(time.Date(2025, 10, 12, 2, 0, 0, 0, time.UTC)))
			},
		},
		{
			name:    "missing status decodes empty",
			body:    `[{"id":1,"team_id":"t1","problem_id":"A","submitted_at":0}]`,
			wantIDs: []int64{1},
			check: func(t *testing.T, first scoreboarddomain.RawSubmission) {
				assert.Empty(t, first.Status)
			},
		},
		{
			name:    "missing team is an error",
			body:    `[{"id":1,"problem_id":"A","status":"AC","submitted_at":0}]`,
			wantErr: true,
		},
		{
			name:    "non-positive id is an error",
			body:    `[{"id":0,"team_id":"t1","problem_id":"A","status":"AC","submitted_at":0}]`,
			wantErr: true,
		},
		{
			name:    "garbage is an error",
			body:    `<html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(tt.fields, tt.unit, nil)
			require.NoError(t, err)

			subs, err := d.DecodeBatch([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := make([]int64, len(subs))
			for i, s := range subs {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
			if tt.check != nil {
				tt.check(t, subs[0])
			}
		})
	}
}

func TestNewDecoder_RejectsUnknownUnit(t *testing.T) {
	_, err := NewDecoder(FieldMapping{}, "fortnights", nil)
	require.Error(t, err)
}
