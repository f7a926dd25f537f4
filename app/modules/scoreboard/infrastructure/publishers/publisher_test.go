package scoreboardpublishers

import (
	"context"
	"errors"
	"testing"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	errDown := errors.New("down")

	tests := []struct {
		name      string
		failing   map[string]bool
		wantErr   bool
		wantSinks []string
	}{
		{
			name:      "all sinks succeed",
			wantSinks: []string{"first", "second", "third"},
		},
		{
			name:      "a failing sink does not stop the others",
			failing:   map[string]bool{"second": true},
			wantErr:   true,
			wantSinks: []string{"first", "second", "third"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called []string
			var sinks []Sink
			for _, name := range []string{"first", "second", "third"} {
				sinks = append(sinks, &FakeSink{
					NameValue: name,
					PublishFunc: func(context.Context, scoreboarddomain.Snapshot) error {
						called = append(called, name)
						if tt.failing[name] {
							return errDown
						}
						return nil
					},
				})
			}

			p := NewPublisher(testLogger(), observability.NoOpMetrics{}, sinks...)
			err := p.Publish(context.Background(), testSnapshot())
			if tt.wantErr {
				require.ErrorIs(t, err, errDown)
				assert.ErrorContains(t, err, "sink second")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantSinks, called)
		})
	}
}

func TestEncode(t *testing.T) {
	docs, err := Encode(testSnapshot())
	require.NoError(t, err)
	assert.Contains(t, string(docs.Ranking), `"type":"general"`)
	assert.JSONEq(t, `{"updatedAt":1760263200,"rows":[]}`, string(docs.Scroll))
}
