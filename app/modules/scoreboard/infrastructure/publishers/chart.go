package scoreboardpublishers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartBarWidth   = 40
	chartBarSpacing = 30
	chartHeight     = 400
)

var defaultBarColor = drawing.ColorFromHex("4a90d9")

// RenderStatisticsChart draws accepted counts per problem as a PNG bar chart.
// Each label carries accepted/submitted.
func RenderStatisticsChart(title string, stats []scoreboarddomain.ProblemStatistics) ([]byte, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("no problems to chart")
	}

	bars := make([]chart.Value, 0, len(stats))
	top := 1.0
	for _, st := range stats {
		color := defaultBarColor
		if st.Problem.Style != nil {
			if hex := strings.TrimPrefix(st.Problem.Style.BackgroundColor, "#"); len(hex) == 6 {
				color = drawing.ColorFromHex(hex)
			}
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s %d/%d", st.Problem.Alias, st.Accepted, st.Submitted),
			Value: float64(st.Accepted),
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: drawing.ColorBlack,
				StrokeWidth: 1,
			},
		})
		top = max(top, float64(st.Accepted))
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      len(bars)*(chartBarWidth+chartBarSpacing) + 200,
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// ChartSink keeps a statistics PNG on disk.
type ChartSink struct {
	Path string
}

func NewChartSink(path string) *ChartSink { return &ChartSink{Path: path} }

func (s *ChartSink) Name() string { return "chart" }

func (s *ChartSink) Publish(_ context.Context, snap scoreboarddomain.Snapshot) error {
	png, err := RenderStatisticsChart(snap.Ranking.Contest.Title, snap.Statistics)
	if err != nil {
		return fmt.Errorf("render statistics chart: %w", err)
	}
	return WriteFileAtomic(s.Path, png)
}
