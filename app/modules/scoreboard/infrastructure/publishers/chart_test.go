package scoreboardpublishers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderStatisticsChart(t *testing.T) {
	png, err := RenderStatisticsChart("Regional 2025", testSnapshot().Statistics)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = RenderStatisticsChart("empty", nil)
	require.Error(t, err)
}

func TestChartSink_Publish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.png")
	require.NoError(t, NewChartSink(path).Publish(context.Background(), testSnapshot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}
