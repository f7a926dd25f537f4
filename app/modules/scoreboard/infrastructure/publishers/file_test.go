package scoreboardpublishers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_Publish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public")
	sink := NewFileSink(dir)

	require.NoError(t, sink.Publish(context.Background(), testSnapshot()))

	data, err := os.ReadFile(filepath.Join(dir, "ranking.json"))
	require.NoError(t, err)
	var doc scoreboarddomain.RankingDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Regional 2025", doc.Contest.Title)
	assert.Len(t, doc.Rows, 2)

	data, err = os.ReadFile(filepath.Join(dir, "scroll.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"updatedAt":1760263200,"rows":[]}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.json")
	require.NoError(t, WriteFileAtomic(path, []byte("old")))
	require.NoError(t, WriteFileAtomic(path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "ranking.json"), []byte("x"))
	require.Error(t, err)
}
