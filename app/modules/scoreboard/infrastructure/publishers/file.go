package scoreboardpublishers

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// FileSink writes ranking.json and scroll.json into Dir. Readers polling the
// files never see a partial write.
type FileSink struct {
	Dir         string
	RankingName string
	ScrollName  string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, RankingName: "ranking.json", ScrollName: "scroll.json"}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Publish(_ context.Context, snap scoreboarddomain.Snapshot) error {
	docs, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.Dir, err)
	}
	if err := WriteFileAtomic(filepath.Join(s.Dir, cmp.Or(s.RankingName, "ranking.json")), docs.Ranking); err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(s.Dir, cmp.Or(s.ScrollName, "scroll.json")), docs.Scroll)
}

// WriteFileAtomic writes to a temp file beside path, syncs it and renames it
// over path.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
