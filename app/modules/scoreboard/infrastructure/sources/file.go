package scoreboardsources

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// FileSource reads a JSON Lines file, one submission per line. The file is
// re-read on every fetch so it can be appended to while a contest runs.
type FileSource struct {
	name    string
	path    string
	decoder Decoder
}

func NewFileSource(name, path string, decoder Decoder) *FileSource {
	return &FileSource{name: name, path: path, decoder: decoder}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Fetch(ctx context.Context, afterID int64, limit int) ([]scoreboarddomain.RawSubmission, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var subs []scoreboarddomain.RawSubmission
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		sub, err := s.decoder.DecodeRecord(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, line, err)
		}
		subs = append(subs, sub)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	sortByID(subs)
	return after(subs, afterID, limit), nil
}
