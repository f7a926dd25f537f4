package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Location returns the contest timezone, UTC when unset.
func (c ContestConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseStartAt resolves StartAt. Phrases are resolved against now in the
// contest timezone and truncated to the minute.
func (c ContestConfig) ParseStartAt(now time.Time) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	text := strings.TrimSpace(c.StartAt)
	if text == "" {
		return time.Time{}, fmt.Errorf("contest start is empty")
	}

	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(strings.ToLower(text), now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse contest start %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not recognize contest start %q", text)
	}
	return r.Time.In(loc).Truncate(time.Minute), nil
}
