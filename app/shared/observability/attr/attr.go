// Package attr holds the slog attribute helpers shared by every scoreboard package.
package attr

import (
	"context"
	"log/slog"
	"time"
)

type contextKey string

const cycleIDKey contextKey = "cycle_id"

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

// Error logs err under the "error" key. A nil error is logged as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func ContestID(id string) slog.Attr { return slog.String("contest_id", id) }

func SubmissionID(id int64) slog.Attr { return slog.Int64("submission_id", id) }

func TeamID(id string) slog.Attr { return slog.String("team_id", id) }

func Source(name string) slog.Attr { return slog.String("source", name) }

// WithCycleID stores the cycle id on ctx so log lines deep in the pipeline can be correlated.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext returns the cycle id attribute, or an empty attribute when none is set.
func CycleIDFromContext(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(cycleIDKey).(string); ok && id != "" {
		return slog.String("cycle_id", id)
	}
	return slog.Attr{}
}
