// Package logging builds the process logger: one JSON object per line with
// "ts", "level" and "msg" keys, timestamps rendered in the configured location.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// New returns a JSON logger writing to w.
func New(w io.Writer, level slog.Level, loc *time.Location) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				lvl, _ := a.Value.Any().(slog.Level)
				return slog.String(slog.LevelKey, strings.ToLower(lvl.String()))
			}
			return a
		},
	})
	return slog.New(h)
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
