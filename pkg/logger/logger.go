package logger

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a tint-backed logger writing to w at the level held by level.
// Timestamps are rendered in UTC with millisecond precision and empty string
// attributes are dropped.
func New(w io.Writer, level *slog.LevelVar) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// Level returns a LevelVar set to debug when verbose, info otherwise.
func Level(verbose bool) *slog.LevelVar {
	lv := new(slog.LevelVar)
	if verbose {
		lv.Set(slog.LevelDebug)
	}
	return lv
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Value = slog.StringValue(formatRFC3339Millis(a.Value.Time()))
	}
	if s, ok := a.Value.Any().(string); ok && s == "" {
		return slog.Attr{}
	}
	return a
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s.%03dZ", t.Format("2006-01-02T15:04:05"), t.Nanosecond()/1_000_000)
}
