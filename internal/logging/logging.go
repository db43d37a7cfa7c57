// Package logging writes one JSON object per line, the format shared by the
// access log, migrations and startup messages. Entries go through a log/slog
// JSON handler with "ts" in the configured zone and lower-case levels.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// Logger writes structured entries. It is safe for concurrent use.
type Logger struct {
	sl *slog.Logger
}

// New returns a Logger writing to w with timestamps in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
			case slog.MessageKey:
				if a.Value.String() == "" {
					return slog.Attr{}
				}
			}
			return a
		},
	})
	return &Logger{sl: slog.New(h)}
}

// Default writes to stdout in UTC.
func Default() *Logger {
	return New(os.Stdout, time.UTC)
}

// Log writes data as a single entry. "level" and "msg" are taken from data
// when present; otherwise entries with status "error" are logged at error
// level and everything else at info.
func (l *Logger) Log(data map[string]any) {
	level := slog.LevelInfo
	if s, ok := data["level"].(string); ok {
		level = parseLevel(s)
	} else if data["status"] == "error" {
		level = slog.LevelError
	}
	msg, _ := data["msg"].(string)

	keys := make([]string, 0, len(data))
	for k := range data {
		switch k {
		case "level", "msg", "ts":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, data[k]))
	}
	l.sl.LogAttrs(context.Background(), level, msg, attrs...)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.Log(withMsg("info", msg, fields))
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.Log(withMsg("warn", msg, fields))
}

func (l *Logger) Error(msg string, err error, fields map[string]any) {
	data := withMsg("error", msg, fields)
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(data)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func withMsg(level, msg string, fields map[string]any) map[string]any {
	data := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		data[k] = v
	}
	data["level"] = level
	data["msg"] = msg
	return data
}
