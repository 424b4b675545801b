package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error renders a nil error as "<nil>" so the key is never dropped.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// operatorHints maps event types to the first thing an operator should look at.
var operatorHints = map[string]string{
	"acquire_fallback":       "yt-dlp could not satisfy the requested resolution",
	"translation_fallback":   "check translation backend reachability and quota",
	"delivery_failure":       "check bot permissions for the chat and file size limits",
	"subtitle_validation":    "compare subtitle cue timings with the media duration",
	"run_failure":            "inspect the run in `subtitler history` and the stage error",
	"upload_download_failed": "check the bot token and Telegram file size limits",
	"dependency_missing":     "run `subtitler deps` and install the missing tool",
	"preflight_failed":       "run `subtitler deps --preflight` for details",
}

const defaultHint = "check logs for details"

func hintFor(eventType string) string {
	if hint, ok := operatorHints[eventType]; ok {
		return hint
	}
	return defaultHint
}

// WarnWithContext logs a warning that always carries event_type and error_hint.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logClassified(logger, slog.LevelWarn, msg, eventType, attrs)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logClassified(logger, slog.LevelError, msg, eventType, attrs)
}

func logClassified(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []Attr) {
	if logger == nil {
		return
	}
	var haveType, haveHint bool
	for _, a := range attrs {
		switch a.Key {
		case FieldEventType:
			haveType = true
		case FieldErrorHint:
			haveHint = true
		}
	}
	if !haveType {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !haveHint {
		attrs = append(attrs, String(FieldErrorHint, hintFor(eventType)))
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NewComponentLogger tags logger with a component name; nil falls back to a
// discarding logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
