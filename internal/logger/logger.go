// Package logger provides structured logging to stdout (via log/slog) and
// to the application's JSON-line event log.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	eventLog      *eventWriter
)

// Level represents a log level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config holds logger configuration.
type Config struct {
	Level    Level
	Format   string // "json" or "text"
	AppName  string // used to resolve ~/.config/<app>/rag.log
	LogFile  string // overrides the default path when non-empty
}

// Init initializes the global stdout logger and the JSON-line event log.
func Init(cfg Config) error {
	var level slog.Level
	switch cfg.Level {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelInfo:
		level = slog.LevelInfo
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	path := cfg.LogFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		appName := cfg.AppName
		if appName == "" {
			appName = "rag-engine"
		}
		path = filepath.Join(home, ".config", appName, "rag.log")
	}
	w, err := newEventWriter(path)
	if err != nil {
		return err
	}
	eventLog = w
	return nil
}

// eventWriter appends one JSON object per line to a log file, guarded by a
// mutex since the in-process cache and answer cache may log concurrently.
type eventWriter struct {
	mu   sync.Mutex
	path string
}

func newEventWriter(path string) (*eventWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &eventWriter{path: path}, nil
}

func (w *eventWriter) write(event string, fields map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := map[string]any{"ts": time.Now().UTC().Format(time.RFC3339Nano), "event": event}
	for k, v := range fields {
		rec[k] = v
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// Event appends a structured event to the JSON-line log, and is the hook
// that alerting watches for latency thresholds and "_error"-suffixed names.
func Event(event string, fields map[string]any) {
	if eventLog == nil {
		return
	}
	if err := eventLog.write(event, fields); err != nil {
		defaultLogger.Warn("failed to write event log", "error", err)
	}
	notifyAlert(event, fields)
}

// alertHook is set by internal/alert to avoid an import cycle; internal/alert
// calls SetAlertHook during its own initialization.
var alertHook func(event string, fields map[string]any)

// SetAlertHook registers the callback invoked after every Event.
func SetAlertHook(hook func(event string, fields map[string]any)) {
	alertHook = hook
}

func notifyAlert(event string, fields map[string]any) {
	if alertHook != nil {
		alertHook(event, fields)
	}
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func DebugContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.DebugContext(ctx, msg, args...)
}
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }
func InfoContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.InfoContext(ctx, msg, args...)
}
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }
func WarnContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.WarnContext(ctx, msg, args...)
}
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
func ErrorContext(ctx context.Context, msg string, args ...any) {
	defaultLogger.ErrorContext(ctx, msg, args...)
}
func With(args ...any) *slog.Logger { return defaultLogger.With(args...) }
