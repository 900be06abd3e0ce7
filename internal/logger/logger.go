// Package logger builds the slog loggers used by the shelf commands: a
// human-readable console handler for interactive use, JSON for scripts, and
// an optional JSON activity log appended to a file.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
)

// Logger wraps slog.Logger and owns the activity file, if any.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer // console output; defaults to os.Stderr
	Format      string    // "pretty" or "json"; chosen from Environment when empty
	Environment string
	Level       slog.Level
	AddSource   bool
	Color       *bool // nil means detect from Writer

	// ActivityFile, when set, receives every record at Info and above as JSON
	// lines, whatever the console Level.
	ActivityFile string
}

// New creates a logger from cfg. The caller must Close it to flush the activity file.
func New(cfg Config) (*Logger, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	if cfg.Format == "" {
		if cfg.Environment == "production" {
			cfg.Format = formatJSON
		} else {
			cfg.Format = formatPretty
		}
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	var console slog.Handler
	switch cfg.Format {
	case formatJSON:
		console = slog.NewJSONHandler(cfg.Writer, opts)
	case formatPretty:
		color := isTerminal(cfg.Writer)
		if cfg.Color != nil {
			color = *cfg.Color
		}
		console = NewPrettyHandler(cfg.Writer, opts, color)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.ActivityFile == "" {
		return &Logger{Logger: slog.New(console)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ActivityFile), 0o750); err != nil {
		return nil, fmt.Errorf("create activity log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.ActivityFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}

	activity := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})

	return &Logger{
		Logger: slog.New(fanout{console, activity}),
		closer: f,
	}, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// Close releases the activity file. Safe on a logger without one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// ParseLevel converts a string to slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithSession tags every record with the interactive session id.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{Logger: l.With(slog.String("session_id", sessionID)), closer: l.closer}
}

// WithError adds an error attribute to the logger.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With(slog.String("error", err.Error())), closer: l.closer}
}

// WithField adds a single field to the logger.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.With(slog.Any(key, value)), closer: l.closer}
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
