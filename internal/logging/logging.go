// Package logging provides the application's slog setup:
//   - text output on a TTY, JSON otherwise (overridable with LOG_FORMAT)
//   - level control via LOG_LEVEL (debug/info/warn/error)
//   - source file:line attributes shortened to paths relative to the
//     working directory
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ContextKey is the type used for logging values stored in a context.
type ContextKey string

// JobIDKey carries the id of the job a log line belongs to.
const JobIDKey ContextKey = "log_job_id"

// WithJobID returns a context carrying the job id for log correlation.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// GetJobID returns the job id stored in ctx, or "" if absent.
func GetJobID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(JobIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns logger enriched with any correlation attributes found
// in ctx. The original logger is returned unchanged when ctx carries none.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if ctx == nil {
		return logger
	}
	if jobID := GetJobID(ctx); jobID != "" {
		return logger.With("job_id", jobID)
	}
	return logger
}

// New returns a logger configured from the environment, writing to stdout.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout, isatty(os.Stdout))
}

// NewWithWriter builds a logger writing to w. The tty flag selects the text
// handler when LOG_FORMAT is unset.
func NewWithWriter(w io.Writer, tty bool) *slog.Logger {
	format := os.Getenv("LOG_FORMAT")
	useText := format == "text" || (format == "" && tty)

	wd, _ := os.Getwd()

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(os.Getenv("LOG_LEVEL")),
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					if rel, err := filepath.Rel(wd, src.File); err == nil {
						src.File = rel
					} else {
						src.File = filepath.Base(src.File)
					}
				}
			}
			return a
		},
	}

	if useText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// SetDefault creates a logger and installs it as the slog default.
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func isatty(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
