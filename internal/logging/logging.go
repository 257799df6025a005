// Package logging configures slog and adapts it to the domain Logger contract.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudfpga/cfbuild/internal/domain/interfaces"
)

// Init configures the global slog default with the given level and format.
// If w is nil, os.Stderr is used. Format must be "text" or "json".
func Init(level slog.Level, format string, w ...io.Writer) {
	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a configured level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns a domain logger with a "component" attribute.
func New(component string) interfaces.Logger {
	return &Logger{l: slog.Default().With(slog.String("component", component))}
}

// Logger adapts *slog.Logger to interfaces.Logger
type Logger struct {
	l *slog.Logger
}

// Wrap adapts an existing slog logger
func Wrap(l *slog.Logger) *Logger {
	return &Logger{l: l}
}

// Debug logs at debug level
func (s *Logger) Debug(msg string, fields ...interfaces.Field) {
	s.log(slog.LevelDebug, msg, fields)
}

// Info logs at info level
func (s *Logger) Info(msg string, fields ...interfaces.Field) {
	s.log(slog.LevelInfo, msg, fields)
}

// Warn logs at warn level
func (s *Logger) Warn(msg string, fields ...interfaces.Field) {
	s.log(slog.LevelWarn, msg, fields)
}

// Error logs at error level
func (s *Logger) Error(msg string, fields ...interfaces.Field) {
	s.log(slog.LevelError, msg, fields)
}

// With returns a logger that adds fields to every entry
func (s *Logger) With(fields ...interfaces.Field) interfaces.Logger {
	return &Logger{l: s.l.With(attrs(fields)...)}
}

func (s *Logger) log(level slog.Level, msg string, fields []interfaces.Field) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, msg, attrs(fields)...)
}

func attrs(fields []interfaces.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
