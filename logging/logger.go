package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a LogLevel, defaulting to info.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface used across Lyceum.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewSlogLogger builds a slog backed Logger writing json or text to out.
func NewSlogLogger(level LogLevel, format string, out io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextLogger prepends fixed key/value pairs to every entry.
type contextLogger struct {
	base  Logger
	attrs []any
}

// With returns a Logger that attaches args to every entry written through it.
func With(l Logger, args ...any) Logger {
	if l == nil {
		l = NoOpLogger{}
	}
	if cl, ok := l.(*contextLogger); ok {
		merged := make([]any, 0, len(cl.attrs)+len(args))
		merged = append(merged, cl.attrs...)
		merged = append(merged, args...)
		return &contextLogger{base: cl.base, attrs: merged}
	}
	return &contextLogger{base: l, attrs: args}
}

func (c *contextLogger) merge(args []any) []any {
	out := make([]any, 0, len(c.attrs)+len(args))
	out = append(out, c.attrs...)
	return append(out, args...)
}

func (c *contextLogger) Debug(msg string, args ...any) { c.base.Debug(msg, c.merge(args)...) }
func (c *contextLogger) Info(msg string, args ...any)  { c.base.Info(msg, c.merge(args)...) }
func (c *contextLogger) Warn(msg string, args ...any)  { c.base.Warn(msg, c.merge(args)...) }
func (c *contextLogger) Error(msg string, args ...any) { c.base.Error(msg, c.merge(args)...) }

// WithComponent tags entries with the logical component (router, gateway, server).
func WithComponent(l Logger, component string) Logger {
	return With(l, "component", component)
}

// WithForum tags entries with the forum they concern.
func WithForum(l Logger, forumID string) Logger {
	return With(l, "forum_id", forumID)
}

// LogLLMCall records model call latency, token usage and success.
func LogLLMCall(l Logger, provider, model string, tokens int, dur time.Duration, err error) {
	args := []any{"provider", provider, "model", model, "token_count", tokens, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("LLM call failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("LLM call completed", args...)
}

// LogAction records the outcome of one chair action on a forum.
func LogAction(l Logger, action string, appended int, dur time.Duration, err error) {
	args := []any{"action", action, "appended_turns", appended, "duration", dur, "success", err == nil}
	if err != nil {
		l.Warn("Forum action failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("Forum action completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
