// Package logging provides a minimal logging interface and adapters for Lyceum.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) with slog-style key/value arguments. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping go.uber.org/zap, with optional file rotation
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - With for attaching contextual attributes (forum id, component)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", os.Stderr)
//	lyc, err := lyceum.New(func(o *lyceum.Options) { o.Logger = logger })
//
// The interface stays minimal to avoid vendor lock-in.
package logging
