// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs intermediate hashes and signature inputs
	Debug(msg string, fields ...Field)

	// Info logs completed operations
	Info(msg string, fields ...Field)

	// Warn logs recoverable anomalies (e.g. a failed PR verify report)
	Warn(msg string, fields ...Field)

	// Error logs fatal failures
	Error(msg string, fields ...Field)

	// With returns a logger that adds fields to every entry
	With(fields ...Field) Logger
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// With returns the same no-op logger
func (n *NoOpLogger) With(_ ...Field) Logger { return n }
