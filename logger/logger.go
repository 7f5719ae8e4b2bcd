// Package logger is the structured logging surface used across e2erun. Field
// keys are snake_case (test_run_id, descriptor_path, exit_code).
package logger

import "context"

// Logger writes leveled messages with structured fields.
type Logger interface {
	// Debug logs store and probe detail that is noise during a normal run.
	Debug(ctx context.Context, msg string, fields map[string]interface{})

	// Info logs run lifecycle events.
	Info(ctx context.Context, msg string, fields map[string]interface{})

	// Warn logs non-fatal descriptor findings such as an empty spec list.
	Warn(ctx context.Context, msg string, fields map[string]interface{})

	// Error logs failures that are also returned or recorded on the run.
	Error(ctx context.Context, msg string, fields map[string]interface{})

	// WithField returns a logger that adds key to every entry.
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger that adds fields to every entry.
	WithFields(fields map[string]interface{}) Logger
}
