package telemetry

import "github.com/google/uuid"

// NewRunID generates a unique identifier for one evaluator invocation, so
// the log lines and diagnostics it emits can be correlated after the fact.
// Adapted from the request-ID generator in pkg/context/context.go.
func NewRunID() string {
	return uuid.NewString()
}
