// Package metrics provides metrics recording for LLM client operations.
package metrics

import (
	"time"
)

// StageProvider provides access to pipeline state for metrics collection.
type StageProvider interface {
	// GetCurrentStage returns the pipeline stage currently running (planner, designer, coder, tester).
	GetCurrentStage() string
	// GetGenerationID returns the ID of the generation being worked on.
	GetGenerationID() string
}

// Recorder defines the interface for recording LLM operation metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed LLM request.
	ObserveRequest(
		model, generationID, stage string,
		promptTokens, completionTokens int,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(
	_, _, _ string,
	_, _ int,
	_ bool,
	_ string,
	_ time.Duration,
) {
	// No-op
}
