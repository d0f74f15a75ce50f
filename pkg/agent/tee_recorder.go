package agent

import (
	"time"

	"codegen/pkg/agent/middleware/metrics"
)

// teeRecorder fans out observations to multiple recorders.
type teeRecorder struct {
	recorders []metrics.Recorder
}

// NewTeeRecorder returns a Recorder that forwards every observation to all
// of the given recorders.
func NewTeeRecorder(recorders ...metrics.Recorder) metrics.Recorder {
	return &teeRecorder{recorders: recorders}
}

// ObserveRequest forwards the observation to every underlying recorder.
func (t *teeRecorder) ObserveRequest(
	model, generationID, stage string,
	promptTokens, completionTokens int,
	success bool,
	errorType string,
	duration time.Duration,
) {
	for _, r := range t.recorders {
		r.ObserveRequest(model, generationID, stage, promptTokens, completionTokens, success, errorType, duration)
	}
}
