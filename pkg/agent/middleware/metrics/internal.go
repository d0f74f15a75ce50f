// Package metrics provides internal metrics tracking for LLM operations.
package metrics

import (
	"sync"
	"time"
)

// InternalRecorder implements the Recorder interface using in-memory aggregation.
// This is much simpler than Prometheus and doesn't require external services.
type InternalRecorder struct {
	generations map[string]*GenerationMetrics // generationID -> aggregated metrics
	mu          sync.RWMutex
}

// GenerationMetrics represents aggregated metrics for one generation.
type GenerationMetrics struct {
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	RequestCount     int64     `json:"request_count"`
	GenerationID     string    `json:"generation_id"`
	LastUpdated      time.Time `json:"last_updated"`
}

//nolint:gochecknoglobals // Singleton instance and initialization synchronization.
var (
	internalInstance *InternalRecorder
	internalOnce     sync.Once
)

// NewInternalRecorder returns a singleton internal metrics recorder.
func NewInternalRecorder() *InternalRecorder {
	internalOnce.Do(func() {
		internalInstance = &InternalRecorder{
			generations: make(map[string]*GenerationMetrics),
		}
	})
	return internalInstance
}

// ObserveRequest records metrics for a completed LLM request.
func (r *InternalRecorder) ObserveRequest(
	_, generationID, _ string,
	promptTokens, completionTokens int,
	success bool,
	_ string,
	_ time.Duration,
) {
	// Only record successful requests for token tracking
	if !success || generationID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	gen, exists := r.generations[generationID]
	if !exists {
		gen = &GenerationMetrics{
			GenerationID: generationID,
		}
		r.generations[generationID] = gen
	}

	gen.PromptTokens += int64(promptTokens)
	gen.CompletionTokens += int64(completionTokens)
	gen.TotalTokens = gen.PromptTokens + gen.CompletionTokens
	gen.RequestCount++
	gen.LastUpdated = time.Now()
}

// GetGenerationMetrics returns the aggregated metrics for a specific generation.
func (r *InternalRecorder) GetGenerationMetrics(generationID string) *GenerationMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, exists := r.generations[generationID]
	if !exists {
		return nil
	}

	// Return a copy so callers cannot mutate internal state.
	copied := *gen
	return &copied
}
