// Package metrics provides services for querying and aggregating metrics data.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// GenerationMetrics represents aggregated metrics for one pipeline run.
type GenerationMetrics struct {
	GenerationID     string  `json:"generation_id"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	AvgDurationSecs  float64 `json:"avg_duration_seconds"`
}

// StageMetrics represents aggregated metrics for one pipeline stage within
// a generation.
type StageMetrics struct {
	Stage            string `json:"stage"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetGenerationMetrics retrieves aggregated token metrics for one generation,
// summed across all four pipeline stages.
func (q *QueryService) GetGenerationMetrics(ctx context.Context, generationID string) (*GenerationMetrics, error) {
	metrics := &GenerationMetrics{
		GenerationID: generationID,
	}

	promptQuery := fmt.Sprintf(`sum(llm_tokens_total{generation_id=%q, type="prompt"})`, generationID)
	promptResult, _, err := q.queryAPI.Query(ctx, promptQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
		metrics.PromptTokens = int64(vector[0].Value)
	}

	completionQuery := fmt.Sprintf(`sum(llm_tokens_total{generation_id=%q, type="completion"})`, generationID)
	completionResult, _, err := q.queryAPI.Query(ctx, completionQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
		metrics.CompletionTokens = int64(vector[0].Value)
	}

	metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens

	durationQuery := fmt.Sprintf(
		`sum(llm_request_duration_seconds_sum{generation_id=%q}) / sum(llm_request_duration_seconds_count{generation_id=%q})`,
		generationID, generationID,
	)
	durationResult, _, err := q.queryAPI.Query(ctx, durationQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query request duration: %w", err)
	}
	if vector, ok := durationResult.(model.Vector); ok && len(vector) > 0 {
		metrics.AvgDurationSecs = float64(vector[0].Value)
	}

	return metrics, nil
}

// GetGenerationMetricsByStage retrieves token metrics broken down by
// pipeline stage for one generation.
func (q *QueryService) GetGenerationMetricsByStage(ctx context.Context, generationID string) (map[string]*StageMetrics, error) {
	result := make(map[string]*StageMetrics)

	stagesQuery := fmt.Sprintf(`group by (stage) (llm_tokens_total{generation_id=%q})`, generationID)
	stagesResult, _, err := q.queryAPI.Query(ctx, stagesQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}

	var stages []string
	if vector, ok := stagesResult.(model.Vector); ok {
		for _, sample := range vector {
			if stage, ok := sample.Metric["stage"]; ok {
				stages = append(stages, string(stage))
			}
		}
	}

	for _, stage := range stages {
		metrics := &StageMetrics{Stage: stage}

		promptQuery := fmt.Sprintf(`sum(llm_tokens_total{generation_id=%q, stage=%q, type="prompt"})`, generationID, stage)
		promptResult, _, err := q.queryAPI.Query(ctx, promptQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query prompt tokens for stage %s: %w", stage, err)
		}
		if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
			metrics.PromptTokens = int64(vector[0].Value)
		}

		completionQuery := fmt.Sprintf(`sum(llm_tokens_total{generation_id=%q, stage=%q, type="completion"})`, generationID, stage)
		completionResult, _, err := q.queryAPI.Query(ctx, completionQuery, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query completion tokens for stage %s: %w", stage, err)
		}
		if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
			metrics.CompletionTokens = int64(vector[0].Value)
		}

		metrics.TotalTokens = metrics.PromptTokens + metrics.CompletionTokens
		result[stage] = metrics
	}

	return result, nil
}
