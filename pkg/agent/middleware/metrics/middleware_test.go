package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"codegen/pkg/agent/llm"
)

type fakeRecorder struct {
	model        string
	generationID string
	stage        string
	success      bool
	errorType    string
	calls        int
}

func (f *fakeRecorder) ObserveRequest(model, generationID, stage string, _, _ int, success bool, errorType string, _ time.Duration) {
	f.model = model
	f.generationID = generationID
	f.stage = stage
	f.success = success
	f.errorType = errorType
	f.calls++
}

type fakeStageProvider struct {
	stage string
	genID string
}

func (f *fakeStageProvider) GetCurrentStage() string { return f.stage }
func (f *fakeStageProvider) GetGenerationID() string { return f.genID }

func TestMiddlewareRecordsSuccess(t *testing.T) {
	base := llm.WrapClient(
		func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
			return llm.CompletionResponse{Content: "answer"}, nil
		},
		func() string { return "test-model" },
	)

	recorder := &fakeRecorder{}
	provider := &fakeStageProvider{stage: "planner", genID: "gen-1"}
	client := Middleware(recorder, nil, provider, nil)(base)

	_, err := client.Complete(context.Background(), llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("q")}))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if recorder.calls != 1 {
		t.Fatalf("Expected 1 observation, got %d", recorder.calls)
	}
	if !recorder.success {
		t.Error("Expected success=true")
	}
	if recorder.model != "test-model" || recorder.stage != "planner" || recorder.generationID != "gen-1" {
		t.Errorf("Labels not propagated: %+v", recorder)
	}
}

func TestMiddlewareRecordsFailure(t *testing.T) {
	base := llm.WrapClient(
		func(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
			return llm.CompletionResponse{}, errors.New("boom")
		},
		func() string { return "test-model" },
	)

	recorder := &fakeRecorder{}
	client := Middleware(recorder, nil, &fakeStageProvider{}, nil)(base)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	if err == nil {
		t.Fatal("Expected error to pass through")
	}
	if recorder.success {
		t.Error("Expected success=false")
	}
	if recorder.errorType != "unknown" {
		t.Errorf("Expected error type 'unknown', got %q", recorder.errorType)
	}
}

func TestInternalRecorderAggregates(t *testing.T) {
	recorder := NewInternalRecorder()
	recorder.ObserveRequest("m", "agg-test", "planner", 10, 20, true, "", time.Second)
	recorder.ObserveRequest("m", "agg-test", "coder", 5, 5, true, "", time.Second)
	// Failures are not counted toward token totals.
	recorder.ObserveRequest("m", "agg-test", "tester", 100, 100, false, "transient", time.Second)

	got := recorder.GetGenerationMetrics("agg-test")
	if got == nil {
		t.Fatal("Expected metrics for generation")
	}
	if got.TotalTokens != 40 {
		t.Errorf("TotalTokens = %d, want 40", got.TotalTokens)
	}
	if got.RequestCount != 2 {
		t.Errorf("RequestCount = %d, want 2", got.RequestCount)
	}

	if recorder.GetGenerationMetrics("missing") != nil {
		t.Error("Expected nil for unknown generation")
	}
}
