package llm

import (
	"context"
	"testing"
)

func tagMiddleware(tag string) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				resp.Content = tag + resp.Content
				return resp, err
			},
			next.GetModelName,
		)
	}
}

func TestChainOrdering(t *testing.T) {
	base := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "base"}, nil
		},
		func() string { return "test-model" },
	)

	client := Chain(base, tagMiddleware("a:"), tagMiddleware("b:"))

	resp, err := client.Complete(context.Background(), NewCompletionRequest(nil))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// First middleware in the slice must be outermost.
	if resp.Content != "a:b:base" {
		t.Errorf("Expected 'a:b:base', got %q", resp.Content)
	}
	if client.GetModelName() != "test-model" {
		t.Errorf("Model name not delegated through chain")
	}
}

func TestChainEmpty(t *testing.T) {
	base := WrapClient(
		func(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
			return CompletionResponse{Content: "base"}, nil
		},
		func() string { return "test-model" },
	)

	client := Chain(base)
	resp, err := client.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "base" {
		t.Errorf("Chain with no middleware should return base client unchanged")
	}
}
