package generator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codegen/pkg/agent"
	"codegen/pkg/agent/llm"
	"codegen/pkg/agent/middleware/metrics"
	"codegen/pkg/config"
	"codegen/pkg/generator"
)

// mockFactory hands out a fixed client regardless of stage provider.
type mockFactory struct {
	client llm.Client
}

func (f *mockFactory) CreateClient(_ metrics.StageProvider) (llm.Client, error) {
	return f.client, nil
}

func stageResponses() []llm.CompletionResponse {
	return []llm.CompletionResponse{
		{Content: "Overview:\nA greeter.\n\nKey Features:\n- Say hello\n\nApproach:\nOne function.\n\nConsiderations:\nNone."},
		{Content: "Architecture:\nSingle file.\n\nComponents:\n- greet\n\nData Structures:\nplain strings\n\nFunction Signatures:\nfunc greet()"},
		{Content: "The greeter.\n```go\npackage main\n\nfunc main() {}\n```"},
		{Content: "Quality: solid.\n\nSuggestions:\n- Ship it"},
	}
}

func newTestPipeline(t *testing.T, client llm.Client) *generator.Pipeline {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()

	p, err := generator.NewPipeline(&mockFactory{client: client}, cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestPipelineGenerate(t *testing.T) {
	mock := agent.NewMockClient(stageResponses(), nil)
	p := newTestPipeline(t, mock)

	res, err := p.Generate(context.Background(), "a greeter", "go")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(res.Planning, "Project Overview:\nA greeter.") {
		t.Errorf("unexpected planning text: %q", res.Planning)
	}
	if !strings.Contains(res.Planning, "Key Features:\n- Say hello") {
		t.Errorf("planning text missing features: %q", res.Planning)
	}
	if !strings.HasPrefix(res.Design, "Architecture:\nSingle file.") {
		t.Errorf("unexpected design text: %q", res.Design)
	}
	if res.Code != "package main\n\nfunc main() {}" {
		t.Errorf("unexpected code: %q", res.Code)
	}
	if !strings.Contains(res.Testing, "Production Ready: YES") {
		t.Errorf("unexpected testing text: %q", res.Testing)
	}
	if res.Filename != "generated_code.go" {
		t.Errorf("unexpected filename: %q", res.Filename)
	}
	if res.Explanation != "The greeter." {
		t.Errorf("unexpected explanation: %q", res.Explanation)
	}

	reqs := mock.Requests()
	if len(reqs) != 4 {
		t.Fatalf("expected 4 stage requests, got %d", len(reqs))
	}
	// Later stages must receive earlier stage output.
	if !strings.Contains(reqs[1].Messages[1].Content, "A greeter.") {
		t.Error("designer prompt should include the plan overview")
	}
	if !strings.Contains(reqs[2].Messages[1].Content, "func greet()") {
		t.Error("coder prompt should include the function signatures")
	}
	if !strings.Contains(reqs[3].Messages[1].Content, "package main") {
		t.Error("tester prompt should include the generated code")
	}
}

func TestPipelineGenerateStageFailure(t *testing.T) {
	wantErr := errors.New("model unavailable")
	mock := agent.NewMockClient(nil, []error{wantErr})
	p := newTestPipeline(t, mock)

	_, err := p.Generate(context.Background(), "a greeter", "go")
	if err == nil {
		t.Fatal("expected error from failed planning stage")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error should wrap the client error, got %v", err)
	}
}

func TestPipelineStageProviderAttribution(t *testing.T) {
	mock := agent.NewMockClient(stageResponses(), nil)
	p := newTestPipeline(t, mock)

	if p.GetGenerationID() != "" {
		t.Error("generation id should be empty before the first run")
	}

	if _, err := p.Generate(context.Background(), "a greeter", "go"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if p.GetGenerationID() == "" {
		t.Error("generation id should be set after a run")
	}
	if p.GetCurrentStage() != config.StageTester {
		t.Errorf("expected final stage %q, got %q", config.StageTester, p.GetCurrentStage())
	}
}

func TestPipelineSaveCode(t *testing.T) {
	mock := agent.NewMockClient(stageResponses(), nil)
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "generated")

	p, err := generator.NewPipeline(&mockFactory{client: mock}, cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	res, err := p.Generate(context.Background(), "a greeter", "go")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path, err := p.SaveCode(res)
	if err != nil {
		t.Fatalf("SaveCode: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != res.RawCode {
		t.Error("saved file should contain the raw generated code")
	}

	if _, err := p.SaveCode(generator.Result{}); err == nil {
		t.Error("expected error when result has no filename")
	}
}
