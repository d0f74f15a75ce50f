package agent

import (
	"strings"
	"testing"

	"codegen/pkg/agent/middleware/metrics"
	"codegen/pkg/config"
)

// fixedStageProvider satisfies metrics.StageProvider for factory tests.
type fixedStageProvider struct{}

func (fixedStageProvider) GetCurrentStage() string { return "planner" }

func (fixedStageProvider) GetGenerationID() string { return "factory-test" }

func TestCreateClientRejectsEmptyModel(t *testing.T) {
	config.SetSecret("GOOGLE_API_KEY", "test-key")

	cfg := config.DefaultConfig()
	cfg.Model = ""

	factory := NewFactoryWithRecorder(cfg, metrics.NewInternalRecorder())
	if _, err := factory.CreateClient(fixedStageProvider{}); err == nil {
		t.Fatal("expected error for empty model name")
	} else if !strings.Contains(err.Error(), "model name") {
		t.Errorf("error should name the invalid field, got %v", err)
	}
}

func TestCreateClientValidConfig(t *testing.T) {
	config.SetSecret("GOOGLE_API_KEY", "test-key")

	factory := NewFactoryWithRecorder(config.DefaultConfig(), metrics.NewInternalRecorder())
	client, err := factory.CreateClient(fixedStageProvider{})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if client == nil {
		t.Fatal("expected a constructed client")
	}
}

func TestCreateClientUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider = "mystery"

	factory := NewFactoryWithRecorder(cfg, metrics.NewInternalRecorder())
	if _, err := factory.CreateClient(fixedStageProvider{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
