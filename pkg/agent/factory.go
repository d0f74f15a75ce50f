// Package agent provides LLM client construction with middleware chain assembly.
package agent

import (
	"fmt"

	"codegen/pkg/agent/internal/llmimpl/anthropic"
	"codegen/pkg/agent/internal/llmimpl/google"
	"codegen/pkg/agent/internal/llmimpl/ollama"
	"codegen/pkg/agent/internal/llmimpl/openai"
	"codegen/pkg/agent/llm"
	"codegen/pkg/agent/middleware/metrics"
	"codegen/pkg/agent/middleware/resilience/retry"
	"codegen/pkg/config"
	"codegen/pkg/logx"
)

// Factory creates LLM clients with properly configured middleware chains.
type Factory struct {
	cfg      *config.Config
	recorder metrics.Recorder
	logger   *logx.Logger
}

// NewFactory creates a new LLM client factory with the given configuration.
// Metrics are recorded to both Prometheus (scraped at /metrics) and the
// in-memory recorder consumed by the web UI.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		cfg:      cfg,
		recorder: NewTeeRecorder(metrics.NewPrometheusRecorder(), metrics.NewInternalRecorder()),
		logger:   logx.NewLogger("llm-factory"),
	}
}

// NewFactoryWithRecorder creates a factory with a specific metrics recorder.
// Intended for tests.
func NewFactoryWithRecorder(cfg *config.Config, recorder metrics.Recorder) *Factory {
	return &Factory{
		cfg:      cfg,
		recorder: recorder,
		logger:   logx.NewLogger("llm-factory"),
	}
}

// CreateClient creates an LLM client for the configured provider with the full
// middleware chain: metrics (outermost, one observation per logical request
// after retries resolve) wrapping retry wrapping the raw provider client.
func (f *Factory) CreateClient(stageProvider metrics.StageProvider) (llm.Client, error) {
	base, err := f.createBaseClient()
	if err != nil {
		return nil, err
	}

	policy := retry.NewPolicy(retry.DefaultConfig, nil)

	return llm.Chain(base,
		metrics.Middleware(f.recorder, nil, stageProvider, f.logger),
		retry.Middleware(policy),
	), nil
}

// createBaseClient builds the raw provider client from config and API keys.
func (f *Factory) createBaseClient() (llm.Client, error) {
	apiKey, err := config.GetAPIKey(f.cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve API key for provider %s: %w", f.cfg.Provider, err)
	}

	// Ollama runs keyless against a local host, so only the cloud
	// providers go through full config validation.
	if f.cfg.Provider != config.ProviderOllama {
		clientCfg := llm.Config{
			APIKey:      apiKey,
			ModelName:   f.cfg.Model,
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.TemperatureDefault,
		}
		if err := clientCfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid client config for provider %s: %w", f.cfg.Provider, err)
		}
	}

	switch f.cfg.Provider {
	case config.ProviderGoogle:
		return google.NewGeminiClientWithModel(apiKey, f.cfg.Model), nil
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClientWithModel(apiKey, f.cfg.Model), nil
	case config.ProviderOpenAI:
		return openai.NewClientWithModel(apiKey, f.cfg.Model), nil
	case config.ProviderOllama:
		host := f.cfg.OllamaHost
		if host == "" {
			host = ollama.DefaultHostURL
		}
		return ollama.NewClientWithModel(host, f.cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", f.cfg.Provider)
	}
}
