// Package config provides configuration loading, validation, and management for the
// code generation service. It handles the JSON config file, environment variable
// lookup for API keys, and per-stage model settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LLM provider constants.
const (
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Pipeline stage constants.
const (
	StagePlanner  = "planner"
	StageDesigner = "designer"
	StageCoder    = "coder"
	StageTester   = "tester"
)

// Default models per provider.
const (
	DefaultGoogleModel    = "gemini-2.0-flash"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultOllamaModel    = "llama3.1"
)

// Project config constants.
const (
	ProjectConfigFilename = "config.json"
	ProjectConfigDir      = ".codegen"
	SchemaVersion         = "1.0"
)

// Default server and pipeline settings.
const (
	DefaultServerPort   = 8080
	DefaultDatabaseFile = "generations.db"
	DefaultOutputDir    = "generated"
	DefaultMaxTokens    = 4096
)

// StageConfig holds per-stage LLM settings. Temperatures are lower for
// code generation and slightly higher for planning and design.
type StageConfig struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ServerConfig contains web server settings.
type ServerConfig struct {
	Port int `json:"port"`
}

// DatabaseConfig contains generation history storage settings.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// Config represents the main configuration for the code generation service.
type Config struct {
	SchemaVersion string                 `json:"schema_version"`
	Provider      string                 `json:"provider"`
	Model         string                 `json:"model"`
	OllamaHost    string                 `json:"ollama_host,omitempty"`
	PrometheusURL string                 `json:"prometheus_url,omitempty"`
	Stages        map[string]StageConfig `json:"stages"`
	Server        ServerConfig           `json:"server"`
	Database      DatabaseConfig         `json:"database"`
	OutputDir     string                 `json:"output_dir"`
}

//nolint:gochecknoglobals // Singleton config state, set once by LoadConfig.
var (
	globalConfig *Config
	configMutex  sync.RWMutex
)

// DefaultConfig returns a config populated with sensible defaults.
// Gemini is the default provider; stage temperatures favor deterministic
// code generation and slightly more exploratory planning.
func DefaultConfig() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Provider:      ProviderGoogle,
		Model:         DefaultGoogleModel,
		OllamaHost:    "",
		Stages: map[string]StageConfig{
			StagePlanner:  {Temperature: 0.4, MaxTokens: DefaultMaxTokens},
			StageDesigner: {Temperature: 0.5, MaxTokens: DefaultMaxTokens},
			StageCoder:    {Temperature: 0.3, MaxTokens: DefaultMaxTokens},
			StageTester:   {Temperature: 0.4, MaxTokens: DefaultMaxTokens},
		},
		Server:    ServerConfig{Port: DefaultServerPort},
		Database:  DatabaseConfig{Path: filepath.Join(ProjectConfigDir, DefaultDatabaseFile)},
		OutputDir: DefaultOutputDir,
	}
}

// LoadConfig loads the project config from projectDir/.codegen/config.json,
// creating it with defaults when missing. It must be called before GetConfig.
func LoadConfig(projectDir string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	configDir := filepath.Join(projectDir, ProjectConfigDir)
	configPath := filepath.Join(configDir, ProjectConfigFilename)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if writeErr := writeConfigLocked(configDir, configPath, cfg); writeErr != nil {
			return writeErr
		}
		globalConfig = cfg
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config in %s: %w", configPath, err)
	}

	globalConfig = cfg
	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("config not loaded: call LoadConfig first")
	}
	return globalConfig, nil
}

// SetConfig replaces the global config. Intended for tests and CLI overrides.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

func writeConfigLocked(configDir, configPath string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGoogle, ProviderAnthropic, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	for stage, sc := range c.Stages {
		if sc.Temperature < 0 || sc.Temperature > 2 {
			return fmt.Errorf("stage %s: temperature must be between 0.0 and 2.0", stage)
		}
		if sc.MaxTokens <= 0 {
			return fmt.Errorf("stage %s: max tokens must be positive", stage)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	return nil
}

// StageSettings returns the settings for a pipeline stage, falling back to
// defaults when the stage is not configured.
func (c *Config) StageSettings(stage string) StageConfig {
	if sc, ok := c.Stages[stage]; ok {
		return sc
	}
	return StageConfig{Temperature: 0.4, MaxTokens: DefaultMaxTokens}
}

// APIKeyEnvVar returns the environment variable name holding the API key for a provider.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// GetAPIKey resolves the API key for a provider, checking the decrypted
// secrets file first and falling back to environment variables.
// Ollama runs locally and needs no key.
func GetAPIKey(provider string) (string, error) {
	if provider == ProviderOllama {
		return "", nil
	}

	envVar := APIKeyEnvVar(provider)
	if envVar == "" {
		return "", fmt.Errorf("no API key variable known for provider %q", provider)
	}

	return GetSecret(envVar)
}
