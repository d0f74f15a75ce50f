package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	tempDir := t.TempDir()

	if err := LoadConfig(tempDir); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	cfg, err := GetConfig()
	if err != nil {
		t.Fatalf("Failed to get config: %v", err)
	}

	if cfg.Provider != ProviderGoogle {
		t.Errorf("Expected default provider google, got %s", cfg.Provider)
	}
	if cfg.Model != DefaultGoogleModel {
		t.Errorf("Expected default model %s, got %s", DefaultGoogleModel, cfg.Model)
	}
	if len(cfg.Stages) != 4 {
		t.Errorf("Expected 4 stage configs, got %d", len(cfg.Stages))
	}

	// Config file must now exist on disk.
	configPath := filepath.Join(tempDir, ProjectConfigDir, ProjectConfigFilename)
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Expected config file at %s: %v", configPath, err)
	}
}

func TestLoadConfigReadsExisting(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	custom := `{"provider":"ollama","model":"llama3.1","ollama_host":"http://localhost:11434","server":{"port":9000}}`
	if err := os.WriteFile(filepath.Join(configDir, ProjectConfigFilename), []byte(custom), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if err := LoadConfig(tempDir); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	cfg, err := GetConfig()
	if err != nil {
		t.Fatalf("Failed to get config: %v", err)
	}

	if cfg.Provider != ProviderOllama {
		t.Errorf("Expected provider ollama, got %s", cfg.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	// Unspecified sections keep defaults.
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("Expected default output dir, got %s", cfg.OutputDir)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Provider = "nonsense" },
		func(c *Config) { c.Model = "" },
		func(c *Config) { c.Server.Port = 0 },
		func(c *Config) { c.Stages[StageCoder] = StageConfig{Temperature: 5, MaxTokens: 100} },
		func(c *Config) { c.Stages[StageCoder] = StageConfig{Temperature: 0.3, MaxTokens: 0} },
	}

	for i, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("Case %d: expected validation error", i)
		}
	}
}

func TestStageSettingsFallback(t *testing.T) {
	cfg := DefaultConfig()
	sc := cfg.StageSettings("unknown-stage")
	if sc.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected fallback max tokens, got %d", sc.MaxTokens)
	}

	coder := cfg.StageSettings(StageCoder)
	if coder.Temperature != 0.3 {
		t.Errorf("Expected coder temperature 0.3, got %v", coder.Temperature)
	}
}

func TestGetAPIKeyPrecedence(t *testing.T) {
	SetDecryptedSecrets(nil)
	t.Setenv("GOOGLE_API_KEY", "from-env")

	key, err := GetAPIKey(ProviderGoogle)
	if err != nil {
		t.Fatalf("GetAPIKey failed: %v", err)
	}
	if key != "from-env" {
		t.Errorf("Expected env key, got %q", key)
	}

	// Secrets file takes precedence over the environment.
	SetSecret("GOOGLE_API_KEY", "from-secrets")
	defer SetDecryptedSecrets(nil)

	key, err = GetAPIKey(ProviderGoogle)
	if err != nil {
		t.Fatalf("GetAPIKey failed: %v", err)
	}
	if key != "from-secrets" {
		t.Errorf("Expected secrets key, got %q", key)
	}

	// Ollama needs no key.
	key, err = GetAPIKey(ProviderOllama)
	if err != nil || key != "" {
		t.Errorf("Ollama should need no key, got %q, %v", key, err)
	}
}
