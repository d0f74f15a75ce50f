package generator

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// stagePrompt holds the system prompt and user prompt template for one stage.
type stagePrompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// promptPack is the full set of stage prompts parsed from prompts.yaml.
type promptPack struct {
	Planner  stagePrompt `yaml:"planner"`
	Designer stagePrompt `yaml:"designer"`
	Coder    stagePrompt `yaml:"coder"`
	Tester   stagePrompt `yaml:"tester"`
}

//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var (
	loadedPrompts *promptPack
	promptsOnce   sync.Once
	promptsErr    error
)

// loadPrompts parses the embedded prompt pack. Safe for concurrent use.
func loadPrompts() (*promptPack, error) {
	promptsOnce.Do(func() {
		pack := &promptPack{}
		if err := yaml.Unmarshal(promptsYAML, pack); err != nil {
			promptsErr = fmt.Errorf("failed to parse embedded prompts: %w", err)
			return
		}
		loadedPrompts = pack
	})
	return loadedPrompts, promptsErr
}

// renderPrompt executes a user prompt template with the given data.
func renderPrompt(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s prompt template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}

	return buf.String(), nil
}
