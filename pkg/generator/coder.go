package generator

import (
	"context"
	"fmt"
	"strings"

	"codegen/pkg/agent/llm"
	"codegen/pkg/config"
)

// Coder generates source code from the technical design. It is the third
// stage of the pipeline.
type Coder struct {
	client   llm.Client
	settings config.StageConfig
}

// NewCoder creates a coder stage backed by the given client.
func NewCoder(client llm.Client, settings config.StageConfig) *Coder {
	return &Coder{client: client, settings: settings}
}

type coderPromptData struct {
	Description        string
	Architecture       string
	Components         string
	DataStructures     string
	FunctionSignatures string
	Language           string
}

// Generate runs the code generation stage and extracts the code block from
// the response.
func (c *Coder) Generate(ctx context.Context, description string, design DesignerOutput, language string) (CoderOutput, error) {
	prompts, err := loadPrompts()
	if err != nil {
		return CoderOutput{}, err
	}

	user, err := renderPrompt("coder", prompts.Coder.User, coderPromptData{
		Description:        description,
		Architecture:       design.Architecture,
		Components:         bulletList(design.Components),
		DataStructures:     design.DataStructures,
		FunctionSignatures: design.FunctionSignatures,
		Language:           language,
	})
	if err != nil {
		return CoderOutput{}, err
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(prompts.Coder.System),
		llm.NewUserMessage(user),
	})
	req.Temperature = c.settings.Temperature
	req.MaxTokens = c.settings.MaxTokens

	resp, err := c.client.Complete(ctx, req)
	if err != nil {
		return CoderOutput{}, fmt.Errorf("code generation stage failed: %w", err)
	}

	return parseCoderResponse(resp.Content, language), nil
}

// knownLanguageTags are fence info strings stripped from extracted code
// blocks in addition to the requested language itself.
//
//nolint:gochecknoglobals // Static lookup table.
var knownLanguageTags = map[string]bool{
	"python":     true,
	"javascript": true,
	"java":       true,
	"cpp":        true,
	"c++":        true,
	"c":          true,
	"go":         true,
	"rust":       true,
}

// parseCoderResponse pulls the first fenced code block out of the response
// and strips a leading language tag if present. Text before the fence
// becomes the explanation. Responses without fences are treated as raw code.
func parseCoderResponse(content, language string) CoderOutput {
	var code, explanation string

	if strings.Contains(content, "```") {
		parts := strings.Split(content, "```")
		for i, part := range parts {
			if i%2 != 1 {
				continue
			}
			lines := strings.Split(strings.TrimSpace(part), "\n")
			tag := strings.ToLower(strings.TrimSpace(lines[0]))
			if knownLanguageTags[tag] || tag == strings.ToLower(language) {
				code = strings.Join(lines[1:], "\n")
			} else {
				code = strings.TrimSpace(part)
			}
			break
		}
		explanation = strings.TrimSpace(parts[0])
	} else {
		code = content
		explanation = fmt.Sprintf("Generated %s code as per requirements", language)
	}

	if explanation == "" {
		explanation = fmt.Sprintf("Complete %s implementation based on the requirements", language)
	}
	// Truncate on rune boundaries so a multi-byte character is never split.
	if runes := []rune(explanation); len(runes) > maxExplanationLen {
		explanation = string(runes[:maxExplanationLen])
	}

	return CoderOutput{
		Code:        strings.TrimSpace(code),
		Filename:    "generated_code" + extensionForLanguage(language),
		Explanation: explanation,
	}
}

// extensionForLanguage maps a language name to a file extension, defaulting
// to .txt for anything unrecognized.
func extensionForLanguage(language string) string {
	if ext, ok := extensionByLanguage[strings.ToLower(language)]; ok {
		return ext
	}
	return ".txt"
}
