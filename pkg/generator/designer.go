package generator

import (
	"context"
	"fmt"
	"strings"

	"codegen/pkg/agent/llm"
	"codegen/pkg/config"
)

// Designer expands a development plan into a technical design. It is the
// second stage of the pipeline.
type Designer struct {
	client   llm.Client
	settings config.StageConfig
}

// NewDesigner creates a designer stage backed by the given client.
func NewDesigner(client llm.Client, settings config.StageConfig) *Designer {
	return &Designer{client: client, settings: settings}
}

type designerPromptData struct {
	Overview string
	Features string
	Approach string
	Language string
}

// Design runs the design stage against the plan produced by the planner.
func (d *Designer) Design(ctx context.Context, plan PlannerOutput, language string) (DesignerOutput, error) {
	prompts, err := loadPrompts()
	if err != nil {
		return DesignerOutput{}, err
	}

	user, err := renderPrompt("designer", prompts.Designer.User, designerPromptData{
		Overview: plan.ProjectOverview,
		Features: bulletList(plan.KeyFeatures),
		Approach: plan.Approach,
		Language: language,
	})
	if err != nil {
		return DesignerOutput{}, err
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(prompts.Designer.System),
		llm.NewUserMessage(user),
	})
	req.Temperature = d.settings.Temperature
	req.MaxTokens = d.settings.MaxTokens

	resp, err := d.client.Complete(ctx, req)
	if err != nil {
		return DesignerOutput{}, fmt.Errorf("design stage failed: %w", err)
	}

	return parseDesignerResponse(resp.Content, language), nil
}

// parseDesignerResponse extracts the design sections from free-form model
// text. Section detection is keyword based, so headers like "## Components"
// or "Data Structures:" both work.
func parseDesignerResponse(content, language string) DesignerOutput {
	var (
		architecture strings.Builder
		dataStructs  strings.Builder
		signatures   strings.Builder
		components   []string
	)

	section := ""
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "architecture") || strings.Contains(lower, "structure"):
			section = "architecture"
		case strings.Contains(lower, "component") || strings.Contains(lower, "module"):
			section = "components"
		case strings.Contains(lower, "data") || strings.Contains(lower, "model"):
			section = "data"
		case strings.Contains(lower, "function") || strings.Contains(lower, "method") || strings.Contains(lower, "signature"):
			section = "functions"
		case isBulletLine(line):
			if section == "components" {
				components = append(components, stripBullet(line))
			}
		default:
			switch section {
			case "architecture":
				architecture.WriteString(line + " ")
			case "data":
				dataStructs.WriteString(line + " ")
			case "functions":
				signatures.WriteString(line + " ")
			}
		}
	}

	out := DesignerOutput{
		Architecture:       strings.TrimSpace(architecture.String()),
		Components:         components,
		DataStructures:     strings.TrimSpace(dataStructs.String()),
		FunctionSignatures: strings.TrimSpace(signatures.String()),
	}

	if out.Architecture == "" {
		out.Architecture = fmt.Sprintf("Modular %s application with clear separation of concerns", language)
	}
	if len(out.Components) == 0 {
		out.Components = []string{"Main module", "Helper functions", "Data processing"}
	}
	if out.DataStructures == "" {
		out.DataStructures = "Standard data structures appropriate for the task"
	}
	if out.FunctionSignatures == "" {
		out.FunctionSignatures = "Core functions as needed by the requirements"
	}

	return out
}

// bulletList renders items one per line with a leading dash.
func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}
