package generator

import (
	"context"
	"fmt"
	"strings"

	"codegen/pkg/agent/llm"
	"codegen/pkg/config"
)

// Planner turns a project description into a short structured development
// plan. It is the first stage of the pipeline.
type Planner struct {
	client   llm.Client
	settings config.StageConfig
}

// NewPlanner creates a planner stage backed by the given client.
func NewPlanner(client llm.Client, settings config.StageConfig) *Planner {
	return &Planner{client: client, settings: settings}
}

type plannerPromptData struct {
	Description string
	Language    string
}

// Plan runs the planning stage and parses the response into a PlannerOutput.
func (p *Planner) Plan(ctx context.Context, description, language string) (PlannerOutput, error) {
	prompts, err := loadPrompts()
	if err != nil {
		return PlannerOutput{}, err
	}

	user, err := renderPrompt("planner", prompts.Planner.User, plannerPromptData{
		Description: description,
		Language:    language,
	})
	if err != nil {
		return PlannerOutput{}, err
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(prompts.Planner.System),
		llm.NewUserMessage(user),
	})
	req.Temperature = p.settings.Temperature
	req.MaxTokens = p.settings.MaxTokens

	resp, err := p.client.Complete(ctx, req)
	if err != nil {
		return PlannerOutput{}, fmt.Errorf("planning stage failed: %w", err)
	}

	return parsePlannerResponse(resp.Content, language), nil
}

// parsePlannerResponse extracts the plan sections from free-form model text.
// Every field has a hard fallback so downstream stages never see empty input.
func parsePlannerResponse(content, language string) PlannerOutput {
	var (
		overview       strings.Builder
		approach       strings.Builder
		considerations strings.Builder
		features       []string
	)

	section := ""
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "overview"):
			section = "overview"
			continue
		case strings.HasPrefix(lower, "key features"):
			section = "features"
			continue
		case strings.HasPrefix(lower, "approach"):
			section = "approach"
			continue
		case strings.HasPrefix(lower, "considerations"):
			section = "considerations"
			continue
		}

		if isBulletLine(line) && section == "features" {
			features = append(features, stripBullet(line))
			continue
		}

		switch section {
		case "overview":
			overview.WriteString(line + " ")
		case "approach":
			approach.WriteString(line + " ")
		case "considerations":
			considerations.WriteString(line + " ")
		}
	}

	out := PlannerOutput{
		ProjectOverview: strings.TrimSpace(overview.String()),
		KeyFeatures:     features,
		Approach:        strings.TrimSpace(approach.String()),
		Considerations:  strings.TrimSpace(considerations.String()),
	}

	if out.ProjectOverview == "" {
		out.ProjectOverview = fmt.Sprintf("Build the requested system using %s.", language)
	}
	if len(out.KeyFeatures) == 0 {
		out.KeyFeatures = []string{"Core functionality", "Input handling", "Output generation"}
	}
	if len(out.KeyFeatures) > maxKeyFeatures {
		out.KeyFeatures = out.KeyFeatures[:maxKeyFeatures]
	}
	if out.Approach == "" {
		out.Approach = fmt.Sprintf("Implement using clean, modular %s code.", language)
	}
	if out.Considerations == "" {
		out.Considerations = "Ensure correctness, performance, and maintainability."
	}

	return out
}

func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•")
}

func stripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-*• "))
}
