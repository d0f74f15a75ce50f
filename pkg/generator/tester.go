package generator

import (
	"context"
	"fmt"
	"strings"

	"codegen/pkg/agent/llm"
	"codegen/pkg/config"
)

// Tester reviews the generated code for quality and issues. It is the final
// stage of the pipeline.
type Tester struct {
	client   llm.Client
	settings config.StageConfig
}

// NewTester creates a tester stage backed by the given client.
func NewTester(client llm.Client, settings config.StageConfig) *Tester {
	return &Tester{client: client, settings: settings}
}

type testerPromptData struct {
	Description string
	Language    string
	Code        string
}

// Review runs the review stage against the generated code.
func (t *Tester) Review(ctx context.Context, description string, code CoderOutput, language string) (TesterOutput, error) {
	prompts, err := loadPrompts()
	if err != nil {
		return TesterOutput{}, err
	}

	user, err := renderPrompt("tester", prompts.Tester.User, testerPromptData{
		Description: description,
		Language:    language,
		Code:        code.Code,
	})
	if err != nil {
		return TesterOutput{}, err
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewSystemMessage(prompts.Tester.System),
		llm.NewUserMessage(user),
	})
	req.Temperature = t.settings.Temperature
	req.MaxTokens = t.settings.MaxTokens

	resp, err := t.client.Complete(ctx, req)
	if err != nil {
		return TesterOutput{}, fmt.Errorf("review stage failed: %w", err)
	}

	return parseTesterResponse(resp.Content), nil
}

// parseTesterResponse extracts the review sections from free-form model
// text. Any listed issue marks the code as not production ready; a clean
// review resets the flag.
func parseTesterResponse(content string) TesterOutput {
	var (
		quality     strings.Builder
		issues      []string
		suggestions []string
	)
	productionReady := true

	section := ""
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "quality") || strings.Contains(lower, "assessment"):
			section = "quality"
		case strings.Contains(lower, "test") && strings.Contains(lower, "result"):
			section = "tests"
		case strings.Contains(lower, "issue") || strings.Contains(lower, "problem") || strings.Contains(lower, "concern"):
			section = "issues"
		case strings.Contains(lower, "suggest") || strings.Contains(lower, "recommend") || strings.Contains(lower, "improve"):
			section = "suggestions"
		case strings.Contains(lower, "production") || strings.Contains(lower, "ready"):
			if strings.Contains(lower, "not") || strings.Contains(lower, "isn't") || strings.Contains(lower, "no") {
				productionReady = false
			}
		}

		if isBulletLine(line) {
			item := stripBullet(line)
			switch section {
			case "issues":
				issues = append(issues, item)
				productionReady = false
			case "suggestions":
				suggestions = append(suggestions, item)
			}
			continue
		}

		if section == "quality" && quality.Len() == 0 {
			quality.WriteString(line + " ")
		}
	}

	out := TesterOutput{
		OverallQuality: strings.TrimSpace(quality.String()),
		IssuesFound:    issues,
		Suggestions:    suggestions,
	}

	out.TestResults = []TestCase{
		{
			Name:    "Syntax Check",
			Passed:  !anyContains(issues, "syntax"),
			Details: "Code syntax appears valid",
		},
		{
			Name:    "Logic Review",
			Passed:  !anyContains(issues, "logic"),
			Details: "Logic flow reviewed",
		},
		{
			Name:    "Best Practices",
			Passed:  len(issues) == 0,
			Details: bestPracticesDetails(len(issues)),
		},
	}

	if out.OverallQuality == "" {
		if len(issues) == 0 {
			out.OverallQuality = "Code review completed. No major issues found."
		} else {
			out.OverallQuality = fmt.Sprintf("Code review completed. %d issues identified.", len(issues))
		}
	}
	if len(out.IssuesFound) == 0 {
		out.IssuesFound = []string{"No critical issues found"}
		productionReady = true
	}
	if len(out.Suggestions) == 0 {
		out.Suggestions = []string{
			"Code appears functional",
			"Consider adding more comments",
			"Test with various inputs",
		}
	}
	out.IsProductionReady = productionReady

	return out
}

func anyContains(items []string, substr string) bool {
	for _, item := range items {
		if strings.Contains(strings.ToLower(item), substr) {
			return true
		}
	}
	return false
}

func bestPracticesDetails(issueCount int) string {
	if issueCount == 0 {
		return "Code follows standard practices"
	}
	return "Some improvements suggested"
}
