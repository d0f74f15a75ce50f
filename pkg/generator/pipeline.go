package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"codegen/pkg/agent/llm"
	"codegen/pkg/agent/middleware/metrics"
	"codegen/pkg/config"
	"codegen/pkg/logx"
)

// ClientFactory creates an LLM client for the pipeline. The pipeline passes
// itself as the stage provider so metrics are attributed to the active
// stage and generation.
type ClientFactory interface {
	CreateClient(stageProvider metrics.StageProvider) (llm.Client, error)
}

// Pipeline runs the four generation stages in order and assembles the
// formatted result texts. A single pipeline is safe for concurrent use,
// but concurrent generations share stage attribution, so callers that
// need precise metrics should serialize.
type Pipeline struct {
	planner  *Planner
	designer *Designer
	coder    *Coder
	tester   *Tester

	outputDir string
	logger    *logx.Logger

	mu           sync.Mutex
	currentStage string
	generationID string
}

// NewPipeline wires the four stages with clients from the factory, using
// per-stage settings from the config.
func NewPipeline(factory ClientFactory, cfg *config.Config) (*Pipeline, error) {
	p := &Pipeline{
		outputDir: cfg.OutputDir,
		logger:    logx.NewLogger("pipeline"),
	}

	client, err := factory.CreateClient(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	p.planner = NewPlanner(client, cfg.StageSettings(config.StagePlanner))
	p.designer = NewDesigner(client, cfg.StageSettings(config.StageDesigner))
	p.coder = NewCoder(client, cfg.StageSettings(config.StageCoder))
	p.tester = NewTester(client, cfg.StageSettings(config.StageTester))

	return p, nil
}

// GetCurrentStage implements StageProvider.
func (p *Pipeline) GetCurrentStage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentStage
}

// GetGenerationID implements StageProvider.
func (p *Pipeline) GetGenerationID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generationID
}

func (p *Pipeline) setStage(stage string) {
	p.mu.Lock()
	p.currentStage = stage
	p.mu.Unlock()
}

func (p *Pipeline) beginGeneration() string {
	id := uuid.New().String()
	p.mu.Lock()
	p.generationID = id
	p.currentStage = config.StagePlanner
	p.mu.Unlock()
	return id
}

// Generate runs the full pipeline for one request and returns the formatted
// stage texts plus the raw coder output.
func (p *Pipeline) Generate(ctx context.Context, description, language string) (Result, error) {
	id := p.beginGeneration()
	p.logger.Info("generation %s started: language=%s", id, language)

	p.setStage(config.StagePlanner)
	plan, err := p.planner.Plan(ctx, description, language)
	if err != nil {
		p.logger.Error("generation %s: %v", id, err)
		return Result{}, err
	}

	p.setStage(config.StageDesigner)
	design, err := p.designer.Design(ctx, plan, language)
	if err != nil {
		p.logger.Error("generation %s: %v", id, err)
		return Result{}, err
	}

	p.setStage(config.StageCoder)
	code, err := p.coder.Generate(ctx, description, design, language)
	if err != nil {
		p.logger.Error("generation %s: %v", id, err)
		return Result{}, err
	}

	p.setStage(config.StageTester)
	review, err := p.tester.Review(ctx, description, code, language)
	if err != nil {
		p.logger.Error("generation %s: %v", id, err)
		return Result{}, err
	}

	p.logger.Info("generation %s complete: filename=%s production_ready=%t",
		id, code.Filename, review.IsProductionReady)

	return Result{
		Planning:    formatPlan(plan),
		Design:      formatDesign(design),
		Code:        code.Code,
		Testing:     formatReview(review),
		Filename:    code.Filename,
		RawCode:     code.Code,
		Explanation: code.Explanation,
	}, nil
}

// SaveCode writes the generated code to the pipeline's output directory and
// returns the full path.
func (p *Pipeline) SaveCode(res Result) (string, error) {
	if res.Filename == "" {
		return "", fmt.Errorf("result has no filename")
	}
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(p.outputDir, res.Filename)
	if err := os.WriteFile(path, []byte(res.RawCode), 0o644); err != nil {
		return "", fmt.Errorf("failed to write code file: %w", err)
	}

	p.logger.Info("saved generated code to %s", path)
	return path, nil
}

func formatPlan(plan PlannerOutput) string {
	return fmt.Sprintf(
		"Project Overview:\n%s\n\nKey Features:\n%s\n\nApproach:\n%s\n\nConsiderations:\n%s",
		plan.ProjectOverview,
		bulletList(plan.KeyFeatures),
		plan.Approach,
		plan.Considerations,
	)
}

func formatDesign(design DesignerOutput) string {
	return fmt.Sprintf(
		"Architecture:\n%s\n\nComponents:\n%s\n\nData Structures:\n%s\n\nFunction Signatures:\n%s",
		design.Architecture,
		bulletList(design.Components),
		design.DataStructures,
		design.FunctionSignatures,
	)
}

func formatReview(review TesterOutput) string {
	results := make([]string, 0, len(review.TestResults))
	for _, tc := range review.TestResults {
		status := "PASS"
		if !tc.Passed {
			status = "FAIL"
		}
		results = append(results, fmt.Sprintf("- %s: %s (%s)", tc.Name, status, tc.Details))
	}

	ready := "NO"
	if review.IsProductionReady {
		ready = "YES"
	}

	return fmt.Sprintf(
		"Overall Quality: %s\n\nTest Results:\n%s\n\nIssues Found:\n%s\n\nSuggestions:\n%s\n\nProduction Ready: %s",
		review.OverallQuality,
		strings.Join(results, "\n"),
		strings.Join(orNone(review.IssuesFound), "\n"),
		strings.Join(orNone(review.Suggestions), "\n"),
		ready,
	)
}

func orNone(items []string) []string {
	if len(items) == 0 {
		return []string{"None"}
	}
	return items
}
