// Package generator implements the four-stage code generation pipeline:
// planning, design, code generation, and testing. Each stage is a single
// LLM call whose text output is parsed into a structured form with hard
// fallbacks, so a malformed model response never fails the pipeline.
package generator

// PlannerOutput is the structured result of the planning stage.
type PlannerOutput struct {
	ProjectOverview string   // Brief overview of what needs to be built
	KeyFeatures     []string // Essential features only
	Approach        string   // High-level implementation approach
	Considerations  string   // Critical constraints or notes
}

// DesignerOutput is the structured result of the design stage.
type DesignerOutput struct {
	Architecture       string   // System architecture and structure
	Components         []string // Main components/modules
	DataStructures     string   // Key data structures or models
	FunctionSignatures string   // Main functions/methods to implement
}

// CoderOutput is the structured result of the code generation stage.
type CoderOutput struct {
	Code        string // The generated source code
	Filename    string // Suggested filename for the code
	Explanation string // Brief explanation of the code
}

// TestCase is an individual check reported by the testing stage.
type TestCase struct {
	Name    string
	Passed  bool
	Details string
}

// TesterOutput is the structured result of the testing stage.
type TesterOutput struct {
	OverallQuality    string
	TestResults       []TestCase
	IssuesFound       []string
	Suggestions       []string
	IsProductionReady bool
}

// Result bundles the formatted text of all four stages, exactly as the web
// API returns them and the CLI prints them, plus the raw coder output for
// saving the generated file.
type Result struct {
	Planning string `json:"planning"`
	Design   string `json:"design"`
	Code     string `json:"code"`
	Testing  string `json:"testing"`

	// Raw coder output, not part of the wire response.
	Filename    string `json:"-"`
	RawCode     string `json:"-"`
	Explanation string `json:"-"`
}

// extensionByLanguage maps a (lowercased) language name to a file extension
// for the saved code file.
//
//nolint:gochecknoglobals // Static lookup table.
var extensionByLanguage = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"java":       ".java",
	"cpp":        ".cpp",
	"c++":        ".cpp",
	"c":          ".c",
	"go":         ".go",
	"rust":       ".rs",
	"ruby":       ".rb",
	"php":        ".php",
	"typescript": ".ts",
	"swift":      ".swift",
	"kotlin":     ".kt",
}

// maxKeyFeatures caps the planner feature list to avoid token bloat downstream.
const maxKeyFeatures = 8

// maxExplanationLen caps the coder explanation length.
const maxExplanationLen = 500
