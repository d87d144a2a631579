package types

// Capability is one routed behavior the agent can perform.
type Capability int

const (
	FreeForm Capability = iota
	Arithmetic
	DatasetAnalysis
	CodeExecution
	WebSearch
	Encyclopedia
	URLFetch
)

func (c Capability) String() string {
	switch c {
	case Arithmetic:
		return "arithmetic"
	case DatasetAnalysis:
		return "dataset_analysis"
	case CodeExecution:
		return "code_execution"
	case WebSearch:
		return "web_search"
	case Encyclopedia:
		return "encyclopedia"
	case URLFetch:
		return "url_fetch"
	default:
		return "free_form"
	}
}

// Tool names as exposed to the model. FreeForm has no tool.
const (
	ToolCalculator   = "calculator"
	ToolDataAnalysis = "data_analysis"
	ToolScript       = "script"
	ToolWebSearch    = "web_search"
	ToolWikipedia    = "wikipedia"
	ToolURLFetch     = "url_fetch"
)

var toolNames = map[Capability]string{
	Arithmetic:      ToolCalculator,
	DatasetAnalysis: ToolDataAnalysis,
	CodeExecution:   ToolScript,
	WebSearch:       ToolWebSearch,
	Encyclopedia:    ToolWikipedia,
	URLFetch:        ToolURLFetch,
}

// ToolName returns the tool that owns the capability, or "" for FreeForm.
func (c Capability) ToolName() string {
	return toolNames[c]
}

// CapabilityForTool maps a tool name back to its capability.
func CapabilityForTool(name string) (Capability, bool) {
	for c, n := range toolNames {
		if n == name {
			return c, true
		}
	}
	return FreeForm, false
}

// Signal records how a routing decision was reached.
type Signal int

const (
	// Heuristic decisions come from the deterministic rule list.
	Heuristic Signal = iota
	// Explicit decisions come from a structured function call issued by the model.
	Explicit
)

func (s Signal) String() string {
	if s == Explicit {
		return "explicit"
	}
	return "heuristic"
}

// RoutingDecision is produced once per request and consumed by exactly one handler.
type RoutingDecision struct {
	Capability Capability
	Input      string
	Signal     Signal
	Rule       string
}
