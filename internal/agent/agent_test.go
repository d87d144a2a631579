package agent

import (
	"context"
	"strings"
	"testing"

	"Quill/internal/errs"
	"Quill/internal/memory"
	"Quill/internal/sandbox"
	"Quill/internal/tools"
	"Quill/pkg/types"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeCompleter struct {
	resp  Response
	err   error
	calls int
	last  Request
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (Response, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

type panicTool struct{}

func (panicTool) Name() string { return types.ToolWebSearch }
func (panicTool) Description() string { return "panics" }
func (panicTool) Capability() types.Capability { return types.WebSearch }
func (panicTool) Execute(context.Context, string) (string, error) { panic("boom") }

func TestProcessHeuristicRouting(t *testing.T) {
	llm := &fakeCompleter{}
	a := New(Options{Completer: llm})

	tests := []struct {
		input string
		want  string
		tool  string
		rule  string
	}{
		{"2 + 2", "4", "calculator", "digit-operator"},
		{"factorial(5)", "120", "calculator", "function-prefix"},
		{"10/0", "Error: Division by zero", "calculator", "digit-operator"},
	}
	for _, tt := range tests {
		if got := a.Process(context.Background(), tt.input); got != tt.want {
			t.Errorf("Process(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if llm.calls != 0 {
		t.Errorf("model called %d times for heuristic input", llm.calls)
	}

	actions := a.Actions()
	if len(actions) != len(tests) {
		t.Fatalf("got %d actions, want %d", len(actions), len(tests))
	}
	for i, tt := range tests {
		act := actions[i]
		if act.Tool != tt.tool || act.Rule != tt.rule || act.Signal != types.Heuristic {
			t.Errorf("action %d = %+v", i, act)
		}
	}
	if !actions[2].Failed || actions[0].Failed {
		t.Errorf("failure flags wrong: %v %v", actions[0].Failed, actions[2].Failed)
	}

	total, failed := a.Stats().Count()
	if total != 3 || failed != 1 {
		t.Errorf("Count = %d, %d, want 3, 1", total, failed)
	}
}

func TestProcessFunctionCall(t *testing.T) {
	llm := &fakeCompleter{resp: Response{
		Call:  &FunctionCall{Name: "calculator", Arguments: `{"query": "3 * 3"}`},
		Usage: Usage{PromptTokens: 50, CompletionTokens: 5},
	}}
	a := New(Options{Completer: llm, Model: "gpt-4o-mini"})

	if got := a.Process(context.Background(), "what is three times three"); got != "9" {
		t.Fatalf("Process = %q, want 9", got)
	}
	if len(llm.last.Tools) != 3 {
		t.Errorf("sent %d tool definitions, want 3", len(llm.last.Tools))
	}
	if !strings.HasPrefix(llm.last.System, "You are a helpful assistant") {
		t.Errorf("unexpected system prompt %q", llm.last.System)
	}

	actions := a.Actions()
	if len(actions) != 1 || actions[0].Signal != types.Explicit || actions[0].Input != "3 * 3" {
		t.Fatalf("actions = %+v", actions)
	}

	stats := a.Stats()
	if stats.TotalTokens.Input != 50 || stats.TotalTokens.Output != 5 {
		t.Errorf("tokens = %+v", stats.TotalTokens)
	}
	if stats.ToolUsage()["calculator"] != 1 {
		t.Errorf("ToolUsage = %v", stats.ToolUsage())
	}
}

func TestProcessTextProtocol(t *testing.T) {
	llm := &fakeCompleter{resp: Response{Content: "Let me compute.\n```tool:calculator\n5 * 5\n```"}}
	a := New(Options{Completer: llm, TextTools: true})

	if got := a.Process(context.Background(), "five squared please"); got != "25" {
		t.Fatalf("Process = %q, want 25", got)
	}
	if llm.last.Tools != nil {
		t.Errorf("text mode sent function definitions")
	}
	if !strings.Contains(llm.last.System, "calculator") {
		t.Errorf("text mode system prompt lacks tool list: %q", llm.last.System)
	}
}

func TestProcessPlainReply(t *testing.T) {
	llm := &fakeCompleter{resp: Response{Content: "Hello there."}}
	a := New(Options{Completer: llm})

	if got := a.Process(context.Background(), "hi"); got != "Hello there." {
		t.Fatalf("Process = %q", got)
	}
	msgs := a.History().Messages()
	if len(msgs) != 2 || msgs[0].Role != memory.RoleUser || msgs[1].Role != memory.RoleAssistant {
		t.Errorf("history = %+v", msgs)
	}
	if len(a.Actions()) != 0 {
		t.Errorf("plain reply recorded an action")
	}
}

func TestProcessFailures(t *testing.T) {
	tests := []struct {
		name string
		llm  Completer
		reg  *tools.Registry
		in   string
		want string
	}{
		{
			name: "empty input",
			llm:  &fakeCompleter{},
			in:   "   ",
			want: "Error: Input must not be empty",
		},
		{
			name: "no model",
			in:   "tell me a story",
			want: "Error: No language model configured",
		},
		{
			name: "auth failure",
			llm:  &fakeCompleter{err: errs.New(errs.AuthenticationError, "agent.complete", "Authentication failed, check your API key")},
			in:   "tell me a story",
			want: "Error: Authentication failed, check your API key",
		},
		{
			name: "unknown tool",
			llm:  &fakeCompleter{resp: Response{Call: &FunctionCall{Name: "weather", Arguments: `{"query":"x"}`}}},
			in:   "weather in Paris",
			want: "Error: Tool weather not found",
		},
		{
			name: "tool not configured",
			llm:  &fakeCompleter{resp: Response{Call: &FunctionCall{Name: "web_search", Arguments: `{"query":"golang"}`}}},
			in:   "search golang",
			want: "Error: The web_search tool is not available",
		},
		{
			name: "missing arguments",
			llm:  &fakeCompleter{resp: Response{Call: &FunctionCall{Name: "calculator"}}},
			in:   "compute something",
			want: "Error: Missing tool arguments",
		},
		{
			name: "tool panic",
			llm:  &fakeCompleter{resp: Response{Call: &FunctionCall{Name: "web_search", Arguments: `{"query":"golang"}`}}},
			reg:  tools.NewRegistry(panicTool{}),
			in:   "search golang",
			want: "Error: The tool failed to complete the request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Options{Completer: tt.llm, Registry: tt.reg})
			got := a.Process(context.Background(), tt.in)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Process(%q) = %q, want prefix %q", tt.in, got, tt.want)
			}
			if total, failed := a.Stats().Count(); total != 1 || failed != 1 {
				t.Errorf("Count = %d, %d, want 1, 1", total, failed)
			}
		})
	}
}

func TestClearHistory(t *testing.T) {
	sc := sandbox.NewContext("test")
	llm := &fakeCompleter{resp: Response{Call: &FunctionCall{Name: "script", Arguments: `{"query": "x := 41\nprintln(x + 1)"}`}}}
	a := New(Options{Completer: llm, Scratch: sc})

	if got := a.Process(context.Background(), "run a script"); got != "42" {
		t.Fatalf("Process = %q, want 42", got)
	}
	if _, ok := sc.Get("x"); !ok {
		t.Fatal("script variable was not kept")
	}
	if vars := a.Variables(); len(vars) != 1 || vars[0] != (Variable{Name: "x", Value: "41"}) {
		t.Errorf("Variables = %+v", vars)
	}

	a.ClearHistory()
	if a.History().Len() != 0 {
		t.Errorf("history has %d messages after clear", a.History().Len())
	}
	if len(a.Actions()) != 0 {
		t.Errorf("actions survived clear")
	}
	if len(sc.Keys()) != 0 || len(a.Variables()) != 0 {
		t.Errorf("script variables survived clear: %v", sc.Keys())
	}
}

func TestActionsReturnsCopy(t *testing.T) {
	a := New(Options{})
	a.Process(context.Background(), "1 + 1")

	actions := a.Actions()
	actions[0].Tool = "changed"
	if a.Actions()[0].Tool != "calculator" {
		t.Error("Actions exposed internal state")
	}
}

func TestDispatchFailureLogsCallContext(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	a := New(Options{Logger: zap.New(core)})

	if got := a.Process(context.Background(), "10/0"); got != "Error: Division by zero" {
		t.Fatalf("Process = %q", got)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d error entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != "DivisionByZero" {
		t.Errorf("kind = %v", fields["kind"])
	}
	args, ok := fields["args"].(map[string]any)
	if !ok {
		t.Fatalf("args = %#v", fields["args"])
	}
	if args["input"] != "10/0" || args["signal"] != "heuristic" {
		t.Errorf("args = %v", args)
	}
}
