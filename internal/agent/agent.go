// Package agent turns user messages into exactly one capability dispatch:
// deterministic routing first, the language model for everything else.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Quill/internal/errs"
	"Quill/internal/logging"
	"Quill/internal/memory"
	"Quill/internal/router"
	"Quill/internal/sandbox"
	"Quill/internal/tools"
	"Quill/pkg/types"
)

// Action records one tool dispatch.
type Action struct {
	Tool       string
	Input      string
	Output     string
	Capability types.Capability
	Signal     types.Signal
	Rule       string
	Failed     bool
	Time       time.Time
	Duration   time.Duration
}

// Options wires an Agent. Router, History, Stats and Logger default to fresh
// instances; a nil Completer leaves free-form requests unanswered.
type Options struct {
	Router    *router.Router
	Registry  *tools.Registry
	Completer Completer
	History   *memory.History
	// Scratch is the script namespace cleared by ClearHistory.
	Scratch      *sandbox.Context
	Logger       *zap.Logger
	Stats        *Stats
	SystemPrompt string
	Model        string
	Temperature  float32
	// TextTools describes tools in the prompt instead of sending function
	// definitions.
	TextTools bool
}

type Agent struct {
	router    *router.Router
	registry  *tools.Registry
	completer Completer
	history   *memory.History
	scratch   *sandbox.Context
	logger    *zap.Logger
	stats     *Stats
	system    string
	model     string
	temp      float32
	textTools bool

	mu      sync.Mutex
	actions []Action
}

// New creates an agent.
func New(opts Options) *Agent {
	a := &Agent{
		router:    opts.Router,
		registry:  opts.Registry,
		completer: opts.Completer,
		history:   opts.History,
		scratch:   opts.Scratch,
		logger:    opts.Logger,
		stats:     opts.Stats,
		system:    opts.SystemPrompt,
		model:     opts.Model,
		temp:      opts.Temperature,
		textTools: opts.TextTools,
	}
	if a.router == nil {
		a.router = router.New()
	}
	if a.registry == nil {
		if a.scratch == nil {
			a.scratch = sandbox.NewContext("")
		}
		a.registry = tools.NewDefaultRegistry(tools.Deps{Context: a.scratch})
	}
	if a.scratch == nil {
		if t, ok := a.registry.Get(types.ToolScript); ok {
			if st, ok := t.(*tools.ScriptTool); ok {
				a.scratch = st.Context()
			}
		}
	}
	if a.history == nil {
		a.history = memory.NewHistory(memory.DefaultMaxMessages, "")
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.stats == nil {
		a.stats = NewStats()
	}
	if a.system == "" {
		a.system = SystemMessage(DefaultContext)
	}
	return a
}

// Process answers one user message. It never fails: every fault is turned
// into a short user-facing error line.
func (a *Agent) Process(ctx context.Context, message string) (reply string) {
	start := time.Now()
	turn := TurnStat{Model: a.model}
	defer func() {
		if r := recover(); r != nil {
			err := errs.New(errs.ToolError, "agent.process", "The tool failed to complete the request").With("panic", fmt.Sprint(r))
			reply = errs.Report(a.logger, "agent.process", err)
			turn.Failed = true
		}
		turn.Duration = time.Since(start)
		a.stats.Record(turn)
	}()

	decision, err := a.router.Route(message)
	if err != nil {
		turn.Failed = true
		return errs.Report(a.logger, "agent.process", err)
	}
	a.history.Add(memory.RoleUser, decision.Input)
	a.logger.Debug("routed",
		zap.String("capability", decision.Capability.String()),
		zap.String("signal", decision.Signal.String()),
		zap.String("rule", decision.Rule),
	)

	if decision.Capability != types.FreeForm {
		turn.Capability, turn.Tool = decision.Capability.String(), decision.Capability.ToolName()
		reply, turn.Failed = a.dispatch(ctx, decision)
		return reply
	}

	turn.Capability = types.FreeForm.String()
	resp, err := a.complete(ctx)
	turn.InputTokens, turn.OutputTokens = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	if err != nil {
		turn.Failed = true
		return errs.Report(a.logger, "agent.complete", err)
	}

	if d, ok, err := a.modelDecision(resp); err != nil {
		turn.Failed = true
		return errs.Report(a.logger, "agent.process", err)
	} else if ok {
		turn.Capability, turn.Tool = d.Capability.String(), d.Capability.ToolName()
		reply, turn.Failed = a.dispatch(ctx, d)
		return reply
	}

	a.history.Add(memory.RoleAssistant, resp.Content)
	return resp.Content
}

func (a *Agent) complete(ctx context.Context) (Response, error) {
	if a.completer == nil {
		return Response{}, errs.New(errs.ConfigurationError, "agent.complete",
			"No language model configured; only calculations, datasets and scripts can be answered")
	}
	req := Request{
		System:      a.system,
		Messages:    a.history.Messages(),
		Temperature: a.temp,
	}
	if a.textTools {
		req.System += "\n\n" + tools.FormatToolsForPrompt(a.registry.All())
	} else {
		defs, err := tools.Definitions(a.registry.All())
		if err != nil {
			return Response{}, errs.Wrap(errs.ToolError, "agent.complete", err, "Could not describe tools")
		}
		req.Tools = defs
	}
	return a.completer.Complete(ctx, req)
}

// modelDecision turns a function call, or failing that the first
// ```tool:<name> block of the text, into a routing decision.
func (a *Agent) modelDecision(resp Response) (types.RoutingDecision, bool, error) {
	const op = "agent.decide"
	var name, input string
	switch {
	case resp.Call != nil:
		args, err := tools.DecodeArgs(resp.Call.Arguments)
		if err != nil {
			return types.RoutingDecision{}, false, err
		}
		name, input = resp.Call.Name, args.Query
	default:
		calls := tools.ParseToolCalls(resp.Content)
		if len(calls) == 0 {
			return types.RoutingDecision{}, false, nil
		}
		name, input = calls[0].Name, calls[0].Input
	}

	c, ok := types.CapabilityForTool(name)
	if !ok {
		return types.RoutingDecision{}, false, errs.Newf(errs.ToolError, op, "Tool %s not found", name)
	}
	return router.Decide(c, input), true, nil
}

// dispatch runs the tool owning d.Capability. It reports whether the tool failed.
func (a *Agent) dispatch(ctx context.Context, d types.RoutingDecision) (string, bool) {
	name := d.Capability.ToolName()
	tool, ok := a.registry.ForCapability(d.Capability)
	if !ok {
		err := errs.Newf(errs.ConfigurationError, "agent.dispatch", "The %s tool is not available", name)
		return errs.Report(a.logger, "agent.dispatch", err), true
	}

	start := time.Now()
	res := a.registry.Execute(ctx, tools.ToolCall{
		Name:  tool.Name(),
		Input: d.Input,
		Args:  map[string]any{"signal": d.Signal.String()},
	})
	output, failed := res.Output, res.Error != nil
	if failed {
		output = errs.Report(a.logger, "tools."+name, res.Error)
	}
	logging.ToolCall(a.logger, name, d.Input, output)

	a.mu.Lock()
	a.actions = append(a.actions, Action{
		Tool:       name,
		Input:      d.Input,
		Output:     output,
		Capability: d.Capability,
		Signal:     d.Signal,
		Rule:       d.Rule,
		Failed:     failed,
		Time:       start,
		Duration:   time.Since(start),
	})
	a.mu.Unlock()

	a.history.AddTool(name, output)
	return output, failed
}

// Actions returns the tool dispatches so far, oldest first.
func (a *Agent) Actions() []Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Action(nil), a.actions...)
}

// History returns the conversation history.
func (a *Agent) History() *memory.History {
	return a.history
}

// Stats returns the session statistics.
func (a *Agent) Stats() *Stats {
	return a.stats
}

// Registry returns the tools the agent dispatches to.
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Variable is one script global kept between turns.
type Variable struct {
	Name  string
	Value string
}

// Variables returns the script globals, ordered by name.
func (a *Agent) Variables() []Variable {
	if a.scratch == nil {
		return nil
	}
	names := a.scratch.Keys()
	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		vars = append(vars, Variable{Name: name, Value: a.scratch.GetString(name)})
	}
	return vars
}

// ClearHistory forgets the conversation, the recorded actions and every
// script variable.
func (a *Agent) ClearHistory() {
	a.history.Clear()
	a.mu.Lock()
	a.actions = nil
	a.mu.Unlock()
	if a.scratch != nil {
		a.scratch.Clear()
	}
}
