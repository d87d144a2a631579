// Package sandbox runs Tengo scripts against a persistent, restricted
// namespace and captures what they print.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"

	"Quill/internal/errs"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxAllocs = 5_000_000

	// Success is returned when a run printed nothing and set no output.
	Success = "Code executed successfully."
)

// Options configures an Executor.
type Options struct {
	Timeout   time.Duration
	MaxAllocs int64
	Logger    *zap.Logger
}

// Executor runs scripts. It holds no state of its own; everything that
// survives a run lives in the Context passed to Execute.
type Executor struct {
	timeout   time.Duration
	maxAllocs int64
	logger    *zap.Logger
}

// New creates an Executor, filling unset options with defaults.
func New(opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAllocs <= 0 {
		opts.MaxAllocs = DefaultMaxAllocs
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Executor{
		timeout:   opts.Timeout,
		maxAllocs: opts.MaxAllocs,
		logger:    opts.Logger,
	}
}

// Execute prepares code and runs it against sc. The result is whatever the
// script printed, the value of its "output" variable when nothing was
// printed, or Success.
//
// Globals the script defines are stored back into sc, including after a
// runtime fault. Compiled functions are not carried across runs.
func (e *Executor) Execute(ctx context.Context, sc *Context, code string) (string, error) {
	const op = "sandbox.execute"

	src, err := Prepare(code)
	if err != nil {
		return "", err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.out.Reset()

	bindings := helpers(&sc.out)
	known := func(name string) bool {
		return sc.has(name) || bindings[name] != nil || name == "output"
	}
	script := tengo.NewScript(redeclarations([]byte(src), known))

	modules := stdlib.GetModuleMap(moduleNames...)
	modules.AddBuiltinModule("fmt", fmtModule(&sc.out))
	script.SetImports(modules)
	script.SetMaxAllocs(e.maxAllocs)

	for name, obj := range sc.vars {
		if err := script.Add(name, obj); err != nil {
			return "", errs.Wrap(errs.ToolError, op, err, "Could not restore execution context")
		}
	}
	for name, obj := range bindings {
		if err := script.Add(name, obj); err != nil {
			return "", errs.Wrap(errs.ToolError, op, err, "Could not prepare execution context")
		}
	}
	if err := script.Add("output", ""); err != nil {
		return "", errs.Wrap(errs.ToolError, op, err, "Could not prepare execution context")
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	compiled, runErr := script.RunContext(runCtx)
	if compiled != nil {
		e.persist(sc, compiled)
	}
	if runErr != nil {
		err := e.classify(runErr)
		e.logger.Debug("script failed",
			zap.String("session", sc.SessionID()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", runErr.Error()),
		)
		return "", err
	}

	e.logger.Debug("script finished",
		zap.String("session", sc.SessionID()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("globals", len(sc.vars)),
	)

	if printed := strings.TrimSpace(sc.out.String()); printed != "" {
		return printed, nil
	}
	if out := compiled.Get("output"); !out.IsUndefined() && out.String() != "" {
		return out.String(), nil
	}
	return Success, nil
}

func (e *Executor) persist(sc *Context, compiled *tengo.Compiled) {
	for _, v := range compiled.GetAll() {
		name := v.Name()
		if helperNames[name] {
			continue
		}
		obj := v.Object()
		if obj == nil || obj == tengo.UndefinedValue || !persistable(obj) {
			continue
		}
		sc.vars[name] = obj
	}
}

// persistable reports whether obj can be handed to a later run. Compiled
// functions reference the constants of the program that created them.
func persistable(obj tengo.Object) bool {
	switch o := obj.(type) {
	case *tengo.CompiledFunction:
		return false
	case *tengo.Array:
		for _, item := range o.Value {
			if !persistable(item) {
				return false
			}
		}
	case *tengo.ImmutableArray:
		for _, item := range o.Value {
			if !persistable(item) {
				return false
			}
		}
	case *tengo.Map:
		for _, item := range o.Value {
			if !persistable(item) {
				return false
			}
		}
	case *tengo.ImmutableMap:
		for _, item := range o.Value {
			if !persistable(item) {
				return false
			}
		}
	}
	return true
}

func (e *Executor) classify(err error) error {
	const op = "sandbox.execute"
	msg := firstLine(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ToolError, op, err,
			fmt.Sprintf("Code execution timed out after %s", e.timeout)).With("timeout", e.timeout.String())
	case errors.Is(err, context.Canceled):
		return errs.Wrap(errs.ToolError, op, err, "Code execution was cancelled")
	case errors.Is(err, tengo.ErrObjectAllocLimit):
		return errs.Wrap(errs.ToolError, op, err, "Code execution exceeded the allocation limit").
			With("max_allocs", e.maxAllocs)
	case strings.HasPrefix(msg, "Compile Error:"):
		return errs.Wrap(errs.InvalidSyntax, op, err,
			"Code could not be compiled: "+strings.TrimSpace(strings.TrimPrefix(msg, "Compile Error:")))
	default:
		return errs.Wrap(errs.ToolError, op, err,
			"Code execution failed: "+strings.TrimSpace(strings.TrimPrefix(msg, "Runtime Error:")))
	}
}
