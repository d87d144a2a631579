package sandbox

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/montanaflynn/stats"
)

// modules importable from scripts. There is deliberately no "os".
var moduleNames = []string{"math", "text", "times", "rand", "json"}

// helperNames are bound as globals in every run and never persisted.
var helperNames = map[string]bool{}

func init() {
	for name := range helpers(nil) {
		helperNames[name] = true
	}
	helperNames["output"] = true
}

// helpers returns the global bindings injected into every run. Print
// functions write into out.
func helpers(out *bytes.Buffer) map[string]tengo.Object {
	return map[string]tengo.Object{
		"pi": &tengo.Float{Value: math.Pi},
		"e":  &tengo.Float{Value: math.E},

		"sin":  mathFunc("sin", math.Sin),
		"cos":  mathFunc("cos", math.Cos),
		"tan":  mathFunc("tan", math.Tan),
		"log":  mathFunc("log", math.Log),
		"exp":  mathFunc("exp", math.Exp),
		"sqrt": mathFunc("sqrt", math.Sqrt),
		"abs":  mathFunc("abs", math.Abs),

		"mean":     statFunc("mean", stats.Mean),
		"median":   statFunc("median", stats.Median),
		"std":      statFunc("std", stats.StandardDeviationPopulation),
		"stdev":    statFunc("stdev", stats.StandardDeviationSample),
		"variance": statFunc("variance", stats.SampleVariance),
		"min":      statFunc("min", stats.Min),
		"max":      statFunc("max", stats.Max),
		"sum":      statFunc("sum", stats.Sum),

		"print":   printFunc("print", out, " ", "\n"),
		"println": printFunc("println", out, " ", "\n"),
		"printf":  printfFunc(out),
	}
}

// fmtModule replaces the stdlib fmt module so module printing is captured too.
func fmtModule(out *bytes.Buffer) map[string]tengo.Object {
	attrs := map[string]tengo.Object{
		"print":   printFunc("print", out, "", ""),
		"println": printFunc("println", out, " ", "\n"),
		"printf":  printfFunc(out),
	}
	if sprintf, ok := stdlib.BuiltinModules["fmt"]["sprintf"]; ok {
		attrs["sprintf"] = sprintf
	}
	return attrs
}

func printFunc(name string, out *bytes.Buffer, sep, end string) *tengo.UserFunction {
	return &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = display(arg)
		}
		out.WriteString(strings.Join(parts, sep))
		out.WriteString(end)
		return tengo.UndefinedValue, nil
	}}
}

func printfFunc(out *bytes.Buffer) *tengo.UserFunction {
	return &tengo.UserFunction{Name: "printf", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) == 0 {
			return nil, tengo.ErrWrongNumArguments
		}
		format, ok := args[0].(*tengo.String)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "format", Expected: "string", Found: args[0].TypeName()}
		}
		s, err := tengo.Format(format.Value, args[1:]...)
		if err != nil {
			return nil, err
		}
		out.WriteString(s)
		return tengo.UndefinedValue, nil
	}}
}

func display(o tengo.Object) string {
	if s, ok := o.(*tengo.String); ok {
		return s.Value
	}
	return o.String()
}

func mathFunc(name string, f func(float64) float64) *tengo.UserFunction {
	return &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, ok := tengo.ToFloat64(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "first", Expected: "float(compatible)", Found: args[0].TypeName()}
		}
		return &tengo.Float{Value: f(x)}, nil
	}}
}

// statFunc accepts either a single array or a list of numbers.
func statFunc(name string, f func(stats.Float64Data) (float64, error)) *tengo.UserFunction {
	return &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
		data, err := numbers(args)
		if err != nil {
			return nil, err
		}
		v, err := f(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &tengo.Float{Value: v}, nil
	}}
}

func numbers(args []tengo.Object) (stats.Float64Data, error) {
	if len(args) == 0 {
		return nil, tengo.ErrWrongNumArguments
	}
	items := args
	if len(args) == 1 {
		switch arr := args[0].(type) {
		case *tengo.Array:
			items = arr.Value
		case *tengo.ImmutableArray:
			items = arr.Value
		}
	}
	data := make(stats.Float64Data, 0, len(items))
	for _, item := range items {
		if _, isStr := item.(*tengo.String); isStr {
			return nil, tengo.ErrInvalidArgumentType{Name: "values", Expected: "number", Found: item.TypeName()}
		}
		v, ok := tengo.ToFloat64(item)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "values", Expected: "number", Found: item.TypeName()}
		}
		data = append(data, v)
	}
	return data, nil
}
