package calc

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"Quill/internal/errs"
)

const (
	maxExponent  = 1000
	maxMagnitude = 1e100
	maxFactorial = 100
)

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type function struct {
	arity []int
	call  func(s *state, args []float64) (float64, error)
}

func unary(f func(float64) float64) function {
	return function{arity: []int{1}, call: func(s *state, args []float64) (float64, error) {
		return s.domain(f(args[0]))
	}}
}

// functions is the user-callable allow-list.
var functions = map[string]function{
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"exp":   unary(math.Exp),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"log10": {arity: []int{1}, call: func(s *state, args []float64) (float64, error) {
		if args[0] <= 0 {
			return 0, s.fail(errs.InvalidInput, "Invalid input - math domain error")
		}
		return math.Log10(args[0]), nil
	}},
	"log": {arity: []int{1, 2}, call: func(s *state, args []float64) (float64, error) {
		if args[0] <= 0 {
			return 0, s.fail(errs.InvalidInput, "Invalid input - math domain error")
		}
		if len(args) == 1 {
			return math.Log(args[0]), nil
		}
		if args[1] <= 0 || args[1] == 1 {
			return 0, s.fail(errs.InvalidInput, "Invalid input - math domain error")
		}
		return math.Log(args[0]) / math.Log(args[1]), nil
	}},
	"round": {arity: []int{1, 2}, call: func(s *state, args []float64) (float64, error) {
		if len(args) == 1 {
			return math.RoundToEven(args[0]), nil
		}
		if args[1] != math.Trunc(args[1]) {
			return 0, s.fail(errs.InvalidInput, "Invalid input - round() digits must be an integer")
		}
		scale := math.Pow(10, args[1])
		return math.RoundToEven(args[0]*scale) / scale, nil
	}},
	"pow": {arity: []int{2}, call: func(s *state, args []float64) (float64, error) {
		return s.pow(args[0], args[1])
	}},
	"factorial": {arity: []int{1}, call: func(s *state, args []float64) (float64, error) {
		n := args[0]
		if n != math.Trunc(n) {
			return 0, s.fail(errs.InvalidInput, "Invalid input for factorial calculation")
		}
		v, err := factorial(int64(n))
		if err != nil {
			return 0, s.record(err)
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	}},
	"compound": {arity: []int{3}, call: func(s *state, args []float64) (float64, error) {
		p, r, t := args[0], args[1], args[2]
		growth, err := s.pow(1+r/100, t)
		if err != nil {
			return 0, err
		}
		return p * growth, nil
	}},
	"simple": {arity: []int{3}, call: func(s *state, args []float64) (float64, error) {
		p, r, t := args[0], args[1], args[2]
		return p * r * t / 100, nil
	}},
}

// operators are rewritten into these calls before compilation; they are not
// reachable from user input.
var internalFunctions = map[string]function{
	"div": {arity: []int{2}, call: func(s *state, args []float64) (float64, error) {
		if args[1] == 0 {
			return 0, s.fail(errs.DivisionByZero, "Division by zero")
		}
		return args[0] / args[1], nil
	}},
	"pow": functions["pow"],
}

// Functions lists the callable function names.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Constants lists the resolvable constant names.
func Constants() []string {
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// state records the first structured fault raised while one expression runs.
type state struct {
	fault *errs.Error
}

func (s *state) fail(kind errs.Kind, msg string) error {
	return s.record(errs.New(kind, op, msg))
}

func (s *state) record(err *errs.Error) error {
	if s.fault == nil {
		s.fault = err
	}
	return s.fault
}

func (s *state) domain(v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, s.fail(errs.InvalidInput, "Invalid input - math domain error")
	}
	return v, nil
}

func (s *state) pow(base, exp float64) (float64, error) {
	if err := checkPowBounds(base, exp); err != nil {
		return 0, s.record(err)
	}
	if base == 0 && exp < 0 {
		return 0, s.fail(errs.DivisionByZero, "Division by zero")
	}
	return s.domain(math.Pow(base, exp))
}

func checkPowBounds(base, exp float64) *errs.Error {
	if math.Abs(exp) > maxExponent {
		return errs.Newf(errs.ResultTooLarge, op, "Exponent too large (max: %d)", maxExponent).With("exponent", exp)
	}
	if math.Abs(base) > maxMagnitude {
		return errs.New(errs.ResultTooLarge, op, "Base number too large").With("base", base)
	}
	return nil
}

func factorial(n int64) (*big.Int, *errs.Error) {
	if n < 0 {
		return nil, errs.New(errs.InvalidInput, op, "Factorial is not defined for negative numbers")
	}
	if n > maxFactorial {
		return nil, errs.Newf(errs.ResultTooLarge, op, "Factorial too large (max: %d)", maxFactorial).With("n", n)
	}
	return new(big.Int).MulRange(1, n), nil
}

func (f function) bind(s *state, name string) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if !f.accepts(len(params)) {
			return nil, s.fail(errs.InvalidInput,
				fmt.Sprintf("Invalid calculation - %s() takes %s argument(s), got %d", name, f.arityText(), len(params)))
		}
		args := make([]float64, len(params))
		for i, p := range params {
			v, ok := toFloat(p)
			if !ok {
				return nil, s.fail(errs.InvalidInput,
					fmt.Sprintf("Invalid calculation - %s() expects numbers", name))
			}
			args[i] = v
		}
		return f.call(s, args)
	}
}

func (f function) accepts(n int) bool {
	for _, a := range f.arity {
		if a == n {
			return true
		}
	}
	return false
}

func (f function) arityText() string {
	if len(f.arity) == 1 {
		return fmt.Sprint(f.arity[0])
	}
	return fmt.Sprintf("%d or %d", f.arity[0], f.arity[len(f.arity)-1])
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
