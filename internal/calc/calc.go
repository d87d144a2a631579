// Package calc evaluates single arithmetic and financial expressions against
// a closed set of functions and constants.
//
// Every expression is parsed and checked against the allow-list before it is
// compiled; compilation itself runs with all expr builtins disabled so an
// identifier missing from the table cannot resolve either way.
package calc

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/parser"

	"Quill/internal/errs"
)

const op = "calc.evaluate"

// Result is the value of an evaluated expression.
type Result struct {
	Value float64
	exact *big.Int
}

func (r Result) String() string {
	if r.exact != nil {
		return r.exact.String()
	}
	if math.Abs(r.Value) < 1e21 {
		return strconv.FormatFloat(r.Value, 'f', -1, 64)
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

// Evaluate computes expression. Failures are *errs.Error values of kind
// InvalidInput, DivisionByZero, Overflow or ResultTooLarge.
func Evaluate(expression string) (Result, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return Result{}, errs.New(errs.InvalidInput, op, "Expression cannot be empty")
	}

	if strings.Contains(expression, "!") || strings.Contains(expression, "factorial") {
		if r, err, handled := factorialShortcut(expression); handled {
			if err != nil {
				return Result{}, err.WithArgs(map[string]any{"expression": expression})
			}
			return r, nil
		}
	}

	r, err := evaluate(expression)
	if err != nil {
		return Result{}, errs.Wrap(errs.InvalidInput, op, err, "Invalid calculation").
			WithArgs(map[string]any{"expression": expression})
	}
	return r, nil
}

// factorialShortcut handles "n!" and "factorial(n)" with a literal integer
// operand. Any other factorial use goes through the general path.
func factorialShortcut(expression string) (Result, *errs.Error, bool) {
	var operand string
	switch {
	case strings.Contains(expression, "!"):
		operand = strings.ReplaceAll(expression, "!", "")
	case strings.HasPrefix(expression, "factorial(") && strings.HasSuffix(expression, ")"):
		operand = expression[len("factorial(") : len(expression)-1]
		if _, err := strconv.Atoi(strings.TrimSpace(operand)); err != nil {
			return Result{}, nil, false
		}
	default:
		return Result{}, nil, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(operand))
	if err != nil {
		return Result{}, errs.New(errs.InvalidInput, op, "Invalid input for factorial calculation"), true
	}
	v, ferr := factorial(int64(n))
	if ferr != nil {
		return Result{}, ferr, true
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return Result{Value: f, exact: v}, nil, true
}

func evaluate(expression string) (Result, error) {
	s := &state{}
	env := make(map[string]any, len(constants))
	for name, v := range constants {
		env[name] = v
	}

	options := []expr.Option{
		expr.Env(env),
		expr.DisableAllBuiltins(),
		expr.Optimize(false),
	}
	for name, f := range functions {
		options = append(options, expr.Function(name, f.bind(s, name)))
	}
	for name, f := range internalFunctions {
		options = append(options, expr.Function(name, f.bind(s, name)))
	}

	config := conf.CreateNew()
	for _, opt := range options {
		opt(config)
	}
	tree, err := parser.ParseWithConfig(expression, config)
	if err != nil {
		return Result{}, invalid(err)
	}
	if err := checkAllowed(tree.Node); err != nil {
		return Result{}, err
	}

	options = append(options, expr.Patch(&arithmetic{}))
	program, err := expr.Compile(expression, options...)
	if err != nil {
		return Result{}, invalid(err)
	}

	out, err := expr.Run(program, env)
	if s.fault != nil {
		return Result{}, s.fault
	}
	if err != nil {
		return Result{}, invalid(err)
	}

	v, ok := toFloat(out)
	if !ok {
		return Result{}, errs.New(errs.InvalidInput, op, "Invalid calculation - expression did not produce a number")
	}
	switch {
	case math.IsNaN(v):
		return Result{}, errs.New(errs.InvalidInput, op, "Invalid input - math domain error")
	case math.IsInf(v, 0):
		return Result{}, errs.New(errs.Overflow, op, "Number too large to compute")
	case math.Abs(v) > maxMagnitude:
		return Result{}, errs.New(errs.ResultTooLarge, op, "Result too large to display").With("value", v)
	}
	return Result{Value: v}, nil
}

// invalid reports an engine error using only the first line of its message;
// the rest is a source snippet.
func invalid(err error) *errs.Error {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	e := errs.New(errs.InvalidInput, op, "Invalid calculation - "+msg)
	e.Cause = err
	e.CauseText = err.Error()
	return e
}

// allowList walks a parsed tree and rejects every node outside the
// arithmetic subset.
type allowList struct {
	err     *errs.Error
	idents  []*ast.IdentifierNode
	callees map[*ast.IdentifierNode]bool
}

func checkAllowed(node ast.Node) *errs.Error {
	v := &allowList{callees: make(map[*ast.IdentifierNode]bool)}
	ast.Walk(&node, v)
	if v.err != nil {
		return v.err
	}
	for _, id := range v.idents {
		if v.callees[id] {
			continue
		}
		if _, ok := constants[id.Value]; !ok {
			return errs.Newf(errs.InvalidInput, op, "Invalid calculation - name '%s' is not defined", id.Value).
				With("name", id.Value)
		}
	}
	return nil
}

func (v *allowList) reject(format string, args ...any) {
	if v.err == nil {
		v.err = errs.Newf(errs.InvalidInput, op, "Invalid calculation - "+format, args...)
	}
}

func (v *allowList) Visit(node *ast.Node) {
	if v.err != nil {
		return
	}
	switch n := (*node).(type) {
	case *ast.IntegerNode, *ast.FloatNode:
	case *ast.IdentifierNode:
		v.idents = append(v.idents, n)
	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			v.reject("unsupported call")
			return
		}
		v.callees[callee] = true
		v.checkFunction(callee.Value, n.Arguments)
	case *ast.BuiltinNode:
		v.checkFunction(n.Name, n.Arguments)
	case *ast.BinaryNode:
		switch n.Operator {
		case "+", "-", "*", "/":
		case "^", "**":
			v.checkPowLiterals(n.Left, n.Right)
		default:
			v.reject("operator '%s' is not allowed", n.Operator)
		}
	case *ast.UnaryNode:
		if n.Operator != "-" && n.Operator != "+" {
			v.reject("operator '%s' is not allowed", n.Operator)
		}
	default:
		v.reject("unsupported syntax")
	}
}

func (v *allowList) checkFunction(name string, args []ast.Node) {
	if _, ok := functions[name]; !ok {
		v.err = errs.Newf(errs.InvalidInput, op, "Invalid calculation - function '%s' is not allowed", name).
			With("name", name)
		return
	}
	if name == "pow" && len(args) == 2 {
		v.checkPowLiterals(args[0], args[1])
	}
}

// checkPowLiterals applies the exponent and base bounds to literal operands
// before anything runs.
func (v *allowList) checkPowLiterals(base, exp ast.Node) {
	b, bok := literal(base)
	x, xok := literal(exp)
	if !xok {
		x = 1
	}
	if !bok {
		b = 1
	}
	if err := checkPowBounds(b, x); err != nil {
		v.err = err
	}
}

func literal(node ast.Node) (float64, bool) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return float64(n.Value), true
	case *ast.FloatNode:
		return n.Value, true
	case *ast.UnaryNode:
		v, ok := literal(n.Node)
		if !ok {
			return 0, false
		}
		if n.Operator == "-" {
			return -v, true
		}
		return v, true
	}
	return 0, false
}

// arithmetic makes every literal a float and routes division and
// exponentiation through the checked functions.
type arithmetic struct{}

func (arithmetic) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IntegerNode:
		ast.Patch(node, &ast.FloatNode{Value: float64(n.Value)})
	case *ast.BinaryNode:
		var fn string
		switch n.Operator {
		case "/":
			fn = "div"
		case "^", "**":
			fn = "pow"
		default:
			return
		}
		ast.Patch(node, &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: fn},
			Arguments: []ast.Node{n.Left, n.Right},
		})
	}
}
