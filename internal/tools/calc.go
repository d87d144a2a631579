package tools

import (
	"context"
	"strings"

	"Quill/internal/calc"
	"Quill/internal/validate"
	"Quill/pkg/types"
)

// CalcTool evaluates single arithmetic expressions.
type CalcTool struct{}

func (c *CalcTool) Name() string {
	return types.ToolCalculator
}

func (c *CalcTool) Capability() types.Capability {
	return types.Arithmetic
}

func (c *CalcTool) Description() string {
	return "Mathematical calculator for SINGLE EXPRESSIONS ONLY. No datasets or sequences.\n" +
		"Use it only if the input is a single mathematical expression with no square brackets " +
		"and no statistics, web search or text processing is needed.\n" +
		"Supports +, -, *, / and ^ (power), the constants " + strings.Join(calc.Constants(), ", ") +
		" and the functions " + strings.Join(calc.Functions(), ", ") + " (factorial also as n!). " +
		"compound(principal, rate, time) and simple(principal, rate, time) take the rate in percent.\n" +
		"Examples: '2 + 2', 'compound(1000, 5, 3)', '23 * 36 - (4^7)'.\n" +
		"Do not use for '[1, 2, 3]' or 'mean of numbers' (use data_analysis), web searches (use web_search) " +
		"or 'what is' questions (use wikipedia)."
}

func (c *CalcTool) Execute(_ context.Context, input string) (string, error) {
	if r := validate.MathExpression(input, validate.MathOptions{}); !r.Valid {
		return "", r.Err("tools.calculator")
	}
	result, err := calc.Evaluate(input)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}
