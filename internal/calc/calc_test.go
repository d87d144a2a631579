package calc

import (
	"errors"
	"math"
	"strings"
	"testing"

	"Quill/internal/errs"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2 + 2", "4"},
		{"10 * 5", "50"},
		{"100 / 4", "25"},
		{"7 / 2", "3.5"},
		{"2 ^ 10", "1024"},
		{"2 ** 3", "8"},
		{"2 ^ 3 ^ 2", "512"},
		{"-2 + 5", "3"},
		{"23 * 36 - (4^7)", "-15556"},
		{"abs(-3)", "3"},
		{"sqrt(16) + pow(2, 3)", "12"},
		{"floor(2.7) + ceil(2.1)", "5"},
		{"round(2.5)", "2"},
		{"round(3.5)", "4"},
		{"round(2.3456, 2)", "2.35"},
		{"exp(0)", "1"},
		{"simple(1000, 5, 2)", "100"},
		{"compound(1000, 100, 2)", "4000"},
		{"factorial(3) + 1", "7"},
	}

	for _, tt := range tests {
		result, err := Evaluate(tt.input)
		if err != nil {
			t.Errorf("Evaluate(%q) error: %v", tt.input, err)
			continue
		}
		if result.String() != tt.expected {
			t.Errorf("Evaluate(%q) = %q, want %q", tt.input, result.String(), tt.expected)
		}
	}
}

func TestEvaluateConstants(t *testing.T) {
	result, err := Evaluate("pi * 2")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if math.Abs(result.Value-2*math.Pi) > 1e-12 {
		t.Errorf("pi * 2 = %v", result.Value)
	}

	result, err = Evaluate("e")
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if result.Value != math.E {
		t.Errorf("e = %v", result.Value)
	}
}

func TestEvaluateApprox(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"log10(1000)", 3},
		{"log(8, 2)", 3},
		{"log(e)", 1},
		{"sin(pi / 2)", 1},
		{"compound(1000, 5, 3)", 1157.625},
	}
	for _, tt := range tests {
		result, err := Evaluate(tt.input)
		if err != nil {
			t.Errorf("Evaluate(%q) error: %v", tt.input, err)
			continue
		}
		if math.Abs(result.Value-tt.expected) > 1e-9 {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, result.Value, tt.expected)
		}
	}
}

func TestEvaluateFailures(t *testing.T) {
	tests := []struct {
		input string
		kind  errs.Kind
		msg   string
	}{
		{"10/0", errs.DivisionByZero, "Division by zero"},
		{"1 + 4 / (2 - 2)", errs.DivisionByZero, "Division by zero"},
		{"2^2000", errs.ResultTooLarge, "Exponent too large (max: 1000)"},
		{"pow(2, -1001)", errs.ResultTooLarge, "Exponent too large (max: 1000)"},
		{"1e101 ^ 2", errs.ResultTooLarge, "Base number too large"},
		{"10^50 * 10^51", errs.ResultTooLarge, "Result too large to display"},
		{"exp(1000)", errs.Overflow, "Number too large to compute"},
		{"sqrt(-1)", errs.InvalidInput, "Invalid input - math domain error"},
		{"log(0)", errs.InvalidInput, "Invalid input - math domain error"},
		{"unknown_fn(1)", errs.InvalidInput, ""},
		{"x + 1", errs.InvalidInput, ""},
		{"len([1, 2])", errs.InvalidInput, ""},
		{"10 % 3", errs.InvalidInput, ""},
		{`"a" + "b"`, errs.InvalidInput, ""},
		{"2 +", errs.InvalidInput, ""},
		{"abs(1, 2)", errs.InvalidInput, ""},
		{"div(1, 0)", errs.InvalidInput, ""},
		{"   ", errs.InvalidInput, "Expression cannot be empty"},
	}

	for _, tt := range tests {
		_, err := Evaluate(tt.input)
		if err == nil {
			t.Errorf("Evaluate(%q) expected error", tt.input)
			continue
		}
		if !errors.Is(err, tt.kind) {
			t.Errorf("Evaluate(%q) kind = %v, want %v (%v)", tt.input, errs.KindOf(err), tt.kind, err)
			continue
		}
		if tt.msg != "" {
			var e *errs.Error
			if errors.As(err, &e) && e.Message != tt.msg {
				t.Errorf("Evaluate(%q) message = %q, want %q", tt.input, e.Message, tt.msg)
			}
		}
	}
}

func TestDisallowedNameMessage(t *testing.T) {
	_, err := Evaluate("unknown_fn(1)")
	if err == nil || !strings.Contains(errs.UserMessage(err), "unknown_fn") {
		t.Errorf("expected message naming the function, got %v", err)
	}
}

func TestFactorial(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"factorial(5)", "120"},
		{"5!", "120"},
		{"factorial(0)", "1"},
		{"factorial(25)", "15511210043330985984000000"},
	}
	for _, tt := range tests {
		result, err := Evaluate(tt.input)
		if err != nil {
			t.Errorf("Evaluate(%q) error: %v", tt.input, err)
			continue
		}
		if result.String() != tt.expected {
			t.Errorf("Evaluate(%q) = %q, want %q", tt.input, result.String(), tt.expected)
		}
	}

	result, err := Evaluate("factorial(100)")
	if err != nil {
		t.Fatalf("factorial(100) error: %v", err)
	}
	if got := len(result.String()); got != 158 {
		t.Errorf("factorial(100) has %d digits, want 158", got)
	}
	if result.exact == nil {
		t.Error("expected exact value for factorial shortcut")
	}
}

func TestFactorialFailures(t *testing.T) {
	tests := []struct {
		input string
		kind  errs.Kind
	}{
		{"factorial(-1)", errs.InvalidInput},
		{"-3!", errs.InvalidInput},
		{"factorial(101)", errs.ResultTooLarge},
		{"101!", errs.ResultTooLarge},
		{"2.5!", errs.InvalidInput},
		{"factorial(2.5)", errs.InvalidInput},
		{"factorial(90) * 1", errs.ResultTooLarge},
	}
	for _, tt := range tests {
		_, err := Evaluate(tt.input)
		if !errors.Is(err, tt.kind) {
			t.Errorf("Evaluate(%q) = %v, want kind %v", tt.input, err, tt.kind)
		}
	}
}

func TestFunctionsListed(t *testing.T) {
	names := Functions()
	if len(names) != 15 {
		t.Errorf("expected 15 functions, got %d: %v", len(names), names)
	}
	for _, hidden := range []string{"div"} {
		for _, n := range names {
			if n == hidden {
				t.Errorf("internal function %q must not be listed", hidden)
			}
		}
	}
}
