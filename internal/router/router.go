// Package router decides which capability owns a request. Syntactic cues
// are matched by an ordered rule list; anything the rules miss is left to
// the model.
package router

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"Quill/internal/validate"
	"Quill/pkg/types"
)

// Rule pairs a predicate with the capability it selects.
type Rule struct {
	Name       string
	Match      func(text string) bool
	Capability types.Capability
}

// FunctionPrefixes are the math function names that mark arithmetic when
// the text starts with one of them followed by "(".
var FunctionPrefixes = []string{
	"factorial", "sin", "cos", "tan", "sqrt", "log", "log10", "exp", "abs",
	"round", "pow", "floor", "ceil", "compound", "simple",
}

var (
	functionPrefixRe = regexp.MustCompile(`(?i)^(?:` + strings.Join(FunctionPrefixes, "|") + `)\s*\(`)
	bracketedListRe  = regexp.MustCompile(`\[[^\]]*\d[^\]]*\]`)
)

const operators = "+-*/^"

// DefaultRules returns the heuristic rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "function-prefix", Match: startsWithFunction, Capability: types.Arithmetic},
		{Name: "digit-operator", Match: hasDigitAndOperator, Capability: types.Arithmetic},
		{Name: "bare-integer", Match: isBareInteger, Capability: types.Arithmetic},
		{Name: "dataset", Match: looksLikeDataset, Capability: types.DatasetAnalysis},
	}
}

func startsWithFunction(text string) bool {
	return functionPrefixRe.MatchString(text)
}

func hasDigitAndOperator(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0 && strings.ContainsAny(text, operators)
}

func isBareInteger(text string) bool {
	stripped := strings.NewReplacer(" ", "", "!", "").Replace(text)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func looksLikeDataset(text string) bool {
	return bracketedListRe.MatchString(text) || NumberTokens(text) > 1
}

// NumberTokens counts the standalone numeric tokens in text.
func NumberTokens(text string) int {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;[]()", r)
	})
	n := 0
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			n++
		}
	}
	return n
}

// Router applies rules first-match-wins.
type Router struct {
	rules []Rule
}

// New creates a Router. With no rules it uses DefaultRules.
func New(rules ...Rule) *Router {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Router{rules: rules}
}

// Rules returns a copy of the rule list in evaluation order.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// match returns the first matching rule.
func (r *Router) match(text string) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Match(text) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Classify never fails; unmatched text is FreeForm.
func (r *Router) Classify(text string) types.Capability {
	if rule, ok := r.match(strings.TrimSpace(text)); ok {
		return rule.Capability
	}
	return types.FreeForm
}

// Route validates text and produces the routing decision for it.
// A FreeForm decision means the model should choose.
func (r *Router) Route(text string) (types.RoutingDecision, error) {
	if res := validate.NonEmpty(text); !res.Valid {
		return types.RoutingDecision{}, res.Err("router.route")
	}
	input := strings.TrimSpace(text)
	rule, ok := r.match(input)
	if !ok {
		return types.RoutingDecision{Capability: types.FreeForm, Input: input, Signal: types.Heuristic}, nil
	}
	return types.RoutingDecision{
		Capability: rule.Capability,
		Input:      input,
		Signal:     types.Heuristic,
		Rule:       rule.Name,
	}, nil
}

// Decide records a capability chosen through a structured function call.
func Decide(c types.Capability, input string) types.RoutingDecision {
	return types.RoutingDecision{
		Capability: c,
		Input:      strings.TrimSpace(input),
		Signal:     types.Explicit,
	}
}

var defaultRouter = New()

// Classify runs the default rules over text.
func Classify(text string) types.Capability {
	return defaultRouter.Classify(text)
}
