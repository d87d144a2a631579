// Package validate holds the per-capability input validators. Every
// validator is a pure function returning a Result; none of them touch
// shared state or the network.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/d5/tengo/v2/parser"

	"Quill/internal/errs"
)

// Result is the outcome of a validation check.
type Result struct {
	Valid   bool
	Message string
	Details map[string]any
	// Kind classifies the failure when Valid is false.
	Kind errs.Kind
}

func ok() Result { return Result{Valid: true} }

func fail(kind errs.Kind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}

func (r Result) with(key string, value any) Result {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
	return r
}

// Err converts an invalid result into a structured error. It returns nil
// for a valid result.
func (r Result) Err(op string) error {
	if r.Valid {
		return nil
	}
	e := errs.New(r.Kind, op, r.Message)
	for k, v := range r.Details {
		e.With(k, v)
	}
	return e
}

// NonEmpty rejects empty and whitespace-only text.
func NonEmpty(text string) Result {
	if strings.TrimSpace(text) == "" {
		return fail(errs.InvalidInput, "Input must not be empty")
	}
	return ok()
}

// URL requires a scheme and a host, and the scheme must be one of schemes
// (http and https when none are given).
func URL(raw string, schemes ...string) Result {
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fail(errs.InvalidInput, "Invalid URL format").with("url", raw)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return ok().with("scheme", u.Scheme).with("host", u.Host).with("path", u.Path)
		}
	}
	return fail(errs.InvalidInput, "Invalid scheme. Allowed: "+strings.Join(schemes, ", ")).
		with("scheme", u.Scheme)
}

// Code parses src as a script without running it.
func Code(src string) Result {
	if strings.TrimSpace(src) == "" {
		return fail(errs.InvalidSyntax, "Code must not be empty")
	}
	if err := ParseScript([]byte(src)); err != nil {
		return fail(errs.InvalidSyntax, err.Error())
	}
	return ok()
}

// ParseScript runs the script parser over src and returns its error, if any.
func ParseScript(src []byte) error {
	fileSet := parser.NewFileSet()
	srcFile := fileSet.AddFile("(main)", -1, len(src))
	_, err := parser.NewParser(srcFile, src, nil).ParseFile()
	return err
}

// Default allow-lists for MathExpression.
var (
	DefaultMathOperators = []string{"+", "-", "*", "/", "^", "**", "(", ")", ",", "!"}
	DefaultMathFunctions = []string{
		"abs", "round", "pow", "sqrt", "sin", "cos", "tan", "factorial",
		"log", "log10", "exp", "floor", "ceil", "compound", "simple",
	}
	DefaultMathConstants = []string{"pi", "e"}
)

// MathOptions configures MathExpression. Nil slices fall back to the defaults.
type MathOptions struct {
	Operators []string
	Functions []string
	Constants []string
}

var funcCallRe = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)\(`)

// MathExpression checks an arithmetic expression against a function and
// character allow-list and verifies parentheses balance.
func MathExpression(expr string, opts MathOptions) Result {
	ops := opts.Operators
	if ops == nil {
		ops = DefaultMathOperators
	}
	fns := opts.Functions
	if fns == nil {
		fns = DefaultMathFunctions
	}
	consts := opts.Constants
	if consts == nil {
		consts = DefaultMathConstants
	}

	cleaned := strings.Join(strings.Fields(expr), "")
	if cleaned == "" {
		return fail(errs.InvalidInput, "Expression must not be empty")
	}

	allowedFn := make(map[string]bool, len(fns))
	for _, f := range fns {
		allowedFn[f] = true
	}
	var invalid []string
	for _, m := range funcCallRe.FindAllStringSubmatch(cleaned, -1) {
		if !allowedFn[m[1]] {
			invalid = append(invalid, m[1])
		}
	}
	if len(invalid) > 0 {
		return fail(errs.InvalidInput, "Invalid functions: "+strings.Join(invalid, ", ")).
			with("invalid_functions", invalid)
	}

	valid := "0123456789._" + strings.Join(ops, "") + strings.Join(fns, "") + strings.Join(consts, "")
	seen := make(map[rune]bool)
	for _, r := range cleaned {
		if !strings.ContainsRune(valid, r) {
			seen[r] = true
		}
	}
	if len(seen) > 0 {
		chars := make([]string, 0, len(seen))
		for r := range seen {
			chars = append(chars, string(r))
		}
		sort.Strings(chars)
		return fail(errs.InvalidInput, "Invalid characters: "+strings.Join(chars, ", ")).
			with("invalid_chars", chars)
	}

	depth := 0
	for _, r := range cleaned {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			break
		}
	}
	open, closed := strings.Count(cleaned, "("), strings.Count(cleaned, ")")
	if open != closed || depth < 0 {
		return fail(errs.InvalidInput, "Unbalanced parentheses").
			with("open_count", open).
			with("close_count", closed)
	}
	return ok()
}

// SearchOptions configures SearchQuery.
type SearchOptions struct {
	MinLength int
	MaxLength int
	// Disallowed patterns; nil uses the defaults.
	Disallowed []*regexp.Regexp
}

var defaultDisallowed = []*regexp.Regexp{
	regexp.MustCompile(`^\s*$`),
	// unicode-aware equivalent of ^[\W_]+$
	regexp.MustCompile(`^[^\p{L}\p{N}]+$`),
}

// SearchQuery enforces length bounds and rejects empty or symbol-only queries.
func SearchQuery(q string, opts SearchOptions) Result {
	if opts.MinLength <= 0 {
		opts.MinLength = 3
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 1000
	}
	if opts.Disallowed == nil {
		opts.Disallowed = defaultDisallowed
	}

	n := utf8.RuneCountInString(q)
	if n < opts.MinLength {
		return fail(errs.InvalidInput, fmt.Sprintf("Query too short (minimum %d characters)", opts.MinLength)).
			with("length", n)
	}
	if n > opts.MaxLength {
		return fail(errs.InvalidInput, fmt.Sprintf("Query too long (maximum %d characters)", opts.MaxLength)).
			with("length", n)
	}
	for _, re := range opts.Disallowed {
		if re.MatchString(q) {
			return fail(errs.InvalidInput, "Invalid query format").with("pattern", re.String())
		}
	}
	return ok()
}

var apiKeyPatterns = map[string]*regexp.Regexp{
	"openai":  regexp.MustCompile(`^sk-(?:proj-)?[A-Za-z0-9_-]{32,}$`),
	"serpapi": regexp.MustCompile(`^[A-Za-z0-9]{32,}$`),
	"github":  regexp.MustCompile(`^gh[ps]_[A-Za-z0-9]{36,}$`),
}

// APIKeyProviders lists the providers APIKey knows how to check.
func APIKeyProviders() []string {
	out := make([]string, 0, len(apiKeyPatterns))
	for p := range apiKeyPatterns {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// APIKey checks the credential shape for provider.
func APIKey(key, provider string) Result {
	provider = strings.ToLower(strings.TrimSpace(provider))
	re, found := apiKeyPatterns[provider]
	if !found {
		return fail(errs.ConfigurationError,
			"Unsupported provider. Valid providers: "+strings.Join(APIKeyProviders(), ", ")).
			with("provider", provider)
	}
	if !re.MatchString(key) {
		return fail(errs.AuthenticationError, fmt.Sprintf("Invalid %s API key format", provider)).
			with("provider", provider)
	}
	return ok()
}
