package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"Quill/internal/errs"
	"Quill/internal/web"
	"Quill/pkg/types"
)

type fakeSearcher struct {
	term, lang, country string
	count               int
}

func (f *fakeSearcher) Search(_ context.Context, term string, count int, lang, country string) ([]web.SearchResult, error) {
	f.term, f.count, f.lang, f.country = term, count, lang, country
	return []web.SearchResult{{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"}}, nil
}

type fakeLookup struct{ got string }

func (f *fakeLookup) Lookup(_ context.Context, term string, count int, lang string) (string, error) {
	f.got = strings.Join([]string{term, lang}, "/")
	return "Title: " + term + "\n", nil
}

type fakeFetcher struct{}

func (fakeFetcher) FetchText(_ context.Context, rawURL string) (string, error) {
	if rawURL == "https://bad.example" {
		return "", errs.New(errs.NetworkError, "web.fetch", "Error fetching URL content (HTTP 500 Internal Server Error)")
	}
	return "page text", nil
}

func newTestRegistry() (*Registry, *fakeSearcher, *fakeLookup) {
	s, l := &fakeSearcher{}, &fakeLookup{}
	return NewDefaultRegistry(Deps{Searcher: s, Lookup: l, Fetcher: fakeFetcher{}}), s, l
}

func TestCalcTool(t *testing.T) {
	calc := &CalcTool{}

	tests := []struct {
		input    string
		expected string
	}{
		{"2 + 2", "4"},
		{"10 * 5", "50"},
		{"100 / 4", "25"},
		{"2 ^ 10", "1024"},
		{"5!", "120"},
		{"compound(1000, 100, 2)", "4000"},
	}

	for _, tt := range tests {
		result, err := calc.Execute(context.Background(), tt.input)
		if err != nil {
			t.Errorf("calc.Execute(%q) error: %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("calc.Execute(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestCalcToolRejects(t *testing.T) {
	calc := &CalcTool{}
	tests := []struct {
		input string
		kind  errs.Kind
	}{
		{"10 / 0", errs.DivisionByZero},
		{"system(1)", errs.InvalidInput},
		{"2 $ 3", errs.InvalidInput},
		{"(2 + 3", errs.InvalidInput},
		{"", errs.InvalidInput},
	}
	for _, tt := range tests {
		if _, err := calc.Execute(context.Background(), tt.input); !errors.Is(err, tt.kind) {
			t.Errorf("calc.Execute(%q) = %v, want %v", tt.input, err, tt.kind)
		}
	}
}

func TestScriptTool(t *testing.T) {
	r, _, _ := newTestRegistry()
	script, ok := r.Get(types.ToolScript)
	if !ok {
		t.Fatal("script tool not registered")
	}

	result, err := script.Execute(context.Background(), "a := 10\nb := 20")
	if err != nil {
		t.Fatalf("script error: %v", err)
	}
	if result != "Code executed successfully." {
		t.Errorf("unexpected result %q", result)
	}

	// variables persist into the next call
	result, err = script.Execute(context.Background(), "output = a + b")
	if err != nil {
		t.Fatalf("script error: %v", err)
	}
	if result != "30" {
		t.Errorf("expected '30', got %q", result)
	}

	if _, err := script.Execute(context.Background(), "  "); !errors.Is(err, errs.InvalidInput) {
		t.Errorf("expected InvalidInput, got %v", err)
	}
}

func TestAnalysisTool(t *testing.T) {
	r, _, _ := newTestRegistry()
	tool, ok := r.ForCapability(types.DatasetAnalysis)
	if !ok {
		t.Fatal("data_analysis tool not registered")
	}
	got, err := tool.Execute(context.Background(), "mean of [2, 4, 6]")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(got, "Mean: 4.00") {
		t.Errorf("unexpected analysis %q", got)
	}

	if _, err := tool.Execute(context.Background(), "no numbers here"); !errors.Is(err, errs.InvalidDataset) {
		t.Errorf("expected InvalidDataset, got %v", err)
	}
}

func TestWebTools(t *testing.T) {
	r, s, l := newTestRegistry()

	search, _ := r.Get(types.ToolWebSearch)
	got, err := search.Execute(context.Background(), "golang|3|de|at")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if got != "1. Go\nURL: https://go.dev\nThe Go language\n" {
		t.Errorf("search = %q", got)
	}
	if s.term != "golang" || s.count != 3 || s.lang != "de" || s.country != "at" {
		t.Errorf("searcher got %+v", s)
	}
	if _, err := search.Execute(context.Background(), "go"); !errors.Is(err, errs.ValidationError) {
		t.Errorf("expected a validation failure for a short query, got %v", err)
	}

	wiki, _ := r.Get(types.ToolWikipedia)
	if _, err := wiki.Execute(context.Background(), "Einstein|1|FR"); err != nil {
		t.Fatalf("wikipedia error: %v", err)
	}
	if l.got != "Einstein/fr" {
		t.Errorf("lookup got %q", l.got)
	}

	fetch, _ := r.ForCapability(types.URLFetch)
	if got, err := fetch.Execute(context.Background(), "https://ok.example"); err != nil || got != "page text" {
		t.Errorf("fetch = %q, %v", got, err)
	}
}

func TestRegistryWithoutNetworkTools(t *testing.T) {
	r := NewDefaultRegistry(Deps{})
	want := []string{"calculator", "data_analysis", "script"}
	got := r.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if _, ok := r.ForCapability(types.FreeForm); ok {
		t.Error("free-form requests have no tool")
	}
	if _, ok := r.Get("file"); ok {
		t.Error("expected no file tool")
	}
}

func TestParseToolCalls(t *testing.T) {
	response := "Let me compute.\n```tool:calculator\n2 + 2\n```\nand\n```tool:script\nprint(1)\n```"
	calls := ParseToolCalls(response)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "calculator" || calls[0].Input != "2 + 2" {
		t.Errorf("unexpected call %+v", calls[0])
	}
	if calls[1].Name != "script" || calls[1].Input != "print(1)" {
		t.Errorf("unexpected call %+v", calls[1])
	}
	if calls := ParseToolCalls("plain text"); len(calls) != 0 {
		t.Errorf("unexpected calls in plain text: %+v", calls)
	}
}

func TestRegistryExecute(t *testing.T) {
	r, _, _ := newTestRegistry()
	ctx := context.Background()

	ok := r.Execute(ctx, ToolCall{Name: "calculator", Input: "1 + 1"})
	if ok.Output != "2" || ok.Error != nil {
		t.Errorf("unexpected result %+v", ok)
	}

	tests := []struct {
		call ToolCall
		kind errs.Kind
	}{
		{ToolCall{Name: "calculator", Input: "1 / 0", Args: map[string]any{"signal": "heuristic"}}, errs.DivisionByZero},
		{ToolCall{Name: "nope", Input: "x"}, errs.ToolError},
		{ToolCall{Name: "url_fetch", Input: "https://bad.example"}, errs.NetworkError},
	}
	for _, tt := range tests {
		res := r.Execute(ctx, tt.call)
		if res.Output != "" || !errors.Is(res.Error, tt.kind) {
			t.Errorf("Execute(%s, %q) = %q, %v; want %v", tt.call.Name, tt.call.Input, res.Output, res.Error, tt.kind)
		}
	}

	res := r.Execute(ctx, tests[0].call)
	var e *errs.Error
	if !errors.As(res.Error, &e) {
		t.Fatalf("error is %T", res.Error)
	}
	if e.Op == "" || e.Args["input"] != "1 / 0" || e.Args["signal"] != "heuristic" {
		t.Errorf("op = %q, args = %v", e.Op, e.Args)
	}
	if got := errs.UserMessage(res.Error); got != "Error: Division by zero" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"query": "2 + 2"}`, "2 + 2"},
		{`{"query": "2 + 2"`, "2 + 2"},
		{`{query: 'golang'}`, "golang"},
		{`"plain"`, "plain"},
	}
	for _, tt := range tests {
		args, err := DecodeArgs(tt.raw)
		if err != nil {
			t.Errorf("DecodeArgs(%q) error: %v", tt.raw, err)
			continue
		}
		if args.Query != tt.want {
			t.Errorf("DecodeArgs(%q) = %q, want %q", tt.raw, args.Query, tt.want)
		}
	}
	if _, err := DecodeArgs(""); !errors.Is(err, errs.InvalidInput) {
		t.Errorf("expected InvalidInput for empty arguments, got %v", err)
	}
}

func TestDefinitions(t *testing.T) {
	r := NewDefaultRegistry(Deps{})
	defs, err := Definitions(r.All())
	if err != nil {
		t.Fatalf("Definitions error: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	raw, err := defs[0].ParametersJSON()
	if err != nil {
		t.Fatalf("ParametersJSON error: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, `"query"`) || !strings.Contains(s, `"required":["query"]`) {
		t.Errorf("unexpected schema %s", s)
	}
}

func TestDescriptionsListAllowedNames(t *testing.T) {
	r, _, _ := newTestRegistry()
	tests := []struct {
		tool string
		want []string
	}{
		{"calculator", []string{"constants e, pi", "compound", "factorial", "log10", "simple"}},
		{"wikipedia", []string{"Languages: ar, ", "en", "simple", "zh."}},
	}
	for _, tt := range tests {
		tool, ok := r.Get(tt.tool)
		if !ok {
			t.Fatalf("%s not registered", tt.tool)
		}
		for _, w := range tt.want {
			if !strings.Contains(tool.Description(), w) {
				t.Errorf("%s description missing %q", tt.tool, w)
			}
		}
	}
}
