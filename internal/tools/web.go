package tools

import (
	"context"
	"strings"

	"Quill/internal/query"
	"Quill/internal/web"
	"Quill/pkg/types"
)

// Searcher finds web pages.
type Searcher interface {
	Search(ctx context.Context, term string, count int, lang, country string) ([]web.SearchResult, error)
}

// ArticleLookup summarizes encyclopedia articles.
type ArticleLookup interface {
	Lookup(ctx context.Context, term string, count int, lang string) (string, error)
}

// PageFetcher returns the readable text of a URL.
type PageFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

// SearchTool answers web_search calls.
type SearchTool struct {
	searcher Searcher
}

func NewSearchTool(s Searcher) *SearchTool {
	return &SearchTool{searcher: s}
}

func (t *SearchTool) Name() string { return types.ToolWebSearch }
func (t *SearchTool) Capability() types.Capability { return types.WebSearch }

func (t *SearchTool) Description() string {
	return "Search the web using format: 'search_term' or 'search_term|num_results|language|country'. " +
		"Example: 'python programming' or 'python programming|5|en|us'"
}

func (t *SearchTool) Execute(ctx context.Context, input string) (string, error) {
	q, err := query.ParseSearch(input)
	if err != nil {
		return "", err
	}
	results, err := t.searcher.Search(ctx, q.Term, q.Count, q.Lang, q.Country)
	if err != nil {
		return "", err
	}
	return web.FormatResults(results), nil
}

// WikipediaTool answers wikipedia calls.
type WikipediaTool struct {
	lookup ArticleLookup
}

func NewWikipediaTool(l ArticleLookup) *WikipediaTool {
	return &WikipediaTool{lookup: l}
}

func (t *WikipediaTool) Name() string { return types.ToolWikipedia }
func (t *WikipediaTool) Capability() types.Capability { return types.Encyclopedia }

func (t *WikipediaTool) Description() string {
	return "Search Wikipedia articles. Use format: 'search_term' or 'search_term|num_results|language'. " +
		"Example: 'Albert Einstein' or 'Albert Einstein|3|en'. " +
		"Languages: " + strings.Join(query.Languages(), ", ") + "."
}

func (t *WikipediaTool) Execute(ctx context.Context, input string) (string, error) {
	q, err := query.ParseEncyclopedia(input)
	if err != nil {
		return "", err
	}
	return t.lookup.Lookup(ctx, q.Term, q.Count, q.Lang)
}

// FetchTool answers url_fetch calls.
type FetchTool struct {
	fetcher PageFetcher
}

func NewFetchTool(f PageFetcher) *FetchTool {
	return &FetchTool{fetcher: f}
}

func (t *FetchTool) Name() string { return types.ToolURLFetch }
func (t *FetchTool) Capability() types.Capability { return types.URLFetch }

func (t *FetchTool) Description() string {
	return "Fetch and extract the text content of a web page. " +
		"Input should be a valid URL starting with http:// or https://."
}

func (t *FetchTool) Execute(ctx context.Context, input string) (string, error) {
	return t.fetcher.FetchText(ctx, input)
}
