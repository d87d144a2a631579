package web

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"Quill/internal/errs"
	"Quill/internal/validate"
)

// DefaultSearchEndpoint is the SerpAPI JSON endpoint.
const DefaultSearchEndpoint = "https://serpapi.com/search.json"

// SearchResult is one organic web result.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// SerpAPI searches the web through SerpAPI's Google engine.
type SerpAPI struct {
	endpoint string
	apiKey   string
	client   *Client
}

// NewSerpAPI creates a search client. An empty endpoint uses the public one.
func NewSerpAPI(endpoint, apiKey string, client *Client) *SerpAPI {
	if endpoint == "" {
		endpoint = DefaultSearchEndpoint
	}
	if client == nil {
		client = NewClient(nil)
	}
	return &SerpAPI{endpoint: endpoint, apiKey: apiKey, client: client}
}

// Search returns up to count organic results for term.
func (s *SerpAPI) Search(ctx context.Context, term string, count int, lang, country string) ([]SearchResult, error) {
	const op = "web.search"

	if s.apiKey == "" {
		return nil, errs.New(errs.ConfigurationError, op, "SerpAPI key not configured (set SERPAPI_API_KEY)")
	}
	if r := validate.APIKey(s.apiKey, "serpapi"); !r.Valid {
		return nil, r.Err(op)
	}

	params := url.Values{
		"q":       {term},
		"num":     {strconv.Itoa(count)},
		"hl":      {lang},
		"gl":      {country},
		"api_key": {s.apiKey},
		"engine":  {"google"},
	}
	resp, err := s.client.get(ctx, op, s.endpoint, params)
	if err != nil {
		return nil, err
	}

	if msg := gjson.GetBytes(resp.Body, "error"); msg.Exists() {
		kind := errs.APIError
		if resp.Status == 401 || resp.Status == 403 {
			kind = errs.AuthenticationError
		}
		return nil, errs.New(kind, op, "SerpAPI Error: "+msg.String()).With("status", resp.Status)
	}
	if !ok(resp.Status) {
		return nil, httpError(op, resp.Status, "Error performing search")
	}

	var results []SearchResult
	gjson.GetBytes(resp.Body, "organic_results").ForEach(func(_, item gjson.Result) bool {
		results = append(results, SearchResult{
			Title:   orDefault(item.Get("title").String(), "No title"),
			Link:    orDefault(item.Get("link").String(), "No link"),
			Snippet: orDefault(item.Get("snippet").String(), "No description"),
		})
		return len(results) < count
	})
	if len(results) == 0 {
		return nil, errs.Newf(errs.NotFound, op, "No results found for '%s'", term)
	}
	return results, nil
}

// FormatResults renders results as a numbered list.
func FormatResults(results []SearchResult) string {
	entries := make([]string, len(results))
	for i, r := range results {
		entries[i] = fmt.Sprintf("%d. %s\nURL: %s\n%s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.Join(entries, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
