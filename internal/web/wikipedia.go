package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"Quill/internal/errs"
)

// DefaultWikipediaEndpoint is formatted with the language code.
const DefaultWikipediaEndpoint = "https://%s.wikipedia.org"

const maxDisambiguationOptions = 5

// Article is an encyclopedia summary.
type Article struct {
	Title   string
	URL     string
	Summary string
}

// Wikipedia talks to the MediaWiki action API and the REST summary API.
type Wikipedia struct {
	endpoint string
	client   *Client
}

// NewWikipedia creates a client. The endpoint may contain a %s placeholder
// for the language edition.
func NewWikipedia(endpoint string, client *Client) *Wikipedia {
	if endpoint == "" {
		endpoint = DefaultWikipediaEndpoint
	}
	if client == nil {
		client = NewClient(nil)
	}
	return &Wikipedia{endpoint: endpoint, client: client}
}

func (w *Wikipedia) base(lang string) string {
	if strings.Contains(w.endpoint, "%s") {
		return fmt.Sprintf(w.endpoint, lang)
	}
	return strings.TrimRight(w.endpoint, "/")
}

// Search returns up to count page titles matching term.
func (w *Wikipedia) Search(ctx context.Context, term string, count int, lang string) ([]string, error) {
	const op = "web.wikipedia.search"
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {term},
		"srlimit":  {strconv.Itoa(count)},
		"format":   {"json"},
	}
	resp, err := w.client.get(ctx, op, w.base(lang)+"/w/api.php", params)
	if err != nil {
		return nil, err
	}
	if !ok(resp.Status) {
		return nil, httpError(op, resp.Status, "Error searching Wikipedia")
	}
	if msg := gjson.GetBytes(resp.Body, "error.info"); msg.Exists() {
		return nil, errs.New(errs.APIError, op, "Wikipedia Error: "+msg.String())
	}

	var titles []string
	for _, t := range gjson.GetBytes(resp.Body, "query.search.#.title").Array() {
		titles = append(titles, t.String())
	}
	return titles, nil
}

// Summary fetches the lead paragraph of title. A missing page is NotFound;
// a disambiguation page is Disambiguation with the options attached.
func (w *Wikipedia) Summary(ctx context.Context, title, lang string) (Article, error) {
	const op = "web.wikipedia.summary"
	path := "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	resp, err := w.client.get(ctx, op, w.base(lang)+path, url.Values{"redirect": {"true"}})
	if err != nil {
		return Article{}, err
	}
	if resp.Status == http.StatusNotFound {
		return Article{}, errs.Newf(errs.NotFound, op, "No Wikipedia page named '%s'", title)
	}
	if !ok(resp.Status) {
		return Article{}, httpError(op, resp.Status, "Error retrieving Wikipedia page")
	}

	page := gjson.ParseBytes(resp.Body)
	if page.Get("type").String() == "disambiguation" {
		options, err := w.links(ctx, title, lang)
		if err != nil {
			return Article{}, err
		}
		return Article{}, errs.Newf(errs.Disambiguation, op, "'%s' is ambiguous", title).With("options", options)
	}

	summary, _, _ := strings.Cut(page.Get("extract").String(), "\n")
	return Article{
		Title:   orDefault(page.Get("title").String(), title),
		URL:     page.Get("content_urls.desktop.page").String(),
		Summary: summary,
	}, nil
}

func (w *Wikipedia) links(ctx context.Context, title, lang string) ([]string, error) {
	const op = "web.wikipedia.links"
	params := url.Values{
		"action":  {"query"},
		"prop":    {"links"},
		"titles":  {title},
		"pllimit": {strconv.Itoa(maxDisambiguationOptions)},
		"format":  {"json"},
	}
	resp, err := w.client.get(ctx, op, w.base(lang)+"/w/api.php", params)
	if err != nil {
		return nil, err
	}
	if !ok(resp.Status) {
		return nil, httpError(op, resp.Status, "Error retrieving Wikipedia page")
	}
	var options []string
	for _, l := range gjson.GetBytes(resp.Body, "query.pages.*.links.#.title").Array() {
		if len(options) == maxDisambiguationOptions {
			break
		}
		options = append(options, l.String())
	}
	return options, nil
}

// DisambiguationOptions returns the options carried by a Disambiguation error.
func DisambiguationOptions(err error) []string {
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.Disambiguation {
		return nil
	}
	options, _ := e.Details["options"].([]string)
	return options
}

// Lookup searches term and summarizes up to count matching pages.
// Ambiguous titles are listed with their options; missing pages are skipped.
func (w *Wikipedia) Lookup(ctx context.Context, term string, count int, lang string) (string, error) {
	const op = "web.wikipedia.lookup"
	titles, err := w.Search(ctx, term, count, lang)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", errs.Newf(errs.NotFound, op, "No Wikipedia articles found for '%s'", term)
	}

	var entries []string
	for _, title := range titles {
		a, err := w.Summary(ctx, title, lang)
		switch {
		case err == nil:
			entries = append(entries, fmt.Sprintf("Title: %s\nURL: %s\nSummary: %s\n", a.Title, a.URL, a.Summary))
		case errs.KindOf(err) == errs.Disambiguation:
			entries = append(entries, fmt.Sprintf("'%s' is ambiguous. Options: %s\n",
				title, strings.Join(DisambiguationOptions(err), ", ")))
		case errs.KindOf(err) == errs.NotFound:
			continue
		default:
			return "", err
		}
	}
	if len(entries) == 0 {
		return "", errs.Newf(errs.NotFound, op, "Could not retrieve content for '%s'", term)
	}
	return strings.Join(entries, "\n"), nil
}
