package web

import (
	"bytes"
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"Quill/internal/errs"
	"Quill/internal/validate"
)

// DefaultMaxLength is how much cleaned page text FetchText returns.
const DefaultMaxLength = 1000

// Elements whose content never reaches the extracted text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Head:     true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Nav:      true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Noscript: true,
	atom.Template: true,
}

// Fetcher downloads pages and extracts their readable text.
type Fetcher struct {
	client    *Client
	timeout   time.Duration
	maxLength int
}

// NewFetcher creates a Fetcher. Zero values fall back to a 10s timeout and
// DefaultMaxLength characters.
func NewFetcher(client *Client, timeout time.Duration, maxLength int) *Fetcher {
	if client == nil {
		client = NewClient(nil)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Fetcher{client: client, timeout: timeout, maxLength: maxLength}
}

// Fetch returns the raw body of rawURL, bounded by timeout.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	const op = "web.fetch"
	if r := validate.URL(rawURL); !r.Valid {
		return nil, r.Err(op)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.client.get(ctx, op, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, op, err, "Error fetching URL content").With("url", rawURL)
	}
	if !ok(resp.Status) {
		return nil, httpError(op, resp.Status, "Error fetching URL content").With("url", rawURL)
	}
	return resp.Body, nil
}

// FetchText downloads rawURL and returns its cleaned, truncated text.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, err := f.Fetch(ctx, rawURL, f.timeout)
	if err != nil {
		return "", err
	}
	text, err := CleanHTML(body)
	if err != nil {
		return "", errs.Wrap(errs.ToolError, "web.fetch", err, "Could not read page content")
	}
	if text == "" {
		return "", errs.New(errs.NotFound, "web.fetch", "The page has no readable text").With("url", rawURL)
	}
	return Truncate(text, f.maxLength), nil
}

// CleanHTML extracts visible text, dropping script, style and page chrome,
// and collapses whitespace.
func CleanHTML(src []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(sb.String()), " "), nil
}

// Truncate shortens text to max characters, marking the cut with "...".
func Truncate(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
