// Package web holds the network collaborators: web search, encyclopedia
// lookup and URL fetching. None of them retry; a failure is reported once.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"Quill/internal/errs"
)

const (
	// DefaultTimeout bounds every request that has no deadline of its own.
	DefaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; quill/1.0)"
	maxBodyBytes   = 5 << 20
)

// Client is the shared HTTP plumbing of the collaborators.
type Client struct {
	HTTP      *http.Client
	UserAgent string
}

// NewClient wraps hc, or a client with DefaultTimeout when hc is nil.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{HTTP: hc, UserAgent: userAgent}
}

// response is a fully read HTTP response.
type response struct {
	Status int
	Body   []byte
}

// get issues a GET and reads the body. Transport failures are NetworkError;
// status codes are left to the caller.
func (c *Client) get(ctx context.Context, op, rawURL string, params url.Values) (*response, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, op, err, "Invalid request URL")
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		msg := "Network request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Network request timed out"
		}
		return nil, errs.Wrap(errs.NetworkError, op, err, msg)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, op, err, "Network request failed")
	}
	return &response{Status: resp.StatusCode, Body: body}, nil
}

// httpError reports a non-2xx status.
func httpError(op string, status int, prefix string) *errs.Error {
	return errs.New(errs.NetworkError, op, fmt.Sprintf("%s (HTTP %d %s)", prefix, status, http.StatusText(status))).
		With("status", status)
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
