// Package fetch provides the HTTP plumbing shared by the data source and the
// remote generation client.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ReceiptAgent/1.0)"

// Result holds the raw response of a request.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// IsHTML reports whether the response is an HTML page.
func (r *Result) IsHTML() bool {
	if r == nil {
		return false
	}
	if strings.Contains(strings.ToLower(r.ContentType), "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(r.Body[:min(len(r.Body), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// NetworkError represents an unreachable endpoint or a non-2xx response.
// StatusCode is zero when no response was received.
type NetworkError struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("network error for %s: %s", e.URL, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// URL issues a GET request and returns the response body.
// A non-2xx response returns both the Result and a *NetworkError.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return do(ctx, http.MethodGet, urlStr, nil, "", opts)
}

// PostJSON issues a POST request with payload encoded as JSON.
// A non-2xx response returns both the Result and a *NetworkError.
func PostJSON(ctx context.Context, urlStr string, payload any, opts *Options) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return do(ctx, http.MethodPost, urlStr, body, "application/json", opts)
}

func do(ctx context.Context, method, urlStr string, body []byte, contentType string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &NetworkError{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
	if err != nil {
		return nil, &NetworkError{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := opts.client().Do(req)
	if err != nil {
		return nil, &NetworkError{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{
			URL:        urlStr,
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	result := &Result{
		URL:         urlStr,
		Body:        bodyBytes,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &NetworkError{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}

// PageTitle returns the trimmed <title> of an HTML document, or the first
// heading when there is no title.
func PageTitle(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	if title := cleanWhitespace(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}
	return cleanWhitespace(doc.Find("h1, h2").First().Text()), nil
}

// cleanWhitespace collapses runs of whitespace into single spaces.
func cleanWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
