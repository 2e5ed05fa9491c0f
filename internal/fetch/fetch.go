// Package fetch retrieves web pages and extracts the metadata the tag
// suggestion pipeline works from. Fetching is strictly bounded: timeouts,
// redirect limits, a body size cap, and HTML-only content types.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const maxRedirects = 5

// Error kinds. Callers treat fetch failures as non-fatal but log the kind.
var (
	ErrInvalidURL    = errors.New("invalid URL")
	ErrBlockedHost   = errors.New("blocked host")
	ErrRequestFailed = errors.New("request failed")
	ErrHTTPStatus    = errors.New("unexpected HTTP status")
	ErrNotHTML       = errors.New("not an HTML page")
	ErrTooLarge      = errors.New("response too large")
	ErrTimeout       = errors.New("fetch timed out")
)

// Classification is a coarse content type derived from page metadata.
type Classification string

// Content classifications.
const (
	ClassArticle Classification = "article"
	ClassVideo   Classification = "video"
	ClassProduct Classification = "product"
	ClassRecipe  Classification = "recipe"
	ClassOther   Classification = "other"
)

// Result holds everything extracted from a fetched page.
type Result struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
	SiteName    string
	Keywords    []string
	Headings    []string
	Excerpt     string
	Class       Classification
}

// Config bounds fetch behavior.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// Fetcher retrieves and parses pages.
type Fetcher struct {
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Fetcher. An httpClient of nil gets a default client with
// the configured timeout and a redirect policy that revalidates every hop.
func New(cfg Config, logger *slog.Logger, httpClient *http.Client) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "LinkStash/1.0"
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	// Shallow-copy so a shared client keeps its own redirect policy.
	client := *httpClient

	// Every redirect hop goes through the same host validation as the
	// original URL so a public page can't bounce us to an internal address.
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: more than %d redirects", ErrRequestFailed, maxRedirects)
		}
		return ValidateURL(req.URL.String())
	}

	return &Fetcher{
		client: &client,
		cfg:    cfg,
		logger: logger,
	}
}

// ValidateURL checks that a URL is http(s) and does not point at a
// loopback, private, or link-local address literal.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("%w: %s", ErrBlockedHost, host)
		}
	}

	return nil
}

// Fetch retrieves a page and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		// CheckRedirect errors come back wrapped in a *url.Error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			if errors.Is(urlErr.Err, ErrBlockedHost) || errors.Is(urlErr.Err, ErrInvalidURL) {
				return nil, urlErr.Err
			}
			if urlErr.Timeout() {
				return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	// Read one byte past the cap to tell "exactly at cap" from "over it".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, f.cfg.MaxBodyBytes)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse HTML: %v", ErrRequestFailed, err)
	}

	result := extract(doc, string(body))
	result.URL = rawURL

	if f.logger != nil {
		f.logger.Debug("fetched page",
			"url", rawURL,
			"title", result.Title,
			"class", string(result.Class),
			"bytes", len(body))
	}

	return result, nil
}
