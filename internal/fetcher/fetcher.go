// Package fetcher retrieves product page HTML over HTTP with validation,
// bounded redirects and retry on transient failures.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/valuelens/valuelens-api/internal/protection"
)

// ErrBlankURL is returned before any network activity when the URL is empty
// or whitespace.
var ErrBlankURL = errors.New("URL cannot be blank")

// DefaultUserAgent identifies requests as a regular browser session.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds fetcher tuning knobs.
type Config struct {
	Timeout      time.Duration
	Retries      int
	RetryDelay   time.Duration
	MaxRedirects int
	UserAgent    string
}

// Fetcher downloads page HTML using a Colly collector per request.
type Fetcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a fetcher, filling in defaults for unset config fields.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 1 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cfg: cfg, logger: logger}
}

// ValidateURL checks that rawURL is non-blank, parseable, uses http or https
// and names a host. It performs no network activity.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrBlankURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("Invalid URL format: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// Fetch downloads the page at rawURL and returns its HTML. Transient network
// failures are retried with linearly increasing backoff; HTTP error statuses
// and empty bodies fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.Retries; attempt++ {
		html, statusCode, err := f.fetchOnce(rawURL)
		if err == nil {
			if strings.TrimSpace(html) == "" {
				return "", errors.New("No content received from server")
			}
			if det := protection.Detect(html); det.Detected() {
				f.logger.Warn("bot protection detected", "url", rawURL, "signal", det.Signal)
				return "", errors.New(det.Message)
			}
			return html, nil
		}

		if statusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("HTTP %d: %s", statusCode, http.StatusText(statusCode))
		}
		if !isTransient(err) {
			return "", err
		}

		lastErr = err
		if attempt < f.cfg.Retries {
			// delay grows linearly with the attempt number
			delay := f.cfg.RetryDelay * time.Duration(attempt)
			f.logger.Warn("fetch failed, retrying",
				"url", rawURL,
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if isTimeout(lastErr) {
		return "", fmt.Errorf("Request timed out after %d retries", f.cfg.Retries)
	}
	return "", fmt.Errorf("Connection failed after %d retries", f.cfg.Retries)
}

// fetchOnce performs a single HTTP fetch. statusCode is non-zero when the
// server responded, even on error statuses.
func (f *Fetcher) fetchOnce(rawURL string) (string, int, error) {
	var html string
	var statusCode int
	var fetchErr error

	c := colly.NewCollector(
		colly.UserAgent(f.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.cfg.Timeout)
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= f.cfg.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", f.cfg.MaxRedirects)
		}
		return nil
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		html = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = err
	}

	return html, statusCode, fetchErr
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if isTimeout(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "eof") ||
		strings.Contains(msg, "broken pipe")
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}
