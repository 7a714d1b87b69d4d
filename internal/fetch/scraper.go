// Package fetch performs the HTTP GET requests behind every provider wrapper.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cryptodata/internal/config"
	"cryptodata/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrResponseTooLarge     = errors.New("response exceeds buffer size")
	ErrInvalidURL           = errors.New("invalid request URL")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL        string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %d from %s", ErrUnexpectedStatusCode, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("%s: %d from %s: %s", ErrUnexpectedStatusCode, e.StatusCode, e.URL, e.Body)
}

// Unwrap lets errors.Is match ErrUnexpectedStatusCode.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

// Request describes one GET call.
type Request struct {
	Params  url.Values
	Headers map[string]string
	URL     string
}

// Encode returns the full URL including query parameters.
func (r Request) Encode() string {
	if len(r.Params) == 0 {
		return r.URL
	}

	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}

	return r.URL + sep + r.Params.Encode()
}

// Scraper issues paced GET requests. It never retries.
type Scraper struct {
	client       *http.Client
	limiter      *rate.Limiter
	headers      *utils.HTTPHelper
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	cfg := config.DefaultConfig().HTTP

	return NewScraperWithConfig(&cfg)
}

// NewScraperWithConfig creates a scraper from the http config section.
func NewScraperWithConfig(cfg *config.HTTPConfig) *Scraper {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	return &Scraper{
		client: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		limiter:      limiter,
		headers:      utils.NewHTTPHelper(cfg.UserAgent),
		bufferSizeKb: cfg.BufferSizeKb,
	}
}

// WithHTTPClient replaces the underlying client, e.g. with a test server's.
func (s *Scraper) WithHTTPClient(c *http.Client) *Scraper {
	s.client = c

	return s
}

// FetchWithMetrics returns (body, statusCode, duration, error).
func (s *Scraper) FetchWithMetrics(ctx context.Context, r Request) ([]byte, int, time.Duration, error) {
	if !s.headers.IsValidURL(r.URL) {
		return nil, 0, 0, fmt.Errorf("%w: %q", ErrInvalidURL, r.URL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, 0, fmt.Errorf("rate limiter: %w", err)
	}

	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Encode(), http.NoBody)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(r.Headers)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, time.Since(startTime), fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := s.readBody(resp.Body)
	duration := time.Since(startTime)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, duration, &StatusError{
			URL:        r.URL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(truncate(body, 512))),
		}
	}

	if err != nil {
		return nil, resp.StatusCode, duration, err
	}

	return body, resp.StatusCode, duration, nil
}

// Fetch returns the body of a successful response.
func (s *Scraper) Fetch(ctx context.Context, r Request) ([]byte, error) {
	body, _, _, err := s.FetchWithMetrics(ctx, r)

	return body, err
}

func (s *Scraper) readBody(body io.Reader) ([]byte, error) {
	if s.bufferSizeKb <= 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		return data, nil
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(data)) > limit {
		return data[:limit], fmt.Errorf("%w: more than %d KB", ErrResponseTooLarge, s.bufferSizeKb)
	}

	return data, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}

	return b
}
