package fetch

import (
	"context"
	"errors"
	"fmt"

	"cryptodata/internal/document"
	"cryptodata/internal/logger"
)

// ErrDecode indicates a response body that is not valid JSON.
var ErrDecode = errors.New("failed to decode response")

// Client fetches JSON documents and logs each request.
type Client struct {
	scraper *Scraper
	log     *logger.Logger
}

// NewClient creates a client with a default scraper.
func NewClient(log *logger.Logger) *Client {
	return NewClientWithDeps(NewScraper(), log)
}

// NewClientWithDeps creates a client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		scraper: scraper,
		log:     log,
	}
}

// Get returns the raw body of a successful response.
func (c *Client) Get(ctx context.Context, r Request) ([]byte, error) {
	body, status, duration, err := c.scraper.FetchWithMetrics(ctx, r)
	if err != nil {
		c.log.Debug("request failed", "url", r.URL, "status", status, "duration", duration, "error", err)

		return nil, err
	}

	c.log.Debug("request", "url", r.URL, "status", status, "bytes", len(body), "duration", duration)

	return body, nil
}

// GetJSON fetches and decodes a JSON document.
func (c *Client) GetJSON(ctx context.Context, r Request) (document.Value, error) {
	body, err := c.Get(ctx, r)
	if err != nil {
		return document.Value{}, err
	}

	doc, err := document.Parse(body)
	if err != nil {
		return document.Value{}, fmt.Errorf("%w from %s: %w", ErrDecode, r.URL, err)
	}

	return doc, nil
}
