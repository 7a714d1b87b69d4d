// Package tokenterminal wraps the Token Terminal project metrics API.
package tokenterminal

import (
	"context"
	"fmt"

	"cryptodata/internal/config"
	"cryptodata/internal/fetch"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.tokenterminal.com/v1"

const projectsPath = "projects"

var byDatetime = normalizer.NormalizeOptions{DateColumn: "datetime"}

// Client is a Token Terminal API client.
type Client struct {
	base *provider.Base
}

// New creates a client. opts.APIKey is sent as a bearer token; identifiers
// are translated through opts.Taxonomy.
func New(client *fetch.Client, opts provider.Options) *Client {
	if opts.APIKey != "" {
		headers := make(map[string]string, len(opts.Headers)+1)
		for k, v := range opts.Headers {
			headers[k] = v
		}

		headers["Authorization"] = "Bearer " + opts.APIKey
		opts.Headers = headers
	}

	return &Client{base: provider.NewBase(config.TokenTerminal, DefaultBaseURL, client, opts)}
}

// ProjectIDs returns the id of every listed project.
func (c *Client) ProjectIDs(ctx context.Context) ([]string, error) {
	f, err := c.projects(ctx)
	if err != nil {
		return nil, err
	}

	values, ok := f.Column("project_id")
	if !ok {
		return nil, fmt.Errorf("%w: project_id", provider.ErrMissingField)
	}

	ids := make([]string, len(values))
	for i, v := range values {
		ids[i] = v.String()
	}

	return ids, nil
}

// AllProjects returns the project listing with one column per project id and
// one row per field.
func (c *Client) AllProjects(ctx context.Context) (*normalizer.Frame, error) {
	f, err := c.projects(ctx)
	if err != nil {
		return nil, err
	}

	f, err = f.SetIndex("project_id")
	if err != nil {
		return nil, err
	}

	return f.Transpose()
}

func (c *Client) projects(ctx context.Context) (*normalizer.Frame, error) {
	doc, err := c.base.Get(ctx, nil, projectsPath)
	if err != nil {
		return nil, err
	}

	return provider.Records(doc)
}

// ProjectMetrics returns every daily metric of each project, keyed
// (project, metric).
func (c *Client) ProjectMetrics(ctx context.Context, ids []string, r normalizer.DateRange) (*normalizer.TimeSeries, error) {
	ids, series, err := c.metrics(ctx, ids)
	if err != nil {
		return nil, err
	}

	joined, err := normalizer.ConcatSeries(ids, series)
	if err != nil {
		return nil, err
	}

	return normalizer.FilterRange(joined, r), nil
}

// HistoricalMetric returns one metric per project, one column per project.
func (c *Client) HistoricalMetric(ctx context.Context, ids []string, metric string, r normalizer.DateRange) (*normalizer.TimeSeries, error) {
	ids, series, err := c.metrics(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, ts := range series {
		if _, ok := ts.Column(metric); !ok {
			return nil, fmt.Errorf("project %s: %w: %q", ids[i], normalizer.ErrMissingColumn, metric)
		}
	}

	joined, err := normalizer.ConcatSeries(ids, series)
	if err != nil {
		return nil, err
	}

	return normalizer.FilterRange(joined.CrossSection(1, metric), r), nil
}

func (c *Client) metrics(ctx context.Context, ids []string) ([]string, []*normalizer.TimeSeries, error) {
	ids, err := c.base.Translate(ids)
	if err != nil {
		return nil, nil, err
	}

	series := make([]*normalizer.TimeSeries, 0, len(ids))

	for _, id := range ids {
		doc, err := c.base.Get(ctx, nil, projectsPath, id, "metrics")
		if err != nil {
			return nil, nil, err
		}

		ts, err := normalizer.NewProcessor(byDatetime).Process(doc, normalizer.DateRange{})
		if err != nil {
			return nil, nil, fmt.Errorf("project %s: %w", id, err)
		}

		series = append(series, ts)
	}

	return ids, series, nil
}
