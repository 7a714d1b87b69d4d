// Package messari wraps the Messari asset and market data API.
package messari

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/fetch"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
	"cryptodata/internal/taxonomy"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://data.messari.io/api"

// APIKeyHeader carries the API key.
const APIKeyHeader = "x-messari-api-key"

// DefaultInterval is the time-series resolution when none is given.
const DefaultInterval = "1d"

// PriceMetric is the only time-series metric reported with several value
// columns per asset.
const PriceMetric = "price"

const (
	metricsField = "metrics"
	profileField = "profile"
	slugField    = "slug"
)

// Messari errors.
var (
	ErrEndRequired   = errors.New("end date is required when start date is given")
	ErrNoTimeseries  = errors.New("no time-series data returned")
	ErrProfileFrame  = errors.New("profile fields cannot be tabulated")
	ErrInvalidPaging = errors.New("page must be at least 1 and limit between 1 and 500")
)

// MaxPageSize is the largest page the asset and market listings serve.
const MaxPageSize = 500

var byTimestamp = normalizer.NormalizeOptions{DateColumn: "timestamp", Unit: normalizer.UnitMilliseconds}

// Client is a Messari API client.
type Client struct {
	base *provider.Base
}

// New creates a client. opts.APIKey, when set, is sent in APIKeyHeader.
func New(client *fetch.Client, opts provider.Options) *Client {
	if opts.APIKey != "" {
		headers := make(map[string]string, len(opts.Headers)+1)
		for k, v := range opts.Headers {
			headers[k] = v
		}

		headers[APIKeyHeader] = opts.APIKey
		opts.Headers = headers
	}

	return &Client{base: provider.NewBase(config.Messari, DefaultBaseURL, client, opts)}
}

// TimeseriesQuery selects the window and resolution of MetricTimeseries.
type TimeseriesQuery struct {
	Range    normalizer.DateRange
	Interval string
}

// AssetQuery selects a page of the asset listing and its fields.
type AssetQuery struct {
	Fields        []string
	Metric        string
	ProfileMetric string
	Page          int
	Limit         int
}

// FieldsPayload renders the fields query parameter. slug is always
// requested. A metric or profile drill-down replaces the "metrics" or
// "profile" field, added if absent, and is moved to the end.
func FieldsPayload(fields []string, metric, profileMetric string) (string, error) {
	fields, err := provider.ValidateInput(fields)
	if err != nil {
		return "", err
	}

	if !slices.Contains(fields, slugField) {
		fields = append(fields, slugField)
	}

	if metric != "" {
		fields = drillDown(fields, metricsField, metric)
	}

	if profileMetric != "" {
		fields = drillDown(fields, profileField, profileMetric)
	}

	return strings.Join(fields, ","), nil
}

func drillDown(fields []string, field, sub string) []string {
	out := make([]string, 0, len(fields)+1)

	for _, f := range fields {
		if f != field {
			out = append(out, f)
		}
	}

	return append(out, field+"/"+sub)
}

// Asset returns basic metadata, one flattened row per slug.
func (c *Client) Asset(ctx context.Context, slugs, fields []string) (*normalizer.Frame, error) {
	params := url.Values{}

	if len(fields) > 0 {
		payload, err := FieldsPayload(fields, "", "")
		if err != nil {
			return nil, err
		}

		params.Set("fields", payload)
	}

	return c.perAsset(ctx, slugs, params, "v1", "")
}

// AssetMetrics returns quantitative metrics, one flattened row per slug.
// A non-empty metric narrows the reply to that metric.
func (c *Client) AssetMetrics(ctx context.Context, slugs []string, metric string) (*normalizer.Frame, error) {
	params := url.Values{}
	if metric != "" {
		params.Set("fields", "id,symbol,"+metric)
	}

	return c.perAsset(ctx, slugs, params, "v1", "metrics")
}

// MarketData returns the latest market data, one flattened row per slug.
func (c *Client) MarketData(ctx context.Context, slugs []string) (*normalizer.Frame, error) {
	return c.AssetMetrics(ctx, slugs, "market_data")
}

// AssetProfile returns qualitative information, one flattened row per slug.
// A non-empty profileMetric narrows the reply to that profile section.
func (c *Client) AssetProfile(ctx context.Context, slugs []string, profileMetric string) (*normalizer.Frame, error) {
	params := url.Values{}

	if profileMetric != "" {
		payload, err := FieldsPayload([]string{"id"}, "", profileMetric)
		if err != nil {
			return nil, err
		}

		params.Set("fields", payload)
	}

	return c.perAsset(ctx, slugs, params, "v2", "profile")
}

// perAsset requests {version}/assets/{slug}/{suffix} for each slug and
// flattens each reply's data object into a row labelled by slug.
func (c *Client) perAsset(ctx context.Context, slugs []string, params url.Values, version, suffix string) (*normalizer.Frame, error) {
	slugs, err := c.base.Translate(slugs)
	if err != nil {
		return nil, err
	}

	records := make([]normalizer.FlatRecord, 0, len(slugs))

	for _, slug := range slugs {
		path := []string{version, "assets", slug}
		if suffix != "" {
			path = append(path, suffix)
		}

		doc, err := c.base.Get(ctx, params, path...)
		if err != nil {
			return nil, err
		}

		data, err := provider.Field(doc, "data")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", slug, err)
		}

		records = append(records, normalizer.Flatten(data, "", normalizer.DefaultSeparator))
	}

	return normalizer.FrameFromFlat(slugs, records)
}

// AllAssets returns a page of the asset listing, one flattened row per
// asset slug. Profile drill-downs are rejected since profile sections are
// free text.
func (c *Client) AllAssets(ctx context.Context, q AssetQuery) (*normalizer.Frame, error) {
	if q.ProfileMetric != "" {
		return nil, ErrProfileFrame
	}

	items, err := c.assetPage(ctx, q)
	if err != nil {
		return nil, err
	}

	index := make([]string, len(items))
	records := make([]normalizer.FlatRecord, len(items))

	for i, item := range items {
		slug, _ := item.Get(slugField)
		index[i] = slug.String()
		records[i] = normalizer.Flatten(item, "", normalizer.DefaultSeparator)
	}

	return normalizer.FrameFromFlat(index, records)
}

// AssetPage returns the slug and symbol of each asset on one listing page.
func (c *Client) AssetPage(ctx context.Context, page, limit int) ([]taxonomy.Asset, error) {
	items, err := c.assetPage(ctx, AssetQuery{
		Page:   page,
		Limit:  limit,
		Fields: []string{"id", slugField, "symbol"},
	})
	if err != nil {
		return nil, err
	}

	assets := make([]taxonomy.Asset, len(items))

	for i, item := range items {
		slug, _ := item.Get(slugField)
		symbol, _ := item.Get("symbol")
		assets[i] = taxonomy.Asset{Slug: slug.String(), Symbol: symbol.String()}
	}

	return assets, nil
}

func (c *Client) assetPage(ctx context.Context, q AssetQuery) ([]document.Value, error) {
	params, err := pageParams(q.Page, q.Limit)
	if err != nil {
		return nil, err
	}

	if len(q.Fields) > 0 || q.Metric != "" || q.ProfileMetric != "" {
		fields := q.Fields
		if len(fields) == 0 {
			fields = []string{metricsField}
		}

		payload, err := FieldsPayload(fields, q.Metric, q.ProfileMetric)
		if err != nil {
			return nil, err
		}

		params.Set("fields", payload)
	}

	doc, err := c.base.Get(ctx, params, "v2", "assets")
	if err != nil {
		return nil, err
	}

	items, err := provider.Items(doc, "data")
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		if _, ok := item.Get(slugField); !ok {
			return nil, fmt.Errorf("%w: asset %d has no %s", provider.ErrMissingField, i, slugField)
		}
	}

	return items, nil
}

// Markets returns a page of exchange pairs indexed by exchange slug.
func (c *Client) Markets(ctx context.Context, page, limit int) (*normalizer.Frame, error) {
	params, err := pageParams(page, limit)
	if err != nil {
		return nil, err
	}

	doc, err := c.base.Get(ctx, params, "v1", "markets")
	if err != nil {
		return nil, err
	}

	f, err := provider.Records(doc, "data")
	if err != nil {
		return nil, err
	}

	return f.SetIndex("exchange_slug")
}

// MetricTimeseries returns one metric's history per asset. Columns are keyed
// (slug, value column); for metrics other than PriceMetric the value column
// level is dropped. Assets without data are logged and left out.
func (c *Client) MetricTimeseries(ctx context.Context, slugs []string, metric string, q TimeseriesQuery) (*normalizer.TimeSeries, error) {
	if !q.Range.Start.IsZero() && q.Range.End.IsZero() {
		return nil, ErrEndRequired
	}

	slugs, err := c.base.Translate(slugs)
	if err != nil {
		return nil, err
	}

	interval := q.Interval
	if interval == "" {
		interval = DefaultInterval
	}

	params := url.Values{}
	params.Set("interval", interval)

	if !q.Range.Start.IsZero() {
		params.Set("start", q.Range.Start.Format(normalizer.DateLayout))
		params.Set("end", q.Range.End.Format(normalizer.DateLayout))
	}

	var (
		keys   []string
		series []*normalizer.TimeSeries
	)

	for _, slug := range slugs {
		doc, err := c.base.Get(ctx, params, "v1", "assets", slug, "metrics", metric, "time-series")
		if err != nil {
			return nil, err
		}

		ts, ok, err := timeseries(doc)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", slug, metric, err)
		}

		if !ok {
			c.base.Logger().Warn("missing timeseries data", "slug", slug, "metric", metric)

			continue
		}

		keys = append(keys, slug)
		series = append(series, ts)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTimeseries, metric)
	}

	joined, err := normalizer.ConcatSeries(keys, series)
	if err != nil {
		return nil, err
	}

	if metric != PriceMetric {
		if first := joined.Keys(); len(first) > 0 && len(first[0]) > 1 {
			joined = joined.CrossSection(1, first[0][1])
		}
	}

	return normalizer.FilterRange(joined, q.Range), nil
}

// timeseries reads data.values with the names in data.parameters.columns.
// ok is false when values is not a list.
func timeseries(doc document.Value) (*normalizer.TimeSeries, bool, error) {
	values, found := doc.Path("data", "values")
	if !found || values.Kind() != document.KindArray {
		return nil, false, nil
	}

	cols, err := provider.Items(doc, "data", "parameters", "columns")
	if err != nil {
		return nil, false, err
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.String()
	}

	ts, err := normalizer.NewRowProcessor(names, byTimestamp).Process(values, normalizer.DateRange{})
	if err != nil {
		return nil, false, err
	}

	return ts, true, nil
}

func pageParams(page, limit int) (url.Values, error) {
	if page < 1 || limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: page %d, limit %d", ErrInvalidPaging, page, limit)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	return params, nil
}
