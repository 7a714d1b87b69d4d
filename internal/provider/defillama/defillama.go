// Package defillama wraps the DeFi Llama TVL API.
package defillama

import (
	"context"
	"fmt"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/fetch"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.llama.fi"

// AllChains keys the cross-chain totals in ProtocolTVL.
const AllChains = "all"

// TotalColumn holds total USD liquidity in TVL series.
const TotalColumn = "totalLiquidityUSD"

// USDSuffix marks token balances expressed in USD.
const USDSuffix = "_usd"

var byDate = normalizer.NormalizeOptions{DateColumn: "date", Unit: normalizer.UnitSeconds}

// Client is a DeFi Llama API client.
type Client struct {
	base *provider.Base
}

// New creates a client. Identifiers passed to ProtocolTVL are translated
// through opts.Taxonomy.
func New(client *fetch.Client, opts provider.Options) *Client {
	return &Client{base: provider.NewBase(config.DefiLlama, DefaultBaseURL, client, opts)}
}

// Protocols returns every listed protocol, one column per protocol slug and
// one row per field.
func (c *Client) Protocols(ctx context.Context) (*normalizer.Frame, error) {
	protocols, err := c.protocols(ctx)
	if err != nil {
		return nil, err
	}

	table := normalizer.NewEntityTable()

	for _, p := range protocols {
		slug, _ := p.Get("slug")
		table.AddDocument(slug.String(), p)
	}

	return table.Frame(), nil
}

// Slugs returns the slug of every listed protocol.
func (c *Client) Slugs(ctx context.Context) ([]string, error) {
	protocols, err := c.protocols(ctx)
	if err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(protocols))

	for _, p := range protocols {
		if slug, ok := p.Get("slug"); ok {
			slugs = append(slugs, slug.String())
		}
	}

	return slugs, nil
}

func (c *Client) protocols(ctx context.Context) ([]document.Value, error) {
	doc, err := c.base.Get(ctx, nil, "protocols")
	if err != nil {
		return nil, err
	}

	items, err := provider.Items(doc)
	if err != nil {
		return nil, err
	}

	for i, p := range items {
		if p.Kind() != document.KindObject {
			return nil, &normalizer.ShapeError{Row: i, Expected: document.KindObject, Got: p.Kind()}
		}
	}

	return items, nil
}

// GlobalTVL returns the daily TVL summed over every protocol.
func (c *Client) GlobalTVL(ctx context.Context, r normalizer.DateRange) (*normalizer.TimeSeries, error) {
	doc, err := c.base.Get(ctx, nil, "charts")
	if err != nil {
		return nil, err
	}

	ts, err := normalizer.NewProcessor(byDate).Process(doc, r)
	if err != nil {
		return nil, fmt.Errorf("global tvl: %w", err)
	}

	return ts, nil
}

// ChainTVL returns the daily TVL of each chain, one column per chain.
func (c *Client) ChainTVL(ctx context.Context, chains []string, r normalizer.DateRange) (*normalizer.TimeSeries, error) {
	chains, err := provider.ValidateInput(chains)
	if err != nil {
		return nil, err
	}

	series := make([]*normalizer.TimeSeries, 0, len(chains))

	for _, chain := range chains {
		doc, err := c.base.Get(ctx, nil, "charts", chain)
		if err != nil {
			return nil, err
		}

		ts, err := normalizer.NewProcessor(byDate).Process(doc, normalizer.DateRange{})
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", chain, err)
		}

		series = append(series, ts)
	}

	joined, err := normalizer.ConcatSeries(chains, series)
	if err != nil {
		return nil, err
	}

	return normalizer.FilterRange(joined.CrossSection(1, TotalColumn), r), nil
}

// ProtocolTVL returns daily TVL per protocol, chain and asset. Columns are
// keyed (protocol, chain, asset) where chain is AllChains for the
// cross-chain total and asset is TotalColumn, a token symbol holding the
// native amount, or the symbol with USDSuffix holding its USD value.
func (c *Client) ProtocolTVL(ctx context.Context, slugs []string, r normalizer.DateRange) (*normalizer.TimeSeries, error) {
	slugs, err := c.base.Translate(slugs)
	if err != nil {
		return nil, err
	}

	series := make([]*normalizer.TimeSeries, 0, len(slugs))

	for _, slug := range slugs {
		doc, err := c.base.Get(ctx, nil, "protocol", slug)
		if err != nil {
			return nil, err
		}

		ts, err := protocolSeries(doc)
		if err != nil {
			return nil, fmt.Errorf("protocol %s: %w", slug, err)
		}

		series = append(series, ts)
	}

	joined, err := normalizer.ConcatSeries(slugs, series)
	if err != nil {
		return nil, err
	}

	return normalizer.FilterRange(joined, r), nil
}

// CurrentTVL returns the latest TVL of each protocol in a "tvl" column.
// Slugs the API answers with a message instead of a number are logged and
// left out.
func (c *Client) CurrentTVL(ctx context.Context, slugs []string) (*normalizer.Frame, error) {
	slugs, err := provider.ValidateInput(slugs)
	if err != nil {
		return nil, err
	}

	var (
		index  []string
		values []document.Value
	)

	for _, slug := range slugs {
		doc, err := c.base.Get(ctx, nil, "tvl", slug)
		if err != nil {
			return nil, err
		}

		if doc.Kind() != document.KindNumber {
			msg, _ := doc.Get("message")
			c.base.Logger().Warn("no current tvl", "slug", slug, "message", msg.String())

			continue
		}

		index = append(index, slug)
		values = append(values, doc)
	}

	out := normalizer.NewFrame(index)
	if err := out.AddColumn(normalizer.Key{"tvl"}, values); err != nil {
		return nil, err
	}

	return out, nil
}

// protocolSeries assembles one protocol's chains plus the AllChains totals.
func protocolSeries(doc document.Value) (*normalizer.TimeSeries, error) {
	chains, err := provider.Items(doc, "chains")
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(chains)+1)
	series := make([]*normalizer.TimeSeries, 0, len(chains)+1)

	for _, ch := range chains {
		chain := ch.String()

		section, err := provider.Field(doc, "chainTvls", chain)
		if err != nil {
			return nil, err
		}

		ts, err := tvlSeries(section)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", chain, err)
		}

		keys = append(keys, chain)
		series = append(series, ts)
	}

	total, err := tvlSeries(doc)
	if err != nil {
		return nil, err
	}

	keys = append(keys, AllChains)
	series = append(series, total)

	return normalizer.ConcatSeries(keys, series)
}

// tvlSeries joins a section's tvl with its token balances, native and USD.
func tvlSeries(section document.Value) (*normalizer.TimeSeries, error) {
	tvl, err := recordSeries(section, "tvl")
	if err != nil {
		return nil, err
	}

	tokens, err := tokenSeries(section, "tokens")
	if err != nil {
		return nil, err
	}

	usd, err := tokenSeries(section, "tokensInUsd")
	if err != nil {
		return nil, err
	}

	joint, err := normalizer.ConcatSeries(nil, []*normalizer.TimeSeries{tokens, usd.WithSuffix(USDSuffix)})
	if err != nil {
		return nil, err
	}

	return tvl.JoinLeft(joint), nil
}

// recordSeries normalizes an optional array of dated records.
func recordSeries(section document.Value, field string) (*normalizer.TimeSeries, error) {
	v, ok := section.Get(field)
	if !ok || v.IsNull() {
		v = document.Array()
	}

	ts, err := normalizer.NewProcessor(byDate).Process(v, normalizer.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}

	return ts, nil
}

// tokenSeries lifts each entry's "tokens" object into columns beside its date.
func tokenSeries(section document.Value, field string) (*normalizer.TimeSeries, error) {
	v, ok := section.Get(field)
	if !ok || v.IsNull() {
		return recordSeries(document.Object(), field)
	}

	items, err := provider.Items(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}

	rows := make([]document.Value, len(items))

	for i, item := range items {
		if item.Kind() != document.KindObject {
			return nil, &normalizer.ShapeError{Entity: field, Row: i, Expected: document.KindObject, Got: item.Kind()}
		}

		var fields []document.Field

		item.EachField(func(key string, val document.Value) bool {
			if key == "tokens" && val.Kind() == document.KindObject {
				fields = append(fields, val.Fields()...)
			} else {
				fields = append(fields, document.F(key, val))
			}

			return true
		})

		rows[i] = document.Object(fields...)
	}

	return recordSeries(document.Object(document.F(field, document.Array(rows...))), field)
}
