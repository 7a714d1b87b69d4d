package defillama

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/config"
	"cryptodata/internal/fetch"
	"cryptodata/internal/logger"
	"cryptodata/internal/normalizer"
	"cryptodata/internal/provider"
)

const (
	oct1 = "1633046400"
	oct2 = "1633132800"
	oct3 = "1633219200"
)

var responses = map[string]string{
	"/protocols": `[
		{"id":"1","name":"Aave","slug":"aave","tvl":10,"chains":["Ethereum"]},
		{"id":"2","name":"Uniswap","slug":"uniswap","tvl":20,"symbol":"UNI"}
	]`,
	"/charts": `[
		{"date":"` + oct1 + `","totalLiquidityUSD":100},
		{"date":"` + oct2 + `","totalLiquidityUSD":110},
		{"date":"` + oct2 + `","totalLiquidityUSD":111},
		{"date":"` + oct3 + `","totalLiquidityUSD":120}
	]`,
	"/charts/Ethereum": `[{"date":"` + oct1 + `","totalLiquidityUSD":50},{"date":"` + oct2 + `","totalLiquidityUSD":55}]`,
	"/charts/Solana":   `[{"date":"` + oct2 + `","totalLiquidityUSD":5}]`,
	"/tvl/aave":        `12345.6`,
	"/tvl/unknown":     `{"message":"Protocol is not in our database"}`,
	"/protocol/aave": `{
		"name":"Aave",
		"chains":["Ethereum"],
		"chainTvls":{
			"Ethereum":{
				"tvl":[{"date":` + oct1 + `,"totalLiquidityUSD":7},{"date":` + oct2 + `,"totalLiquidityUSD":8}],
				"tokens":[{"date":` + oct1 + `,"tokens":{"USDC":3,"WETH":1}}],
				"tokensInUsd":[{"date":` + oct1 + `,"tokens":{"USDC":3,"WETH":4000}}]
			}
		},
		"tvl":[{"date":` + oct1 + `,"totalLiquidityUSD":70},{"date":` + oct2 + `,"totalLiquidityUSD":80},{"date":` + oct3 + `,"totalLiquidityUSD":90}],
		"tokens":null,
		"tokensInUsd":[{"date":` + oct2 + `,"tokens":{"USDC":30}}]
	}`,
}

func newTestClient(t *testing.T, tax map[string]string) *Client {
	t.Helper()

	return newLoggedClient(t, tax, nil)
}

func newLoggedClient(t *testing.T, tax map[string]string, log *logger.Logger) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig().HTTP
	cfg.RateLimit.RequestsPerSecond = 0

	return New(fetch.NewClientWithDeps(fetch.NewScraperWithConfig(&cfg), nil), provider.Options{
		BaseURL:  server.URL,
		Taxonomy: normalizer.NewTaxonomyMap(tax),
		Logger:   log,
	})
}

func dates(ts *normalizer.TimeSeries) []string {
	var out []string
	for _, d := range ts.Dates() {
		out = append(out, d.Format(normalizer.DateLayout))
	}

	return out
}

func mustDate(t *testing.T, s string) normalizer.DateRange {
	t.Helper()

	r, err := normalizer.ParseDateRange(s, s)
	require.NoError(t, err)

	return r
}

func TestProtocols(t *testing.T) {
	c := newTestClient(t, nil)

	f, err := c.Protocols(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"aave", "uniswap"}, f.Groups())
	assert.Equal(t, "Uniswap", f.Cell(1, "uniswap").String())
	assert.Contains(t, f.Index(), "symbol")

	slugs, err := c.Slugs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"aave", "uniswap"}, slugs)
}

func TestGlobalTVL(t *testing.T) {
	c := newTestClient(t, nil)

	r, err := normalizer.ParseDateRange("2021-10-02", "2021-10-03")
	require.NoError(t, err)

	ts, err := c.GlobalTVL(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, []string{"2021-10-02", "2021-10-03"}, dates(ts))

	v, _ := ts.Lookup(ts.Dates()[0], TotalColumn)
	assert.Equal(t, "111", v.String())
}

func TestChainTVL(t *testing.T) {
	c := newTestClient(t, nil)

	ts, err := c.ChainTVL(context.Background(), []string{"Ethereum", "Solana"}, normalizer.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, []normalizer.Key{{"Ethereum"}, {"Solana"}}, ts.Keys())
	assert.Equal(t, []string{"2021-10-01", "2021-10-02"}, dates(ts))

	v, _ := ts.Lookup(ts.Dates()[0], "Solana")
	assert.True(t, v.IsAbsent())
}

func TestProtocolTVL(t *testing.T) {
	c := newTestClient(t, map[string]string{"aave-token": "aave"})

	ts, err := c.ProtocolTVL(context.Background(), []string{"aave-token"}, normalizer.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, []string{"2021-10-01", "2021-10-02", "2021-10-03"}, dates(ts))
	assert.Equal(t, []normalizer.Key{
		{"aave", "Ethereum", TotalColumn},
		{"aave", "Ethereum", "USDC"},
		{"aave", "Ethereum", "WETH"},
		{"aave", "Ethereum", "USDC_usd"},
		{"aave", "Ethereum", "WETH_usd"},
		{"aave", AllChains, TotalColumn},
		{"aave", AllChains, "USDC_usd"},
	}, ts.Keys())

	day1 := mustDate(t, "2021-10-01").Start
	v, _ := ts.Lookup(day1, "aave", "Ethereum", "WETH_usd")
	assert.Equal(t, "4000", v.String())

	day3 := mustDate(t, "2021-10-03").Start
	v, _ = ts.Lookup(day3, "aave", AllChains, TotalColumn)
	assert.Equal(t, "90", v.String())

	v, _ = ts.Lookup(day3, "aave", "Ethereum", TotalColumn)
	assert.True(t, v.IsAbsent())
}

func TestProtocolTVL_UnknownSlug(t *testing.T) {
	c := newTestClient(t, nil)

	_, err := c.ProtocolTVL(context.Background(), []string{"nope"}, normalizer.DateRange{})
	assert.ErrorIs(t, err, fetch.ErrUnexpectedStatusCode)
}

func TestCurrentTVL(t *testing.T) {
	c := newTestClient(t, nil)

	f, err := c.CurrentTVL(context.Background(), []string{"aave", "unknown"})
	require.NoError(t, err)

	assert.Equal(t, []string{"aave"}, f.Index())
	assert.Equal(t, "12345.6", f.Cell(0, "tvl").String())

	_, err = c.CurrentTVL(context.Background(), nil)
	assert.ErrorIs(t, err, provider.ErrNoInput)
}

func TestCurrentTVL_MissingSlugLogsWarning(t *testing.T) {
	var buf bytes.Buffer

	c := newLoggedClient(t, nil, logger.NewLoggerWithWriter(&buf, "debug", "json"))

	_, err := c.CurrentTVL(context.Background(), []string{"unknown"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"level":"WARN","msg":"no current tvl"`)
	assert.Contains(t, buf.String(), `"slug":"unknown"`)
	assert.NotContains(t, buf.String(), `"level":"ERROR"`)
}
