package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cryptodata/internal/formatter"
	"cryptodata/internal/taxonomy"
)

var routes = map[string]string{
	"/protocols": `[{"slug":"aave","name":"Aave"},{"slug":"uniswap","name":"Uniswap"},{"slug":"curve","name":"Curve"}]`,
	"/charts": `[
		{"date":"1633046400","totalLiquidityUSD":100},
		{"date":"1633132800","totalLiquidityUSD":110}
	]`,
	"/v2/assets": `{"data":[
		{"id":"1","slug":"aave","symbol":"AAVE"},
		{"id":"2","slug":"uniswap","symbol":"UNI"},
		{"id":"3","slug":"bitcoin","symbol":"BTC"}
	]}`,
	"/chaininfo": `{"blockHeight":90,"transactionCount":1000}`,
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

// writeConfig points every provider at url and disables the named ones.
func writeConfig(t *testing.T, url string, disabled ...string) string {
	t.Helper()

	var b strings.Builder

	b.WriteString("http:\n  rate_limit:\n    requests_per_second: 0\nproviders:\n")

	for _, name := range []string{"defillama", "messari", "deepdao", "solscan", "tokenterminal"} {
		enabled := true

		for _, d := range disabled {
			if d == name {
				enabled = false
			}
		}

		fmt.Fprintf(&b, "  %s:\n    base_url: %s\n    enabled: %t\n", name, url, enabled)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))

	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	code := execute(context.Background(), args, &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func TestGlobalTVL_CSV(t *testing.T) {
	t.Setenv("PATH", filepath.Join(t.TempDir(), "bin"))
	t.Setenv("FORMAT", "json")

	server := newServer(t)
	cfg := writeConfig(t, server.URL)

	code, stdout, stderr := run(t, "--config", cfg, "-o", "csv", "--start", "2021-10-02", "defillama", "global-tvl")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, "date,totalLiquidityUSD\n2021-10-02,110\n", stdout)
}

func TestProtocols_Table(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)

	code, stdout, stderr := run(t, "--config", cfg, "defillama", "protocols")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "| aave ")
	assert.Contains(t, lines[3], "| Uniswap ")
}

func TestChainInfo_JSON(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)

	code, stdout, stderr := run(t, "--config", cfg, "-o", "json", "solscan", "chain-info")
	require.Equal(t, 0, code, stderr)

	assert.JSONEq(t, `[
		{"index":"blockHeight","value":90},
		{"index":"transactionCount","value":1000}
	]`, stdout)
}

func TestXLSXOutputFile(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)
	out := filepath.Join(t.TempDir(), "tvl.xlsx")

	code, _, stderr := run(t, "--config", cfg, "-o", "xlsx", "--out-file", out, "defillama", "global-tvl")
	require.Equal(t, 0, code, stderr)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)

	defer func() {
		_ = f.Close()
	}()

	rows, err := f.GetRows(formatter.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2021-10-01", "100"}, rows[1])
}

func TestXLSXRequiresPath(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)

	code, _, stderr := run(t, "--config", cfg, "-o", "xlsx", "defillama", "global-tvl")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "output.path is required")
}

func TestTaxonomyUpdate(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)
	dir := t.TempDir()

	overrides := filepath.Join(dir, "overrides.json")
	require.NoError(t, os.WriteFile(overrides, []byte(`{"crv":"curve"}`), 0600))

	out := filepath.Join(dir, "messari_to_dl.json")

	code, _, stderr := run(t, "--config", cfg, "taxonomy", "update", "--out", out, "--overrides", overrides)
	require.Equal(t, 0, code, stderr)

	m, err := taxonomy.LoadFile(out, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"aave":    "aave",
		"uniswap": "uniswap",
		"uni":     "uniswap",
		"crv":     "curve",
	}, m.Entries())
	assert.Contains(t, stderr, "taxonomy rebuilt")
}

func TestMessariTimeseries_StartWithoutEnd(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)

	code, _, stderr := run(t, "--config", cfg, "--start", "2021-10-01", "messari", "timeseries", "price", "bitcoin")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "end date is required")
}

func TestDisabledProvider(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL, "solscan")

	code, _, stderr := run(t, "--config", cfg, "solscan", "chain-info")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, ErrProviderDisabled.Error())
}

func TestInvalidDate(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL)

	code, _, stderr := run(t, "--config", cfg, "--start", "01/10/2021", "defillama", "global-tvl")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "01/10/2021")
}

func TestConfigCommand(t *testing.T) {
	server := newServer(t)
	cfg := writeConfig(t, server.URL, "deepdao", "solscan", "tokenterminal")

	code, stdout, stderr := run(t, "--config", cfg, "config")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, "Config{Providers: [defillama messari], Timeout: 30s, Output: table}\n", stdout)
}
