package taxonomy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodata/internal/logger"
	"cryptodata/internal/normalizer"
)

func TestLoadFile_MissingDegradesToEmpty(t *testing.T) {
	var buf bytes.Buffer

	m, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"), logger.NewLoggerWithWriter(&buf, "info", "text"))
	require.NoError(t, err)

	assert.Equal(t, 0, m.Len())
	assert.Contains(t, buf.String(), "taxonomy file not found")
}

func TestLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messari_to_dl.json")

	src := normalizer.NewTaxonomyMap(map[string]string{"uni": "uniswap", "aave": "aave"})
	require.NoError(t, SaveFile(path, src))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Less(t, bytes.Index(data, []byte(`"aave"`)), bytes.Index(data, []byte(`"uni"`)))

	m, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Entries(), m.Entries())
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `{bitcoin`,
		"array":          `["bitcoin"]`,
		"non-string val": `{"bitcoin":1}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tax.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := LoadFile(path, nil)
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}

func TestBuild(t *testing.T) {
	dl := []string{"aave", "uniswap", "curve", "orphan"}
	assets := []Asset{
		{Slug: "aave", Symbol: "AAVE"},
		{Slug: "uniswap", Symbol: "UNI"},
		{Slug: "bitcoin", Symbol: "BTC"},
	}
	overrides := map[string]string{"crv": "curve", "uni-v3": "uniswap"}

	res := Build(dl, assets, overrides)

	want := map[string]string{
		"aave":    "aave",
		"uniswap": "uniswap",
		"uni":     "uniswap",
		"crv":     "curve",
		"uni-v3":  "uniswap",
	}
	assert.Equal(t, want, res.Map.Entries())
	assert.Equal(t, []string{"uni-v3"}, res.Overlaps)
	assert.Equal(t, []string{"orphan"}, res.Untranslated)

	assert.Equal(t, []string{"uniswap", "bitcoin"}, res.Map.Translate([]string{"uni", "bitcoin"}))
}

func TestCollectAssets(t *testing.T) {
	pages := map[int][]Asset{
		1: {{Slug: "a"}, {Slug: "b"}},
		2: {{Slug: "c"}, {Slug: "d"}},
		3: {{Slug: "e"}},
	}

	var calls []int

	all, err := CollectAssets(context.Background(), func(_ context.Context, page, limit int) ([]Asset, error) {
		calls = append(calls, page)
		assert.Equal(t, 2, limit)

		return pages[page], nil
	}, 2)
	require.NoError(t, err)

	assert.Len(t, all, 5)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestCollectAssets_Error(t *testing.T) {
	boom := errors.New("boom")

	_, err := CollectAssets(context.Background(), func(context.Context, int, int) ([]Asset, error) {
		return nil, boom
	}, 10)
	assert.ErrorIs(t, err, boom)
}
