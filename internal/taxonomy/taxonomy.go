// Package taxonomy loads, saves and rebuilds identifier translation tables.
package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"cryptodata/internal/document"
	"cryptodata/internal/logger"
	"cryptodata/internal/normalizer"
)

// ErrInvalidFile is returned for a taxonomy file that is not a flat string map.
var ErrInvalidFile = errors.New("invalid taxonomy file")

// LoadFile reads a JSON object of identifier to identifier. A missing file
// yields an empty map and a warning; an empty path yields an empty map.
func LoadFile(path string, log *logger.Logger) (normalizer.TaxonomyMap, error) {
	if path == "" {
		return normalizer.NewTaxonomyMap(nil), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if log != nil {
			log.Warn("taxonomy file not found, translation disabled", "path", path)
		}

		return normalizer.NewTaxonomyMap(nil), nil
	}

	if err != nil {
		return normalizer.TaxonomyMap{}, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	m, err := Decode(data)
	if err != nil {
		return normalizer.TaxonomyMap{}, fmt.Errorf("%s: %w", path, err)
	}

	return normalizer.NewTaxonomyMap(m), nil
}

// Decode parses a flat JSON object of strings.
func Decode(data []byte) (map[string]string, error) {
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	if doc.Kind() != document.KindObject {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrInvalidFile, doc.Kind())
	}

	m := make(map[string]string, doc.Len())

	doc.EachField(func(key string, v document.Value) bool {
		s, ok := v.Str()
		if !ok {
			err = fmt.Errorf("%w: value for %q is a %s", ErrInvalidFile, key, v.Kind())

			return false
		}

		m[key] = s

		return true
	})

	if err != nil {
		return nil, err
	}

	return m, nil
}

// SaveFile writes m as indented JSON with sorted keys.
func SaveFile(path string, m normalizer.TaxonomyMap) error {
	data, err := json.MarshalIndent(m.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal taxonomy: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write taxonomy file: %w", err)
	}

	return nil
}

// Asset is the part of a Messari asset listing the builder needs.
type Asset struct {
	Slug   string
	Symbol string
}

// Result is a rebuilt taxonomy with diagnostics.
type Result struct {
	// Overlaps lists override keys whose target was already mapped.
	Overlaps []string
	// Untranslated lists DeFi Llama slugs no entry maps to.
	Untranslated []string
	Map          normalizer.TaxonomyMap
}

// Build maps the lower-cased slug and symbol of every asset whose slug
// DeFi Llama also lists onto that slug, then applies overrides.
func Build(dlSlugs []string, assets []Asset, overrides map[string]string) Result {
	listed := make(map[string]bool, len(dlSlugs))
	for _, s := range dlSlugs {
		listed[s] = true
	}

	m := make(map[string]string)
	targets := make(map[string]bool)

	for _, a := range assets {
		if !listed[a.Slug] {
			continue
		}

		m[strings.ToLower(a.Slug)] = a.Slug
		targets[a.Slug] = true

		if a.Symbol != "" {
			m[strings.ToLower(a.Symbol)] = a.Slug
		}
	}

	var res Result

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		v := overrides[k]
		if targets[v] {
			res.Overlaps = append(res.Overlaps, k)
		}

		m[k] = v
		targets[v] = true
	}

	for _, s := range dlSlugs {
		if !targets[s] {
			res.Untranslated = append(res.Untranslated, s)
		}
	}

	sort.Strings(res.Untranslated)

	res.Map = normalizer.NewTaxonomyMap(m)

	return res
}

// PageFunc returns one page of assets. A page shorter than limit is the last.
type PageFunc func(ctx context.Context, page, limit int) ([]Asset, error)

// CollectAssets pages through fn until a short page.
func CollectAssets(ctx context.Context, fn PageFunc, limit int) ([]Asset, error) {
	var all []Asset

	for page := 1; ; page++ {
		assets, err := fn(ctx, page, limit)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		all = append(all, assets...)

		if len(assets) < limit {
			return all, nil
		}
	}
}
