// Package provider holds what every upstream API wrapper shares: request
// building, authentication, taxonomy translation and response access.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cryptodata/internal/config"
	"cryptodata/internal/document"
	"cryptodata/internal/fetch"
	"cryptodata/internal/logger"
	"cryptodata/internal/normalizer"
	"cryptodata/pkg/utils"
)

// Provider errors.
var (
	ErrNoInput      = errors.New("at least one identifier is required")
	ErrEmptyID      = errors.New("identifier must not be empty")
	ErrMissingField = errors.New("response is missing field")
	ErrUnexpected   = errors.New("unexpected response shape")
)

// Options configures a Base.
type Options struct {
	Headers  map[string]string
	Params   url.Values
	Logger   *logger.Logger
	Taxonomy normalizer.TaxonomyMap
	BaseURL  string
	APIKey   string
}

// OptionsFromConfig builds options from a provider config section.
func OptionsFromConfig(cfg config.ProviderConfig, tax normalizer.TaxonomyMap, log *logger.Logger) Options {
	return Options{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Taxonomy: tax,
		Logger:   log,
	}
}

// Base is embedded by composition in every provider client.
type Base struct {
	client   *fetch.Client
	headers  map[string]string
	params   url.Values
	log      *logger.Logger
	taxonomy normalizer.TaxonomyMap
	name     string
	baseURL  string
}

// NewBase creates a Base for the named provider. defaultURL is used when
// opts carries no base URL.
func NewBase(name, defaultURL string, client *fetch.Client, opts Options) *Base {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	if client == nil {
		client = fetch.NewClient(log)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	params := url.Values{}
	for k, v := range opts.Params {
		params[k] = append([]string(nil), v...)
	}

	return &Base{
		client:   client,
		headers:  headers,
		params:   params,
		log:      log.With("provider", name),
		taxonomy: opts.Taxonomy,
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (b *Base) Name() string {
	return b.name
}

// Logger returns the provider's logger.
func (b *Base) Logger() *logger.Logger {
	return b.log
}

// Taxonomy returns the provider's translation table.
func (b *Base) Taxonomy() normalizer.TaxonomyMap {
	return b.taxonomy
}

// URL joins escaped path segments onto the base URL.
func (b *Base) URL(path ...string) string {
	return utils.JoinURL(b.baseURL, path...)
}

// Get requests base URL + path with the provider's auth and params.
func (b *Base) Get(ctx context.Context, params url.Values, path ...string) (document.Value, error) {
	q := url.Values{}
	for k, v := range b.params {
		q[k] = v
	}

	for k, v := range params {
		q[k] = v
	}

	doc, err := b.client.GetJSON(ctx, fetch.Request{
		URL:     b.URL(path...),
		Params:  q,
		Headers: b.headers,
	})
	if err != nil {
		return document.Value{}, fmt.Errorf("%s: %w", b.name, err)
	}

	return doc, nil
}

// Translate validates ids and maps them through the taxonomy.
func (b *Base) Translate(ids []string) ([]string, error) {
	ids, err := ValidateInput(ids)
	if err != nil {
		return nil, err
	}

	return b.taxonomy.Translate(ids), nil
}

// ValidateInput trims ids and rejects an empty list or an empty id.
func ValidateInput(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrNoInput
	}

	out := make([]string, len(ids))

	for i, id := range ids {
		out[i] = strings.TrimSpace(id)
		if out[i] == "" {
			return nil, fmt.Errorf("%w: position %d", ErrEmptyID, i)
		}
	}

	return out, nil
}

// Field returns the value at path in doc or ErrMissingField.
func Field(doc document.Value, path ...string) (document.Value, error) {
	v, ok := doc.Path(path...)
	if !ok {
		return document.Value{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path, "."))
	}

	return v, nil
}

// Items returns the elements of an array field, or ErrUnexpected.
func Items(doc document.Value, path ...string) ([]document.Value, error) {
	v := doc
	if len(path) > 0 {
		var err error
		if v, err = Field(doc, path...); err != nil {
			return nil, err
		}
	}

	if v.Kind() != document.KindArray {
		return nil, fmt.Errorf("%w: %s is a %s, expected array", ErrUnexpected, fieldName(path), v.Kind())
	}

	return v.Items(), nil
}

// Records returns a frame with one row per object in the array at path.
func Records(doc document.Value, path ...string) (*normalizer.Frame, error) {
	items, err := Items(doc, path...)
	if err != nil {
		return nil, err
	}

	return normalizer.FrameFromRecords(items)
}

func fieldName(path []string) string {
	if len(path) == 0 {
		return "response"
	}

	return strings.Join(path, ".")
}
