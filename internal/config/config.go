// Package config provides configuration management for the cryptodata tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// CRYPTODATA_PROVIDERS_MESSARI_API_KEY.
const EnvPrefix = "CRYPTODATA"

// Provider names as used in config files and on the command line.
const (
	DefiLlama     = "defillama"
	Messari       = "messari"
	DeepDAO       = "deepdao"
	Solscan       = "solscan"
	TokenTerminal = "tokenterminal"
)

// Configuration validation errors.
var (
	ErrInvalidField           = errors.New("invalid configuration field")
	ErrInvalidTimeout         = errors.New("http.timeout_sec must be at least 1")
	ErrInvalidBurst           = errors.New("http.rate_limit.burst must be at least 1 when requests_per_second is set")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidOutputFormat    = errors.New("output.format must be one of: table, json, csv, xlsx")
	ErrMissingOutputPath      = errors.New("output.path is required for xlsx output")
	ErrProviderMissingBaseURL = errors.New("enabled provider requires base_url")
	ErrNoEnabledProviders     = errors.New("at least one provider must be enabled")
	ErrUnknownProvider        = errors.New("unknown provider")
)

// Config represents the complete configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envconfig:"HTTP"`
	Providers ProvidersConfig `yaml:"providers" envconfig:"PROVIDERS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
}

// HTTPConfig controls the shared HTTP client.
type HTTPConfig struct {
	UserAgent    string          `yaml:"user_agent" split_words:"true"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	TimeoutSec   int             `yaml:"timeout_sec" split_words:"true" validate:"min=1"`
	BufferSizeKb int             `yaml:"buffer_size_kb" split_words:"true" validate:"gte=0"`
}

// RateLimitConfig paces outgoing requests. Zero requests_per_second disables pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" split_words:"true" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// ProvidersConfig holds one section per upstream API.
type ProvidersConfig struct {
	DefiLlama     ProviderConfig `yaml:"defillama" envconfig:"DEFILLAMA"`
	Messari       ProviderConfig `yaml:"messari" envconfig:"MESSARI"`
	DeepDAO       ProviderConfig `yaml:"deepdao" envconfig:"DEEPDAO"`
	Solscan       ProviderConfig `yaml:"solscan" envconfig:"SOLSCAN"`
	TokenTerminal ProviderConfig `yaml:"tokenterminal" envconfig:"TOKENTERMINAL"`
}

// ProviderConfig configures one upstream API.
type ProviderConfig struct {
	BaseURL  string `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	APIKey   string `yaml:"api_key,omitempty" split_words:"true"`
	Taxonomy string `yaml:"taxonomy,omitempty"`
	Enabled  bool   `yaml:"enabled"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// OutputConfig defines how results are written.
type OutputConfig struct {
	Format       string `yaml:"format" validate:"oneof=table json csv xlsx"`
	Path         string `yaml:"path"`
	MaxCellWidth int    `yaml:"max_cell_width" split_words:"true" validate:"gte=0"`
}

// fieldErrors maps struct fields to the sentinel reported when their tag fails.
var fieldErrors = map[string]error{
	"Config.HTTP.TimeoutSec": ErrInvalidTimeout,
	"Config.Logging.Level":   ErrInvalidLogLevel,
	"Config.Logging.Format":  ErrInvalidLogFormat,
	"Config.Output.Format":   ErrInvalidOutputFormat,
}

var validate = validator.New()

// DefaultConfig returns a configuration pointing at the public endpoints.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:    "cryptodata/1.0",
			TimeoutSec:   30,
			BufferSizeKb: 8192,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 2,
				Burst:             1,
			},
		},
		Providers: ProvidersConfig{
			DefiLlama:     ProviderConfig{BaseURL: "https://api.llama.fi", Enabled: true},
			Messari:       ProviderConfig{BaseURL: "https://data.messari.io/api", Enabled: true},
			DeepDAO:       ProviderConfig{BaseURL: "https://backend.deepdao.io", Enabled: true},
			Solscan:       ProviderConfig{BaseURL: "https://public-api.solscan.io", Enabled: true},
			TokenTerminal: ProviderConfig{BaseURL: "https://api.tokenterminal.com/v1", Enabled: true},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Format:       "table",
			MaxCellWidth: 40,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults,
// then applies environment overrides and validates the result.
func LoadConfig(filepath string) (*Config, error) {
	cfg := DefaultConfig()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from CRYPTODATA_* environment variables, named
// by section and field, e.g. CRYPTODATA_OUTPUT_MAX_CELL_WIDTH. Leaf fields
// carry no envconfig tag so unprefixed names such as PATH are never read.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	return nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return fmt.Errorf("%w: %w", ErrInvalidField, err)
		}

		fe := fieldErrs[0]
		if sentinel, ok := fieldErrors[fe.Namespace()]; ok {
			return fmt.Errorf("%w: got %q", sentinel, fmt.Sprint(fe.Value()))
		}

		return fmt.Errorf("%w: %s failed %q", ErrInvalidField, fe.Namespace(), fe.Tag())
	}

	if c.HTTP.RateLimit.RequestsPerSecond > 0 && c.HTTP.RateLimit.Burst < 1 {
		return ErrInvalidBurst
	}

	if c.Output.Format == "xlsx" && c.Output.Path == "" {
		return ErrMissingOutputPath
	}

	enabledCount := 0

	for _, name := range ProviderNames() {
		p, _ := c.Provider(name)
		if !p.Enabled {
			continue
		}

		if p.BaseURL == "" {
			return fmt.Errorf("%w: providers.%s", ErrProviderMissingBaseURL, name)
		}

		enabledCount++
	}

	if enabledCount == 0 {
		return ErrNoEnabledProviders
	}

	return nil
}

// ProviderNames lists the supported providers in display order.
func ProviderNames() []string {
	return []string{DefiLlama, Messari, DeepDAO, Solscan, TokenTerminal}
}

// Provider returns the section for a provider name.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	switch strings.ToLower(name) {
	case DefiLlama:
		return c.Providers.DefiLlama, nil
	case Messari:
		return c.Providers.Messari, nil
	case DeepDAO:
		return c.Providers.DeepDAO, nil
	case Solscan:
		return c.Providers.Solscan, nil
	case TokenTerminal:
		return c.Providers.TokenTerminal, nil
	}

	return ProviderConfig{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// GetTimeout returns the HTTP timeout duration.
func (h *HTTPConfig) GetTimeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	enabled := make([]string, 0, 5)

	for _, name := range ProviderNames() {
		if p, _ := c.Provider(name); p.Enabled {
			enabled = append(enabled, name)
		}
	}

	return fmt.Sprintf(
		"Config{Providers: [%s], Timeout: %ds, Output: %s}",
		strings.Join(enabled, " "),
		c.HTTP.TimeoutSec,
		c.Output.Format,
	)
}
