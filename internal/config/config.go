package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/panel/internal/filter"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/paging"
)

// Config is the persistent application configuration
type Config struct {
	API    APIConfig    `yaml:"api"`
	View   ViewConfig   `yaml:"view"`
	Search SearchConfig `yaml:"search"`
	Log    LogConfig    `yaml:"log"`
	Mock   MockConfig   `yaml:"mock"`
}

// APIConfig points the dashboard at a resource API
type APIConfig struct {
	URL     string        `yaml:"url" env:"PANEL_API_URL"` // empty runs the embedded mock API
	Timeout time.Duration `yaml:"timeout" env:"PANEL_FETCH_TIMEOUT"`
}

// ViewConfig holds list view preferences
type ViewConfig struct {
	PageSize      int    `yaml:"page_size" env:"PANEL_PAGE_SIZE"`
	CustomersSort string `yaml:"customers_sort"` // order expression, e.g. "name desc"
}

// SearchConfig selects how the search box matches
type SearchConfig struct {
	Mode        string `yaml:"mode" env:"PANEL_SEARCH_MODE"`          // "substring" or "fuzzy"
	FieldPolicy string `yaml:"field_policy" env:"PANEL_FIELD_POLICY"` // "any" or "all"
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"PANEL_LOG_LEVEL"`
	Events bool   `yaml:"events" env:"PANEL_EVENTS"` // write the JSONL event log
}

// MockConfig tunes the embedded mock API
type MockConfig struct {
	Addr    string        `yaml:"addr" env:"PANEL_SERVE_ADDR"`
	Records int           `yaml:"records"`
	Seed    int64         `yaml:"seed"`
	Latency time.Duration `yaml:"latency" env:"PANEL_MOCK_LATENCY"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		View: ViewConfig{
			PageSize: paging.DefaultPageSize,
		},
		Search: SearchConfig{
			Mode:        string(filter.MatchSubstring),
			FieldPolicy: string(filter.AnyField),
		},
		Log: LogConfig{
			Level:  "info",
			Events: true,
		},
		Mock: MockConfig{
			Addr:    "127.0.0.1:8787",
			Records: 48,
			Seed:    1,
			Latency: 300 * time.Millisecond,
		},
	}
}

// Dir returns the data directory, ~/.panel
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".panel")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config from path, or returns defaults when it doesn't exist.
// Keys missing from the file keep their defaults. Environment variables
// override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Save writes config to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate resets invalid values to their defaults and returns a note for
// each one it fixed.
func (c *Config) Validate() []string {
	def := DefaultConfig()
	var fixed []string

	if c.View.PageSize <= 0 {
		fixed = append(fixed, fmt.Sprintf("view.page_size %d is not positive, using %d", c.View.PageSize, def.View.PageSize))
		c.View.PageSize = def.View.PageSize
	}
	if c.API.Timeout <= 0 {
		fixed = append(fixed, fmt.Sprintf("api.timeout %s is not positive, using %s", c.API.Timeout, def.API.Timeout))
		c.API.Timeout = def.API.Timeout
	}
	switch filter.MatchMode(c.Search.Mode) {
	case filter.MatchSubstring, filter.MatchFuzzy:
	default:
		fixed = append(fixed, fmt.Sprintf("search.mode %q is unknown, using %q", c.Search.Mode, def.Search.Mode))
		c.Search.Mode = def.Search.Mode
	}
	switch filter.FieldPolicy(c.Search.FieldPolicy) {
	case filter.AnyField, filter.AllFields:
	default:
		fixed = append(fixed, fmt.Sprintf("search.field_policy %q is unknown, using %q", c.Search.FieldPolicy, def.Search.FieldPolicy))
		c.Search.FieldPolicy = def.Search.FieldPolicy
	}
	if c.View.CustomersSort != "" {
		if _, err := order.Parse(c.View.CustomersSort); err != nil {
			fixed = append(fixed, fmt.Sprintf("view.customers_sort %q: %v, ignoring", c.View.CustomersSort, err))
			c.View.CustomersSort = ""
		}
	}
	if c.Mock.Records <= 0 {
		fixed = append(fixed, fmt.Sprintf("mock.records %d is not positive, using %d", c.Mock.Records, def.Mock.Records))
		c.Mock.Records = def.Mock.Records
	}
	if c.Mock.Latency < 0 {
		c.Mock.Latency = 0
	}
	return fixed
}

// MatchMode returns the configured search mode.
func (c *Config) MatchMode() filter.MatchMode {
	return filter.MatchMode(c.Search.Mode)
}

// FieldPolicy returns the configured multi-field policy.
func (c *Config) FieldPolicy() filter.FieldPolicy {
	return filter.FieldPolicy(c.Search.FieldPolicy)
}
