package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/file"
)

var defaultConfig = Config{
	UserID:         "default",
	Database:       "~/.config/tchat/tchat.db",
	RequestTimeout: 60,
	DefaultModel:   "gpt-4o-mini",
	HistoryWindow:  32,
	DedupWindowMS:  5000,
	Providers: []*Provider{
		{
			Name:    "openai",
			Kind:    "openai",
			APIKey:  "API_KEY",
			APIHost: "https://api.openai.com/v1",
			Models: []*Model{
				{Name: "gpt-4o", Alias: "4o"},
				{Name: "gpt-4o-mini", Alias: "mini"},
			},
		},
		{
			Name:   "anthropic",
			Kind:   "anthropic",
			APIKey: "API_KEY",
			Models: []*Model{
				{Name: "claude-sonnet-4-5", Alias: "sonnet"},
			},
		},
	},
}

// Config holds configuration for the tchat tool.
type Config struct {
	// UserID scopes the local cache and the chat store.
	UserID string `json:"user_id"`
	// Database is the path of the SQLite database.
	Database string `json:"database"`
	// RequestTimeout in seconds, applied to gateway calls.
	RequestTimeout int `json:"request_timeout"`
	// DefaultModel used when none is specified.
	DefaultModel string `json:"default_model"`
	// HistoryWindow bounds the number of messages replayed to a provider.
	HistoryWindow int `json:"history_window"`
	// DedupWindowMS is the similarity window used to collapse near-simultaneous
	// observations of the same logical message.
	DedupWindowMS int `json:"dedup_window_ms"`
	// Providers available to this client.
	Providers []*Provider `json:"providers"`
}

// Provider holds the credentials and model catalog of one AI provider.
type Provider struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	APIKey  string   `json:"api_key"`
	APIHost string   `json:"api_host,omitempty"`
	Models  []*Model `json:"models"`
}

// Model is a catalog entry.
type Model struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}

	expandedDatabasePath, err := file.ExpandPath(config.Database)
	if err != nil {
		return nil, errors.Wrap(err, "expanding database path")
	}
	config.Database = expandedDatabasePath
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = defaultConfig.HistoryWindow
	}
	if config.DedupWindowMS <= 0 {
		config.DedupWindowMS = defaultConfig.DedupWindowMS
	}
	return config, nil
}

// ResolveModelAlias resolves a model name or alias against the provider catalog.
func (c *Config) ResolveModelAlias(name string) (string, error) {
	for _, provider := range c.Providers {
		for _, model := range provider.Models {
			if model.Name == name || model.Alias == name {
				return model.Name, nil
			}
		}
	}
	return "", errors.Errorf("unknown model (%s)", name)
}

// ProviderForModel returns the provider serving the given model name.
func (c *Config) ProviderForModel(name string) (*Provider, error) {
	for _, provider := range c.Providers {
		for _, model := range provider.Models {
			if model.Name == name {
				return provider, nil
			}
		}
	}
	return nil, errors.Errorf("no provider for model (%s)", name)
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	// Create the directories.
	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := defaultConfig.save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
