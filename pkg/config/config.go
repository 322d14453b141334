// Package config loads the pagechat application configuration from YAML,
// applying environment and command-line overrides on top of the file.
//
// Precedence, highest first: CLI flags > environment > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/entrhq/pagechat/pkg/storage"
	"github.com/entrhq/pagechat/pkg/types"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvHome           = "PAGECHAT_HOME"
	EnvStorageBackend = "PAGECHAT_STORAGE_BACKEND"
)

// Defaults.
const (
	DefaultDirName       = ".pagechat"
	DefaultFileName      = "config.yaml"
	DefaultHistoryWindow = 10
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1000
	DefaultMaxLength     = 4000
	DefaultFetchTimeout  = 20 * time.Second
	DefaultUserAgent     = "Mozilla/5.0 (compatible; pagechat/1.0)"
)

// Config is the application configuration.
type Config struct {
	// Home is the profile directory holding storage, logs and the config
	// file itself.
	Home string `yaml:"home"`

	Storage   StorageConfig             `yaml:"storage"`
	Chat      ChatConfig                `yaml:"chat"`
	Extract   ExtractConfig             `yaml:"extract"`
	Browser   BrowserConfig             `yaml:"browser"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// StorageConfig selects the key-value store backend.
type StorageConfig struct {
	Backend storage.Backend `yaml:"backend"`
	Path    string          `yaml:"path"`
}

// ChatConfig tunes requests sent for each chat turn.
type ChatConfig struct {
	HistoryWindow int     `yaml:"history_window"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
}

// ExtractConfig tunes page content extraction.
type ExtractConfig struct {
	MaxLength int           `yaml:"max_length"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Exclude   []string      `yaml:"exclude,omitempty"`
}

// BrowserConfig enables the Playwright-backed tab executor. When disabled,
// pages are fetched over HTTP and parsed locally.
type BrowserConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Headless bool          `yaml:"headless"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProviderConfig overrides the endpoint of one provider.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Home: DefaultHome(),
		Storage: StorageConfig{
			Backend: storage.BackendAuto,
		},
		Chat: ChatConfig{
			HistoryWindow: DefaultHistoryWindow,
			Temperature:   DefaultTemperature,
			MaxTokens:     DefaultMaxTokens,
		},
		Extract: ExtractConfig{
			MaxLength: DefaultMaxLength,
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultFetchTimeout,
		},
		Browser: BrowserConfig{
			Enabled:  false,
			Headless: true,
			Timeout:  30 * time.Second,
		},
		Providers: make(map[string]ProviderConfig),
	}
}

// DefaultHome returns $PAGECHAT_HOME, or ~/.pagechat.
func DefaultHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(userHome, DefaultDirName)
}

// DefaultPath returns the config file location inside DefaultHome.
func DefaultPath() string {
	return filepath.Join(DefaultHome(), DefaultFileName)
}

// Load reads the config file at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if home := os.Getenv(EnvHome); home != "" {
		c.Home = home
	}
	if backend := os.Getenv(EnvStorageBackend); backend != "" {
		c.Storage.Backend = storage.Backend(backend)
	}
}

// Validate rejects unknown backends or providers and non-positive limits.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", storage.BackendAuto, storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("invalid storage backend: %s (must be 'auto', 'file', 'sqlite' or 'memory')", c.Storage.Backend)
	}

	if c.Chat.HistoryWindow <= 0 {
		return fmt.Errorf("chat.history_window must be positive")
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be positive")
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be between 0 and 2")
	}
	if c.Extract.MaxLength <= 0 {
		return fmt.Errorf("extract.max_length must be positive")
	}
	if c.Extract.Timeout < 0 {
		return fmt.Errorf("extract.timeout cannot be negative")
	}
	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser.timeout cannot be negative")
	}

	for id := range c.Providers {
		if !types.ProviderID(id).Known() {
			return fmt.Errorf("unknown provider in providers section: %s", id)
		}
	}
	return nil
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Storage.Backend,
		Dir:     c.Home,
		Path:    c.Storage.Path,
	}
}

// Save writes c to path as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
