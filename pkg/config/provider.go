package config

import (
	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/llm/openai"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/storage"
	"github.com/entrhq/pagechat/pkg/types"
)

// Overrides holds values given on the command line. Empty fields leave
// the loaded configuration unchanged.
type Overrides struct {
	Home           string
	StorageBackend string
	StoragePath    string
	Browser        *bool
	Headless       *bool
}

// Apply layers o over c; flags take precedence over env and file values.
func (c *Config) Apply(o Overrides) {
	if o.Home != "" {
		c.Home = o.Home
	}
	if o.StorageBackend != "" {
		c.Storage.Backend = storage.Backend(o.StorageBackend)
	}
	if o.StoragePath != "" {
		c.Storage.Path = o.StoragePath
	}
	if o.Browser != nil {
		c.Browser.Enabled = *o.Browser
	}
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
}

// BuildFactory creates the adapter factory, applying the providers
// section as endpoint overrides.
func (c *Config) BuildFactory(logger *logging.Logger) llm.Factory {
	opts := []openai.FactoryOption{openai.WithLogger(logger)}
	for id, p := range c.Providers {
		opts = append(opts, openai.WithEndpoint(types.ProviderID(id), openai.Endpoint{
			BaseURL: p.BaseURL,
			Model:   p.Model,
		}))
	}
	return openai.NewFactory(opts...)
}

// RequestOptions returns the per-request sampling options.
func (c *Config) RequestOptions() llm.Options {
	return llm.Options{
		Temperature: llm.Float(c.Chat.Temperature),
		MaxTokens:   llm.Int(c.Chat.MaxTokens),
	}
}
