package openai

import (
	"errors"
	"net/http"

	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/types"
)

const (
	// DeepseekBaseURL is the Deepseek API endpoint.
	DeepseekBaseURL = "https://api.deepseek.com/v1"
	// DeepseekModel is the default Deepseek model.
	DeepseekModel = "deepseek-coder"

	// OpenAIBaseURL is the OpenAI API endpoint.
	OpenAIBaseURL = "https://api.openai.com/v1"
	// OpenAIModel is the default OpenAI model.
	OpenAIModel = "gpt-3.5-turbo"

	defaultMaxRetries = 2
)

// ErrMissingAPIKey is returned when an adapter is requested without a key.
var ErrMissingAPIKey = errors.New("API key is required")

// Endpoint is the base URL and model used for a provider unless the
// llm.Config overrides them.
type Endpoint struct {
	BaseURL string
	Model   string
}

// DefaultEndpoint returns the built-in endpoint for provider.
func DefaultEndpoint(provider types.ProviderID) (Endpoint, bool) {
	switch provider {
	case types.ProviderDeepseek:
		return Endpoint{BaseURL: DeepseekBaseURL, Model: DeepseekModel}, true
	case types.ProviderOpenAI:
		return Endpoint{BaseURL: OpenAIBaseURL, Model: OpenAIModel}, true
	case types.ProviderAnthropic:
		return Endpoint{}, false
	default:
		return Endpoint{}, false
	}
}

type factoryConfig struct {
	httpClient *http.Client
	newClient  ClientConstructor
	logger     *logging.Logger
	endpoints  map[types.ProviderID]Endpoint
	maxRetries int
}

// FactoryOption configures NewFactory.
type FactoryOption func(*factoryConfig)

// WithHTTPClient sets the HTTP client used by SDK-backed clients.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(c *factoryConfig) {
		c.httpClient = client
	}
}

// WithClientConstructor replaces the SDK-backed client, typically in tests.
func WithClientConstructor(fn ClientConstructor) FactoryOption {
	return func(c *factoryConfig) {
		c.newClient = fn
	}
}

// WithLogger sets the logger handed to every adapter.
func WithLogger(logger *logging.Logger) FactoryOption {
	return func(c *factoryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEndpoint overrides the default base URL or model for provider.
// Empty fields keep the built-in value.
func WithEndpoint(provider types.ProviderID, ep Endpoint) FactoryOption {
	return func(c *factoryConfig) {
		c.endpoints[provider] = ep
	}
}

// WithMaxRetries sets the SDK retry count for failed requests.
func WithMaxRetries(n int) FactoryOption {
	return func(c *factoryConfig) {
		c.maxRetries = n
	}
}

// NewFactory returns the llm.Factory for OpenAI-compatible providers.
func NewFactory(opts ...FactoryOption) llm.Factory {
	cfg := &factoryConfig{
		newClient:  NewCompletionClient,
		logger:     logging.Discard(),
		endpoints:  make(map[types.ProviderID]Endpoint),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(provider types.ProviderID, c llm.Config) (llm.Adapter, error) {
		ep, ok := DefaultEndpoint(provider)
		if !ok {
			return nil, &llm.UnsupportedProviderError{Provider: provider}
		}
		if c.APIKey == "" {
			return nil, ErrMissingAPIKey
		}

		ep = cfg.resolve(provider, ep, c)
		client := cfg.newClient(ClientConfig{
			APIKey:       c.APIKey,
			BaseURL:      ep.BaseURL,
			Organization: c.Organization,
			Project:      c.Project,
			HTTPClient:   cfg.httpClient,
			MaxRetries:   cfg.maxRetries,
		})

		return NewAdapter(provider, ep.Model, client, cfg.logger.With(string(provider)))
	}
}

// resolve applies factory overrides and then per-setting overrides.
func (f *factoryConfig) resolve(provider types.ProviderID, ep Endpoint, c llm.Config) Endpoint {
	if override, ok := f.endpoints[provider]; ok {
		if override.BaseURL != "" {
			ep.BaseURL = override.BaseURL
		}
		if override.Model != "" {
			ep.Model = override.Model
		}
	}
	if c.BaseURL != "" {
		ep.BaseURL = c.BaseURL
	}
	if c.Model != "" {
		ep.Model = c.Model
	}
	return ep
}
