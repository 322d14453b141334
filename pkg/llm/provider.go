// Package llm normalizes heterogeneous chat-completion backends behind one
// contract and routes messages to the adapter for a provider.
//
// Example usage:
//
//	router := llm.NewRouter(openai.NewFactory(), logger)
//	if err := router.InitAPI(types.ProviderDeepseek, llm.Config{APIKey: key}); err != nil {
//	    return err
//	}
//	resp, err := router.SendMessage(ctx, types.ProviderDeepseek, "Summarize this page",
//	    history, llm.ChatContext{PageTitle: title, PageContent: content}, llm.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Message.Content)
package llm

import (
	"context"

	"github.com/entrhq/pagechat/pkg/types"
)

// Request defaults applied when Options leaves a field unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// Config carries the credentials and overrides used to build an adapter.
type Config struct {
	APIKey       string
	Model        string
	Organization string
	Project      string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string
}

// ChatContext is the page the conversation is about. Either field may be
// empty; when both are, no context message is sent.
type ChatContext struct {
	PageTitle   string
	PageContent string
}

// HasPage reports whether there is any page context to send.
func (c ChatContext) HasPage() bool {
	return c.PageTitle != "" || c.PageContent != ""
}

// Options overrides per-request sampling parameters.
type Options struct {
	Temperature *float64
	MaxTokens   *int
}

// Resolve returns the temperature and token limit to send, applying
// DefaultTemperature and DefaultMaxTokens for unset fields.
func (o Options) Resolve() (temperature float64, maxTokens int) {
	temperature, maxTokens = DefaultTemperature, DefaultMaxTokens
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		maxTokens = *o.MaxTokens
	}
	return temperature, maxTokens
}

// Float returns a pointer to v, for building Options.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Options.
func Int(v int) *int { return &v }

// Response is the normalized reply of a provider.
type Response struct {
	Message types.Message
}

// Adapter sends one conversation turn to a specific backend.
//
// Implementations prepend their system prompt, add a context message when
// the ChatContext has a page, append history in order and content last,
// and map the first returned choice to an assistant message.
type Adapter interface {
	Send(ctx context.Context, content string, history []types.Message, chatCtx ChatContext, opts Options) (*Response, error)

	// Provider returns the identifier this adapter serves.
	Provider() types.ProviderID
}

// Factory builds the adapter for provider. It returns an
// *UnsupportedProviderError for identifiers it cannot serve.
type Factory func(provider types.ProviderID, cfg Config) (Adapter, error)

// Implemented reports whether an adapter exists for provider.
func Implemented(provider types.ProviderID) bool {
	switch provider {
	case types.ProviderDeepseek, types.ProviderOpenAI:
		return true
	case types.ProviderAnthropic:
		return false
	default:
		return false
	}
}
