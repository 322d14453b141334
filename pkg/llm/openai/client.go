// Package openai implements llm adapters for OpenAI-compatible chat
// completion APIs. Deepseek and OpenAI share the wire protocol and differ
// only in endpoint, default model and prompt templates.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/entrhq/pagechat/pkg/types"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// CompletionRequest is one non-streaming chat completion call.
type CompletionRequest struct {
	Model       string
	Messages    []types.Message
	Temperature float64
	MaxTokens   int
}

// CompletionClient sends chat completion requests.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*openai.ChatCompletion, error)
}

// ClientConfig configures the SDK-backed CompletionClient.
type ClientConfig struct {
	APIKey       string
	BaseURL      string
	Organization string
	Project      string
	HTTPClient   *http.Client
	MaxRetries   int
}

// ClientConstructor builds a CompletionClient. NewFactory uses
// NewCompletionClient unless WithClientConstructor replaces it.
type ClientConstructor func(cfg ClientConfig) CompletionClient

type sdkClient struct {
	client openai.Client
}

// NewCompletionClient returns a CompletionClient backed by openai-go.
func NewCompletionClient(cfg ClientConfig) CompletionClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(withTrailingSlash(cfg.BaseURL)))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	if cfg.Project != "" {
		opts = append(opts, option.WithProject(cfg.Project))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &sdkClient{client: openai.NewClient(opts...)}
}

func (c *sdkClient) Complete(ctx context.Context, req CompletionRequest) (*openai.ChatCompletion, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    convertToOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
	return c.client.Chat.Completions.New(ctx, params)
}

// convertToOpenAIMessages converts messages to the SDK's union params.
// Unknown roles are sent as user messages.
func convertToOpenAIMessages(messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
