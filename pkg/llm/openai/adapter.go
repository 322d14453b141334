package openai

import (
	"context"
	"fmt"

	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/llm/prompts"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/types"
)

// Adapter is an llm.Adapter for one OpenAI-compatible provider.
type Adapter struct {
	provider types.ProviderID
	model    string
	prompts  prompts.Set
	client   CompletionClient
	logger   *logging.Logger
}

// NewAdapter returns an adapter that sends requests for provider through
// client using model and the provider's prompt templates.
func NewAdapter(provider types.ProviderID, model string, client CompletionClient, logger *logging.Logger) (*Adapter, error) {
	set, err := prompts.For(provider)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{
		provider: provider,
		model:    model,
		prompts:  set,
		client:   client,
		logger:   logger,
	}, nil
}

// Provider returns the provider this adapter serves.
func (a *Adapter) Provider() types.ProviderID {
	return a.provider
}

// Model returns the model name sent with each request.
func (a *Adapter) Model() string {
	return a.model
}

// Send builds the message list, issues one completion call and maps the
// first choice to an assistant message.
func (a *Adapter) Send(ctx context.Context, content string, history []types.Message, chatCtx llm.ChatContext, opts llm.Options) (*llm.Response, error) {
	temperature, maxTokens := opts.Resolve()
	req := CompletionRequest{
		Model:       a.model,
		Messages:    llm.BuildMessages(a.prompts, content, history, chatCtx),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	a.logger.Debugf("%s completion: model=%s messages=%d", a.provider, a.model, len(req.Messages))

	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", a.provider.Label(), err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &llm.EmptyResponseError{Provider: a.provider}
	}

	return &llm.Response{Message: types.NewAssistantMessage(resp.Choices[0].Message.Content)}, nil
}
