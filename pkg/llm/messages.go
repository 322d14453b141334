package llm

import (
	"github.com/entrhq/pagechat/pkg/llm/prompts"
	"github.com/entrhq/pagechat/pkg/types"
)

// BuildMessages assembles the ordered message list for one request:
// the default system prompt, a context message when chatCtx has a page,
// the history as given, and content as the final user message.
//
// history must already be windowed by the caller.
func BuildMessages(set prompts.Set, content string, history []types.Message, chatCtx ChatContext) []types.Message {
	messages := make([]types.Message, 0, len(history)+3)
	messages = append(messages, types.NewSystemMessage(set.Default))

	if chatCtx.HasPage() {
		messages = append(messages, types.NewSystemMessage(set.Context(chatCtx.PageTitle, chatCtx.PageContent)))
	}

	messages = append(messages, history...)
	messages = append(messages, types.NewUserMessage(content))
	return messages
}
