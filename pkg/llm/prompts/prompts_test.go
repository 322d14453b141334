package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagechat/pkg/types"
)

func TestFor_ImplementedProviders(t *testing.T) {
	for _, provider := range []types.ProviderID{types.ProviderDeepseek, types.ProviderOpenAI} {
		t.Run(string(provider), func(t *testing.T) {
			set, err := For(provider)
			require.NoError(t, err)
			assert.NotEmpty(t, set.Default)
			assert.Contains(t, set.ContextAware, PlaceholderTitle)
			assert.Contains(t, set.ContextAware, PlaceholderContent)
		})
	}
}

func TestFor_MissingTemplate(t *testing.T) {
	_, err := For(types.ProviderAnthropic)
	assert.Error(t, err)
	assert.Panics(t, func() { MustFor("nope") })
}

func TestSet_Context(t *testing.T) {
	set := MustFor(types.ProviderOpenAI)

	assert.Equal(t,
		"Current page title: Go Docs\nPage content: Packages and modules",
		set.Context("Go Docs", "Packages and modules"))

	assert.Equal(t,
		"Current page title: N/A\nPage content: body text",
		set.Context("", "body text"))

	// Content that itself contains a placeholder is not expanded twice.
	assert.Equal(t,
		"Current page title: {{pageContent}}\nPage content: N/A",
		set.Context("{{pageContent}}", ""))
}
