package llm

import (
	"fmt"

	"github.com/entrhq/pagechat/pkg/types"
)

// NotInitializedError is returned when a message is routed to a provider
// whose adapter was never built with InitAPI.
type NotInitializedError struct {
	Provider types.ProviderID
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("API for provider %q is not initialized; configure an API key first", e.Provider)
}

// UnsupportedProviderError is returned for unknown identifiers and for
// known providers without an adapter.
type UnsupportedProviderError struct {
	Provider types.ProviderID
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("Unsupported API provider: %s", e.Provider)
}

// EmptyResponseError is returned when a provider answers without content.
type EmptyResponseError struct {
	Provider types.ProviderID
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("No response from %s", e.Provider.Label())
}
