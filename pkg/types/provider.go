package types

// ProviderID selects the LLM backend and its request-shaping rules.
//
// The set of identifiers is closed. Code that dispatches on a ProviderID
// switches over every constant below.
type ProviderID string

const (
	ProviderDeepseek  ProviderID = "deepseek"
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
)

// ProviderInfo pairs a provider identifier with its display label.
type ProviderInfo struct {
	ID    ProviderID
	Label string
}

// Providers returns every known provider in display order.
func Providers() []ProviderInfo {
	return []ProviderInfo{
		{ID: ProviderDeepseek, Label: "Deepseek"},
		{ID: ProviderOpenAI, Label: "ChatGPT"},
		{ID: ProviderAnthropic, Label: "Claude"},
	}
}

// Known reports whether p is one of the enumerated identifiers.
func (p ProviderID) Known() bool {
	switch p {
	case ProviderDeepseek, ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}

// Label returns the display label for p, or the raw identifier when unknown.
func (p ProviderID) Label() string {
	for _, info := range Providers() {
		if info.ID == p {
			return info.Label
		}
	}
	return string(p)
}
