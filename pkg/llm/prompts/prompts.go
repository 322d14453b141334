// Package prompts holds the system prompt templates sent ahead of every
// conversation, keyed by provider.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/pagechat/pkg/types"
)

//go:embed templates/*.json
var templateFS embed.FS

// Placeholders substituted by Set.Context.
const (
	PlaceholderTitle   = "{{pageTitle}}"
	PlaceholderContent = "{{pageContent}}"

	// Missing stands in for an absent title or content.
	Missing = "N/A"
)

// Set is the pair of system prompts used by one provider.
type Set struct {
	// Default is always sent as the first message.
	Default string

	// ContextAware embeds the page title and content when either is present.
	ContextAware string
}

type templateFile struct {
	System struct {
		Default      string `json:"default"`
		ContextAware string `json:"contextAware"`
	} `json:"system"`
}

// For loads the template set for provider.
func For(provider types.ProviderID) (Set, error) {
	raw, err := templateFS.ReadFile("templates/" + string(provider) + ".json")
	if err != nil {
		return Set{}, fmt.Errorf("no prompt template for provider %q: %w", provider, err)
	}

	var file templateFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Set{}, fmt.Errorf("invalid prompt template for provider %q: %w", provider, err)
	}
	if file.System.Default == "" || file.System.ContextAware == "" {
		return Set{}, fmt.Errorf("prompt template for provider %q is incomplete", provider)
	}

	return Set{
		Default:      file.System.Default,
		ContextAware: file.System.ContextAware,
	}, nil
}

// MustFor is like For but panics on error. Templates are embedded, so a
// failure is a build defect.
func MustFor(provider types.ProviderID) Set {
	s, err := For(provider)
	if err != nil {
		panic(err)
	}
	return s
}

// Context renders the context-aware prompt, using Missing for empty values.
func (s Set) Context(title, content string) string {
	if title == "" {
		title = Missing
	}
	if content == "" {
		content = Missing
	}
	return strings.NewReplacer(
		PlaceholderTitle, title,
		PlaceholderContent, content,
	).Replace(s.ContextAware)
}
