// Package settings persists the user's API credentials and the currently
// selected one.
//
// The repository owns three keys in the storage namespace:
//
//	api_settings      JSON array of APISetting, in display order
//	selected_setting  JSON {name, provider} reference to one entry
//	api_key           legacy single Deepseek key, consumed by migration
package settings

import (
	"strings"

	"github.com/entrhq/pagechat/pkg/types"
)

// APISetting is a named credential and configuration bundle for one provider.
type APISetting struct {
	Name         string           `json:"name"`
	Provider     types.ProviderID `json:"provider"`
	APIKey       string           `json:"apiKey"`
	Model        string           `json:"model,omitempty"`
	Organization string           `json:"organization,omitempty"`
	Project      string           `json:"project,omitempty"`
}

// Validate checks the fields the settings dialog requires before saving.
func (s APISetting) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		missing = append(missing, "apiKey")
	}
	if len(missing) > 0 {
		return &ValidationError{Setting: s.Name, Fields: missing}
	}
	return nil
}

// Ref returns the weak reference stored as the selected setting.
func (s APISetting) Ref() Ref {
	return Ref{Name: s.Name, Provider: s.Provider}
}

// Ref identifies a setting by name and provider without copying its secret.
type Ref struct {
	Name     string           `json:"name"`
	Provider types.ProviderID `json:"provider"`
}

// Collection is an ordered list of settings. Order is display order.
type Collection []APISetting

// IndexOf returns the position of the setting named name, or -1.
func (c Collection) IndexOf(name string) int {
	for i, s := range c {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Find returns the setting named name.
func (c Collection) Find(name string) (APISetting, bool) {
	if i := c.IndexOf(name); i >= 0 {
		return c[i], true
	}
	return APISetting{}, false
}

// FindProvider returns the first setting for provider.
func (c Collection) FindProvider(provider types.ProviderID) (APISetting, bool) {
	for _, s := range c {
		if s.Provider == provider {
			return s, true
		}
	}
	return APISetting{}, false
}

// Resolve looks ref up by name and provider. A dangling or empty ref
// resolves to the first entry; an empty collection resolves to nothing.
func (c Collection) Resolve(ref *Ref) (APISetting, bool) {
	if len(c) == 0 {
		return APISetting{}, false
	}
	if ref != nil {
		for _, s := range c {
			if s.Name == ref.Name && s.Provider == ref.Provider {
				return s, true
			}
		}
	}
	return c[0], true
}

// Names returns the setting names in display order.
func (c Collection) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// checkUnique returns a DuplicateNameError for the first trimmed name that
// appears twice.
func (c Collection) checkUnique() error {
	seen := make(map[string]struct{}, len(c))
	for _, s := range c {
		name := strings.TrimSpace(s.Name)
		if _, dup := seen[name]; dup {
			return &DuplicateNameError{Name: name}
		}
		seen[name] = struct{}{}
	}
	return nil
}
