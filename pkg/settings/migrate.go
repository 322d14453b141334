package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/pagechat/pkg/types"
)

// legacySettingName is the name given to the setting synthesized from a
// legacy single-key record.
const legacySettingName = "Deepseek"

// MigrateLegacyAPIKey converts the pre-settings single Deepseek key into an
// APISetting. It is idempotent: the entry is only appended when no
// Deepseek setting exists yet, and the legacy key is removed afterwards.
// Concurrent calls within a process are serialized.
func (r *Repository) MigrateLegacyAPIKey(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	legacyKey, ok, err := r.store.Get(ctx, KeyLegacyAPIKey)
	if err != nil {
		return &MigrationError{Err: err}
	}
	if !ok || legacyKey == "" {
		return nil
	}

	current, err := r.load(ctx)
	if err != nil {
		return &MigrationError{Err: err}
	}

	if _, exists := current.FindProvider(types.ProviderDeepseek); !exists {
		name := freeName(current, legacySettingName)
		updated := append(current.Clone(), APISetting{
			Name:     name,
			Provider: types.ProviderDeepseek,
			APIKey:   legacyKey,
		})
		if err := updated.checkUnique(); err != nil {
			return &MigrationError{Err: err}
		}
		if err := r.write(ctx, updated); err != nil {
			return &MigrationError{Err: err}
		}
		r.logger.Infof("migrated legacy API key into setting %q", name)
	}

	if err := r.store.Remove(ctx, KeyLegacyAPIKey); err != nil {
		return &MigrationError{Err: err}
	}
	return nil
}

// freeName returns base, or "base (n)" with the smallest n >= 2 that no
// entry in c uses after trimming.
func freeName(c Collection, base string) string {
	taken := make(map[string]struct{}, len(c))
	for _, s := range c {
		taken[strings.TrimSpace(s.Name)] = struct{}{}
	}
	name := base
	for n := 2; ; n++ {
		if _, ok := taken[name]; !ok {
			return name
		}
		name = fmt.Sprintf("%s (%d)", base, n)
	}
}
