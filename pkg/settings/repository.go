package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/storage"
	"github.com/entrhq/pagechat/pkg/types"
)

// Storage keys owned by the repository.
const (
	KeyAPISettings     = "api_settings"
	KeySelectedSetting = "selected_setting"
	KeyLegacyAPIKey    = "api_key"
)

// Repository reads and writes API settings on top of a storage.Store.
//
// Writes are last-write-wins: two processes editing the same namespace can
// overwrite each other. Within one process, mu serializes the
// read-modify-write paths so migration never inserts twice.
type Repository struct {
	store  storage.Store
	logger *logging.Logger
	mu     sync.Mutex
}

// NewRepository creates a repository over store.
func NewRepository(store storage.Store, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Repository{
		store:  store,
		logger: logger,
	}
}

// APISettings returns the stored collection after running the legacy
// migration. A missing or undecodable blob yields an empty collection.
func (r *Repository) APISettings(ctx context.Context) (Collection, error) {
	if err := r.MigrateLegacyAPIKey(ctx); err != nil {
		r.logger.Warnf("%v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// SetAPISettings replaces the stored collection with one write. It does no
// validation; see Save for the validating path.
func (r *Repository) SetAPISettings(ctx context.Context, c Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, c)
}

// Save validates c the way the settings dialog does and stores it. Every
// entry needs a name and a key, and names must be unique after trimming.
// On error nothing is written.
func (r *Repository) Save(ctx context.Context, c Collection) error {
	for _, s := range c {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if err := c.checkUnique(); err != nil {
		return err
	}
	return r.SetAPISettings(ctx, c)
}

// Add validates s and appends it. A name already in use is rejected with
// a DuplicateNameError.
func (r *Repository) Add(ctx context.Context, s APISetting) error {
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return err
	}
	updated := append(current.Clone(), s)
	if err := updated.checkUnique(); err != nil {
		return err
	}
	return r.write(ctx, updated)
}

// Upsert replaces the entry named s.Name or appends s. An appended name
// that collides with another after trimming is rejected with a
// DuplicateNameError.
func (r *Repository) Upsert(ctx context.Context, s APISetting) error {
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return err
	}
	updated := current.Clone()
	if i := updated.IndexOf(s.Name); i >= 0 {
		updated[i] = s
	} else {
		updated = append(updated, s)
	}
	if err := updated.checkUnique(); err != nil {
		return err
	}
	return r.write(ctx, updated)
}

// Remove deletes the entry named name.
func (r *Repository) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := current.IndexOf(name)
	if i < 0 {
		return &NotFoundError{Name: name}
	}
	updated := append(current[:i:i], current[i+1:]...)
	return r.write(ctx, updated)
}

// StoredAPIKey returns the key of the first setting for provider, or ""
// when none exists.
func (r *Repository) StoredAPIKey(ctx context.Context, provider types.ProviderID) (string, error) {
	c, err := r.APISettings(ctx)
	if err != nil {
		return "", err
	}
	s, _ := c.FindProvider(provider)
	return s.APIKey, nil
}

// SetStoredAPIKey replaces the first setting for provider, or appends a
// new one. name defaults to the provider identifier.
func (r *Repository) SetStoredAPIKey(ctx context.Context, provider types.ProviderID, apiKey, name, model string) error {
	if err := r.MigrateLegacyAPIKey(ctx); err != nil {
		r.logger.Warnf("%v", err)
	}
	if name == "" {
		name = string(provider)
	}
	setting := APISetting{
		Name:     name,
		Provider: provider,
		APIKey:   apiKey,
		Model:    model,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return err
	}
	updated := current.Clone()
	replaced := false
	for i, s := range updated {
		if s.Provider == provider {
			updated[i] = setting
			replaced = true
			break
		}
	}
	if !replaced {
		updated = append(updated, setting)
	}
	return r.write(ctx, updated)
}

// SelectedSetting resolves the stored selection against the current
// collection. A dangling selection falls back to the first entry; nil is
// returned only when no settings exist.
func (r *Repository) SelectedSetting(ctx context.Context) (*APISetting, error) {
	c, err := r.APISettings(ctx)
	if err != nil {
		return nil, err
	}

	ref, err := r.selectedRef(ctx)
	if err != nil {
		return nil, err
	}

	s, ok := c.Resolve(ref)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// SetSelectedSetting stores a reference to s.
func (r *Repository) SetSelectedSetting(ctx context.Context, s APISetting) error {
	data, err := json.Marshal(s.Ref())
	if err != nil {
		return fmt.Errorf("failed to encode selected setting: %w", err)
	}
	return r.store.Set(ctx, KeySelectedSetting, string(data))
}

// ClearAll wipes the whole storage namespace.
func (r *Repository) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Clear(ctx)
}

func (r *Repository) selectedRef(ctx context.Context) (*Ref, error) {
	raw, ok, err := r.store.Get(ctx, KeySelectedSetting)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var ref Ref
	if err := json.Unmarshal([]byte(raw), &ref); err != nil {
		r.logger.Warnf("ignoring undecodable %s: %v", KeySelectedSetting, err)
		return nil, nil
	}
	return &ref, nil
}

// load reads the collection. Callers must hold r.mu.
func (r *Repository) load(ctx context.Context) (Collection, error) {
	raw, ok, err := r.store.Get(ctx, KeyAPISettings)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return Collection{}, nil
	}

	var c Collection
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		r.logger.Errorf("failed to decode %s, treating as empty: %v", KeyAPISettings, err)
		return Collection{}, nil
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}

// write stores c as one blob. Callers must hold r.mu.
func (r *Repository) write(ctx context.Context, c Collection) error {
	if c == nil {
		c = Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", KeyAPISettings, err)
	}
	return r.store.Set(ctx, KeyAPISettings, string(data))
}
