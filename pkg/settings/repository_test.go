package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/storage"
	"github.com/entrhq/pagechat/pkg/types"
)

// failingStore wraps a MemoryStore and fails the configured operations.
type failingStore struct {
	*storage.MemoryStore
	failGet bool
	failSet bool
}

func (s *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, &storage.Error{Op: "get", Key: key, Err: errors.New("disk gone")}
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return &storage.Error{Op: "set", Key: key, Err: errors.New("disk full")}
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func newTestRepository(t *testing.T) (*Repository, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewRepository(store, logging.Discard()), store
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	collections := []Collection{
		{},
		{{Name: "Deepseek", Provider: types.ProviderDeepseek, APIKey: "k1"}},
		{
			{Name: "Work", Provider: types.ProviderOpenAI, APIKey: "k2", Model: "gpt-4o", Organization: "org-1", Project: "proj-1"},
			{Name: "Home", Provider: types.ProviderDeepseek, APIKey: "k3"},
			{Name: "Claude", Provider: types.ProviderAnthropic, APIKey: "k4"},
		},
	}

	for _, c := range collections {
		require.NoError(t, repo.SetAPISettings(ctx, c))
		got, err := repo.APISettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestRepository_APISettings_Absent(t *testing.T) {
	repo, _ := newTestRepository(t)
	got, err := repo.APISettings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepository_APISettings_CorruptBlob(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)
	require.NoError(t, store.Set(ctx, KeyAPISettings, "{definitely not an array"))

	got, err := repo.APISettings(ctx)
	require.NoError(t, err, "decode failures must not reach the caller")
	assert.Empty(t, got)
}

func TestRepository_APISettings_StoreFailure(t *testing.T) {
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), failGet: true}
	repo := NewRepository(store, logging.Discard())

	_, err := repo.APISettings(context.Background())
	require.Error(t, err)

	var storeErr *storage.Error
	assert.True(t, errors.As(err, &storeErr))
}

func TestRepository_Save(t *testing.T) {
	ctx := context.Background()
	existing := Collection{{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"}}

	tests := []struct {
		name    string
		input   Collection
		wantErr interface{}
	}{
		{
			name: "valid collection",
			input: Collection{
				{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"},
				{Name: "B", Provider: types.ProviderOpenAI, APIKey: "k2"},
			},
		},
		{
			name: "duplicate name",
			input: Collection{
				{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"},
				{Name: "A", Provider: types.ProviderOpenAI, APIKey: "k2"},
			},
			wantErr: &DuplicateNameError{},
		},
		{
			name: "duplicate after trimming",
			input: Collection{
				{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"},
				{Name: " A ", Provider: types.ProviderOpenAI, APIKey: "k2"},
			},
			wantErr: &DuplicateNameError{},
		},
		{
			name:    "blank api key",
			input:   Collection{{Name: "A", Provider: types.ProviderDeepseek, APIKey: "  "}},
			wantErr: &ValidationError{},
		},
		{
			name:    "blank name",
			input:   Collection{{Name: "", Provider: types.ProviderDeepseek, APIKey: "k"}},
			wantErr: &ValidationError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := newTestRepository(t)
			require.NoError(t, repo.SetAPISettings(ctx, existing))

			err := repo.Save(ctx, tt.input)
			got, loadErr := repo.APISettings(ctx)
			require.NoError(t, loadErr)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.input, got)
				return
			}

			require.Error(t, err)
			assert.IsType(t, tt.wantErr, err)
			assert.Equal(t, existing, got, "storage must be unchanged after a rejected save")
		})
	}
}

func TestRepository_Add(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.Add(ctx, APISetting{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"}))

	err := repo.Add(ctx, APISetting{Name: "A", Provider: types.ProviderOpenAI, APIKey: "k2"})
	var dupErr *DuplicateNameError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "A", dupErr.Name)

	got, err := repo.APISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Collection{{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"}}, got)
}

func TestRepository_UpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.Upsert(ctx, APISetting{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"}))
	require.NoError(t, repo.Upsert(ctx, APISetting{Name: "B", Provider: types.ProviderOpenAI, APIKey: "k2"}))
	require.NoError(t, repo.Upsert(ctx, APISetting{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1-rotated"}))

	got, err := repo.APISettings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "k1-rotated", got[0].APIKey)
	assert.Equal(t, []string{"A", "B"}, got.Names())

	require.NoError(t, repo.Remove(ctx, "A"))
	var notFound *NotFoundError
	assert.True(t, errors.As(repo.Remove(ctx, "A"), &notFound))

	got, err = repo.APISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, got.Names())
}

func TestRepository_Upsert_RejectsTrimmedDuplicate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Add(ctx, APISetting{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"}))

	err := repo.Upsert(ctx, APISetting{Name: " A ", Provider: types.ProviderOpenAI, APIKey: "k2"})
	var dup *DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "A", dup.Name)

	got, err := repo.APISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Names())
	require.NoError(t, repo.Save(ctx, got))
}

func TestRepository_SetStoredAPIKey(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.SetStoredAPIKey(ctx, types.ProviderOpenAI, "k1", "", ""))
	require.NoError(t, repo.SetStoredAPIKey(ctx, types.ProviderDeepseek, "k2", "Mine", "deepseek-coder"))
	require.NoError(t, repo.SetStoredAPIKey(ctx, types.ProviderOpenAI, "k3", "Work", "gpt-4o"))

	got, err := repo.APISettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Collection{
		{Name: "Work", Provider: types.ProviderOpenAI, APIKey: "k3", Model: "gpt-4o"},
		{Name: "Mine", Provider: types.ProviderDeepseek, APIKey: "k2", Model: "deepseek-coder"},
	}, got)

	key, err := repo.StoredAPIKey(ctx, types.ProviderDeepseek)
	require.NoError(t, err)
	assert.Equal(t, "k2", key)

	key, err = repo.StoredAPIKey(ctx, types.ProviderAnthropic)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestRepository_SelectedSetting(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)

	selected, err := repo.SelectedSetting(ctx)
	require.NoError(t, err)
	assert.Nil(t, selected, "no settings means no selection")

	c := Collection{
		{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k1"},
		{Name: "B", Provider: types.ProviderOpenAI, APIKey: "k2"},
	}
	require.NoError(t, repo.SetAPISettings(ctx, c))

	selected, err = repo.SelectedSetting(ctx)
	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, "A", selected.Name, "no selection falls back to the first entry")

	require.NoError(t, repo.SetSelectedSetting(ctx, c[1]))
	raw, _, err := store.Get(ctx, KeySelectedSetting)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"B","provider":"openai"}`, raw, "only the reference is persisted")

	selected, err = repo.SelectedSetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, c[1], *selected)

	// Deleting the selected entry leaves a dangling reference.
	require.NoError(t, repo.Remove(ctx, "B"))
	selected, err = repo.SelectedSetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", selected.Name)

	// A name match with the wrong provider is treated as dangling.
	require.NoError(t, repo.Upsert(ctx, APISetting{Name: "C", Provider: types.ProviderOpenAI, APIKey: "k3"}))
	require.NoError(t, store.Set(ctx, KeySelectedSetting, `{"name":"C","provider":"deepseek"}`))
	selected, err = repo.SelectedSetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", selected.Name)
}

func TestRepository_SelectedSetting_CorruptRef(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)
	require.NoError(t, repo.SetAPISettings(ctx, Collection{{Name: "A", Provider: types.ProviderDeepseek, APIKey: "k"}}))
	require.NoError(t, store.Set(ctx, KeySelectedSetting, "not json"))

	selected, err := repo.SelectedSetting(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", selected.Name)
}

func TestRepository_SetAPISettings_WriteFailure(t *testing.T) {
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), failSet: true}
	repo := NewRepository(store, logging.Discard())

	err := repo.SetAPISettings(context.Background(), Collection{{Name: "A", APIKey: "k"}})
	var storeErr *storage.Error
	assert.True(t, errors.As(err, &storeErr))
}

func TestRepository_ClearAll(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepository(t)
	require.NoError(t, repo.SetAPISettings(ctx, Collection{{Name: "A", APIKey: "k"}}))
	require.NoError(t, store.Set(ctx, "chat_history", "[]"))

	require.NoError(t, repo.ClearAll(ctx))
	assert.Equal(t, 0, store.Len())
}
