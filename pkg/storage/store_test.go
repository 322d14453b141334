package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns one fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "storage.json"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
		"memory": NewMemoryStore(),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "api_settings", `[{"name":"A"}]`))
			value, ok, err := store.Get(ctx, "api_settings")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"name":"A"}]`, value)

			require.NoError(t, store.Set(ctx, "api_settings", "[]"))
			value, _, err = store.Get(ctx, "api_settings")
			require.NoError(t, err)
			assert.Equal(t, "[]", value, "Set must replace the previous value")

			require.NoError(t, store.Set(ctx, "selected_setting", "{}"))
			require.NoError(t, store.Remove(ctx, "api_settings", "never_set"))
			_, ok, err = store.Get(ctx, "api_settings")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Clear(ctx))
			_, ok, err = store.Get(ctx, "selected_setting")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Set(ctx, "k", "v")
			require.Error(t, err)

			var storeErr *Error
			assert.True(t, errors.As(err, &storeErr))
		})
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "chat_history", `[{"role":"user","content":"hi"}]`))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := reopened.Get(ctx, "chat_history")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"role":"user","content":"hi"}]`, value)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.0", doc["version"])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a save")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path)
	require.Error(t, err)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "open", storeErr.Op)
}

func TestSQLiteStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		opts     Options
		wantType interface{}
		wantErr  bool
	}{
		{name: "auto picks file for writable dir", opts: Options{Dir: dir}, wantType: &FileStore{}},
		{name: "explicit file", opts: Options{Backend: BackendFile, Dir: dir}, wantType: &FileStore{}},
		{name: "explicit sqlite", opts: Options{Backend: BackendSQLite, Dir: dir}, wantType: &SQLiteStore{}},
		{name: "explicit memory", opts: Options{Backend: BackendMemory}, wantType: &MemoryStore{}},
		{name: "unknown backend", opts: Options{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closer, err := Open(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closer.Close()
			assert.IsType(t, tt.wantType, store)
		})
	}
}

func TestDetect_UnwritableFallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	// A directory below a regular file can never be created.
	assert.Equal(t, BackendMemory, Detect(filepath.Join(blocker, "profile")))
	assert.Equal(t, BackendFile, Detect(dir))
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "get", Key: "api_settings", Err: errors.New("disk gone")}
	assert.Equal(t, `storage get "api_settings" failed: disk gone`, err.Error())
	assert.Equal(t, "disk gone", errors.Unwrap(err).Error())

	err = &Error{Op: "clear", Err: errors.New("locked")}
	assert.Equal(t, "storage clear failed: locked", err.Error())
}
