package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileStoreVersion = "1.0"

// FileStore implements Store using a single JSON file.
//
// The whole namespace is held in memory and every mutation rewrites the
// file through a temp file and an atomic rename.
type FileStore struct {
	path    string
	values  map[string]string
	mu      sync.RWMutex
	version string
}

// NewFileStore creates a file-backed store at path, loading any existing
// content. If path is empty, defaults to ~/.pagechat/storage.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, &Error{Op: "open", Err: fmt.Errorf("failed to get user home directory: %w", err)}
		}
		path = filepath.Join(homeDir, ".pagechat", "storage.json")
	}

	store := &FileStore{
		path:    path,
		values:  make(map[string]string),
		version: fileStoreVersion,
	}

	if err := store.load(); err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("failed to load %s: %w", path, err)}
	}

	return store, nil
}

// load reads the file from disk. A missing file yields an empty namespace.
func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.values = make(map[string]string)
			return nil
		}
		return fmt.Errorf("failed to open storage file: %w", err)
	}
	defer file.Close()

	var doc struct {
		Version string            `json:"version"`
		Values  map[string]string `json:"values"`
	}

	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode storage file: %w", err)
	}

	if doc.Version != "" {
		s.version = doc.Version
	}
	if doc.Values != nil {
		s.values = doc.Values
	} else {
		s.values = make(map[string]string)
	}
	return nil
}

// save writes the namespace to disk. Callers must hold s.mu.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp storage file: %w", err)
	}

	doc := struct {
		Version string            `json:"version"`
		Values  map[string]string `json:"values"`
	}{
		Version: s.version,
		Values:  s.values,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode storage: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, wrap("get", key, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores value under key and persists the namespace.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return wrap("set", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.values[key]
	s.values[key] = value
	if err := s.save(); err != nil {
		if existed {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return wrap("set", key, err)
	}
	return nil
}

// Remove deletes keys and persists the namespace.
func (s *FileStore) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return wrap("remove", "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]string)
	for _, key := range keys {
		if value, ok := s.values[key]; ok {
			removed[key] = value
			delete(s.values, key)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := s.save(); err != nil {
		for k, v := range removed {
			s.values[k] = v
		}
		return wrap("remove", "", err)
	}
	return nil
}

// Clear deletes every key and persists the empty namespace.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrap("clear", "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.values
	s.values = make(map[string]string)
	if err := s.save(); err != nil {
		s.values = previous
		return wrap("clear", "", err)
	}
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
