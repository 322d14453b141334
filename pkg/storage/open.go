package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Options selects and configures the backend opened by Open.
type Options struct {
	// Backend to open. BackendAuto (or empty) picks the file store when
	// Dir is writable and falls back to memory otherwise.
	Backend Backend

	// Dir is the profile directory holding the store files.
	Dir string

	// Path overrides the file name derived from Dir.
	Path string
}

// Open creates the single Store used for the life of the process. The
// returned io.Closer releases backend resources and is never nil.
func Open(opts Options) (Store, io.Closer, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendAuto
	}
	if backend == BackendAuto {
		backend = Detect(opts.Dir)
	}

	switch backend {
	case BackendFile:
		path := opts.Path
		if path == "" && opts.Dir != "" {
			path = filepath.Join(opts.Dir, "storage.json")
		}
		store, err := NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case BackendSQLite:
		path := opts.Path
		if path == "" && opts.Dir != "" {
			path = filepath.Join(opts.Dir, "storage.db")
		}
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case BackendMemory:
		return NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, &Error{Op: "open", Err: fmt.Errorf("unknown storage backend %q", backend)}
	}
}

// Detect reports which backend the environment supports: the file store
// when dir exists (or can be created) and is writable, memory otherwise.
func Detect(dir string) Backend {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return BackendMemory
		}
		dir = filepath.Join(homeDir, ".pagechat")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return BackendMemory
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return BackendMemory
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return BackendFile
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
