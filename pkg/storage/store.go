// Package storage provides the key/value namespace that pagechat persists
// its settings and chat history in.
//
// Exactly one backend is chosen at process start (see Open) and used for
// the life of the process. Values are opaque strings; callers encode and
// decode JSON themselves.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Store is an asynchronous-style key/value store. Implementations must be
// safe for concurrent use. A failure of the underlying medium is returned
// as an *Error; there is no retry at this layer.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the given keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error

	// Clear deletes every key in the namespace.
	Clear(ctx context.Context) error
}

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("storage: store closed")

// Error reports a failed store operation.
type Error struct {
	Op  string // get, set, remove, clear, open
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}
