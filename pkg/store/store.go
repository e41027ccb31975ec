// Package store provides the flat string-keyed key/value medium the summary
// cache persists into. Stores have no native expiry: expiry is implemented by
// the cache from a timestamp kept inside each value.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrFull is returned by Set when the store has no room left.
var ErrFull = errors.New("store full")

// Store is a flat string-keyed key/value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys returns every key in the store.
	Keys(ctx context.Context) ([]string, error)
	// Close releases resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	DBPath   string
	RedisURL string
}

// Open creates the store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLite(opts.DBPath)
	case BackendRedis:
		return NewRedis(opts.RedisURL)
	case BackendMemory:
		return NewMemory(0), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
