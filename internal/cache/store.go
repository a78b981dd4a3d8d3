// Package cache persists generated chunk artifacts across sessions. Keys are
// namespaced by a hash of the generation config, so entries never go stale.
package cache

import (
	"context"
	"errors"
	"fmt"

	"planet-lod/internal/config"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("cache: store closed")

// Store is a persistent key-value store for chunk blobs.
type Store interface {
	// Get returns the stored value; a miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key; writing the same key twice is last-write-wins.
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open creates the store selected by cfg. The none backend returns a nil Store.
func Open(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		return NewMemoryStore(cfg.MaxEntries), nil
	case config.BackendDisk:
		s, err := OpenDiskStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open disk cache: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		return NewRedisStore(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
