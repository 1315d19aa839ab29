// Package kvstore provides the byte-oriented key-value store backing the
// cart and recurring-order snapshots. The engines only ever read and write
// whole serialized states, so the interface is deliberately small.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/babdal-backend/config"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Store is a minimal persistent key-value byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open creates a store for the configured driver.
func Open(cfg *config.StorageConfig) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return OpenRedis(&cfg.Redis)
	case "sqlite", "sqlite3":
		return OpenSQLite(&cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
