// Package store provides durable key-value persistence for client-held state.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for persisting small client-side records.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing storage.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns the Store implementation selected by driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverFile, "":
		fs, err := NewFile(path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case DriverSQLite:
		db, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
