// Package storage holds the key-value slots the ledger persists its collection into.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("storage: key not found")

	// ErrQuotaExceeded is returned by Set when a value is larger than the backend allows.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// KV is a single-value-per-key store. Set replaces the whole value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
