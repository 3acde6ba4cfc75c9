package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"financeflow/internal/storage"
)

// Store is an in-process key-value store. A positive quota caps the size of a single value,
// the way browser-style host storage refuses oversized writes.
type Store struct {
	mu    sync.Mutex
	quota int
	items map[string][]byte
}

func New(quota int) *Store {
	return &Store{quota: quota, items: make(map[string][]byte)}
}

// NewFromFiles seeds the store with base/<key>.json when that file exists.
func NewFromFiles(base, key string, quota int) *Store {
	s := New(quota)
	if data, err := os.ReadFile(filepath.Join(base, key+".json")); err == nil {
		s.items[key] = data
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.quota > 0 && len(value) > s.quota {
		return storage.ErrQuotaExceeded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}
