// Package ledger owns the transaction collection and its persistence.
//
// A Store keeps the collection in memory, newest first, and writes the whole
// collection as one JSON array to a single key-value slot after every mutation.
// A mutation only becomes visible once that write has succeeded.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"financeflow/internal/apperrors"
	"financeflow/internal/categories"
	"financeflow/internal/core"
	"financeflow/internal/events"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// DefaultKey is the slot the collection is stored under.
const DefaultKey = "financeflow_transactions"

const maxIDAttempts = 16

// ErrIDExhausted is returned when the id generator keeps producing ids already in use.
var ErrIDExhausted = errors.New("could not generate a unique transaction id")

// Store is the single authority over the transaction collection.
type Store struct {
	mu       sync.RWMutex
	items    []core.Transaction
	revision uint64

	kv        storage.KV
	key       string
	rules     []core.Rule
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
	verify    bool
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// WithCatalog restricts categories to the catalog's list for each kind.
func WithCatalog(c *categories.Catalog) Option {
	return func(s *Store) { s.rules = append(s.rules, c.Rule()) }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithVerifyWrites re-reads the slot after each write and fails the mutation on mismatch.
func WithVerifyWrites(verify bool) Option {
	return func(s *Store) { s.verify = verify }
}

// New returns an empty store over kv. Call Load to read the persisted collection.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultKey,
		logger: log.Discard(),
		now:    time.Now,
		newID:  func() string { return "txn_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open is New followed by Load.
func Open(ctx context.Context, kv storage.KV, opts ...Option) *Store {
	s := New(kv, opts...)
	s.Load(ctx)
	return s
}

// Load reads the persisted collection, replacing the in-memory one.
// A missing, unreadable or malformed slot yields an empty collection.
func (s *Store) Load(ctx context.Context) []core.Transaction {
	items := s.read(ctx)

	s.mu.Lock()
	s.items = items
	s.revision++
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Ledger loaded",
		log.FieldStorageKey, s.key,
		log.FieldCount, len(items))
	return slices.Clone(items)
}

func (s *Store) read(ctx context.Context) []core.Transaction {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []core.Transaction{}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read ledger, starting empty",
			log.FieldStorageKey, s.key,
			log.FieldError, err)
		return []core.Transaction{}
	}

	items, err := decode(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored ledger is malformed, starting empty",
			log.FieldStorageKey, s.key,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeParse)
		return []core.Transaction{}
	}
	return items
}

func decode(data []byte) ([]core.Transaction, error) {
	var items []core.Transaction
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	for i, tx := range items {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	if items == nil {
		items = []core.Transaction{}
	}
	return items, nil
}

// Add validates c, assigns an id and creation time, prepends the record and persists.
func (s *Store) Add(ctx context.Context, c core.Candidate) (core.Transaction, error) {
	entry, err := c.Validate(s.rules...)
	if err != nil {
		s.logValidation(ctx, log.OpCreate, err)
		return core.Transaction{}, err
	}

	s.mu.Lock()
	id, err := s.uniqueIDLocked()
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	tx := entry.Transaction(id, s.now().UTC())

	next := make([]core.Transaction, 0, len(s.items)+1)
	next = append(next, tx)
	next = append(next, s.items...)
	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, s.persistFailed(ctx, "add", err)
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction added", log.NewFields().
		WithOperation(log.OpCreate).
		WithTransaction(tx.ID, tx.Kind.String(), tx.Amount.Cents, tx.Category).
		ToSlice()...)
	s.publish(ctx, events.TransactionAdded, tx)
	return tx, nil
}

// Update replaces the editable fields of the record with id, keeping its id, creation time and position.
func (s *Store) Update(ctx context.Context, id string, c core.Candidate) (core.Transaction, error) {
	entry, err := c.Validate(s.rules...)
	if err != nil {
		s.logValidation(ctx, log.OpUpdate, err)
		return core.Transaction{}, err
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("transaction %q: %w", id, apperrors.ErrNotFound)
	}
	old := s.items[idx]
	tx := entry.Transaction(old.ID, old.CreatedAt)

	next := slices.Clone(s.items)
	next[idx] = tx
	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, s.persistFailed(ctx, "update", err)
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithTransaction(tx.ID, tx.Kind.String(), tx.Amount.Cents, tx.Category).
		ToSlice()...)
	s.publish(ctx, events.TransactionUpdated, tx)
	return tx, nil
}

// Remove deletes the record with id. Removing an unknown id succeeds without writing.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Remove of unknown transaction ignored", log.FieldTransactionID, id)
		return nil
	}
	removed := s.items[idx]
	next := slices.Delete(slices.Clone(s.items), idx, idx+1)
	if err := s.commitLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return s.persistFailed(ctx, "remove", err)
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction removed",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	s.publish(ctx, events.TransactionRemoved, removed)
	return nil
}

// Get returns the record with id.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.items[idx], true
	}
	return core.Transaction{}, false
}

// List returns a copy of the collection, newest first.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Snapshot returns a copy of the collection together with its revision.
func (s *Store) Snapshot() ([]core.Transaction, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), s.revision
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision changes after every successful mutation or reload.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Categories lists the distinct categories in use, in first-appearance order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range s.items {
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		out = append(out, tx.Category)
	}
	return out
}

func (s *Store) Key() string { return s.key }

// commitLocked persists next and, only on success, makes it the current collection.
func (s *Store) commitLocked(ctx context.Context, next []core.Transaction) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return err
	}
	if s.verify {
		if err := s.verifyLocked(ctx, data); err != nil {
			s.restoreLocked(ctx)
			return err
		}
	}
	s.items = next
	s.revision++
	return nil
}

func (s *Store) verifyLocked(ctx context.Context, data []byte) error {
	stored, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("verify write: %w", err)
	}
	if !bytes.Equal(stored, data) {
		return errors.New("verify write: stored value differs from written value")
	}
	return nil
}

// restoreLocked writes the current collection back after a write failed verification.
// If that write fails too the slot is left as the backend has it; the next successful
// mutation overwrites it.
func (s *Store) restoreLocked(ctx context.Context) {
	prev, err := json.Marshal(s.items)
	if err == nil {
		err = s.kv.Set(ctx, s.key, prev)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to restore ledger after rejected write",
			log.FieldOperation, log.OpPersist,
			log.FieldStorageKey, s.key,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypePersistence)
	}
}

func (s *Store) uniqueIDLocked() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(tx core.Transaction) bool { return tx.ID == id })
}

func (s *Store) persistFailed(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "Failed to persist ledger", log.NewFields().
		WithOperation(log.OpPersist).
		With(log.FieldStorageKey, s.key).
		With("mutation", op).
		WithError(err).
		WithErrorType(log.ErrorTypePersistence).
		ToSlice()...)
	return &apperrors.PersistenceError{Op: op, Err: err}
}

func (s *Store) logValidation(ctx context.Context, op string, err error) {
	s.logger.DebugContext(ctx, "Transaction rejected",
		log.FieldOperation, op,
		log.FieldError, err)
}

func (s *Store) publish(ctx context.Context, t events.Type, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(t, tx, s.now())); err != nil {
		// the mutation is already persisted
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldTransactionID, tx.ID,
			log.FieldError, err)
	}
}
