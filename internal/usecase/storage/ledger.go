package storage

import (
	"sort"
	"strings"
	"sync"
)

// Mutation is one pending ledger write, produced by the cache layer's
// overlay and committed through Ledger.Apply.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// KV is the raw read-write seam of a ledger or data layer. Collaborators
// that keep their own records alongside the order state (the balance
// locker) write through it, so binding them to a cache layer's KV stages
// their mutations in the same overlay as the order mutations.
type KV interface {
	Get(key []byte) ([]byte, bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Ledger is the raw key-value contract the data layers are built on. The
// production implementation is pebble-backed; the in-memory one serves
// tests and ephemeral books.
type Ledger interface {
	// Get returns the value for key and whether it exists.
	Get(key []byte) ([]byte, bool, error)
	// Set writes key to value.
	Set(key, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error
	// Scan visits every key with the given prefix in ascending key order.
	Scan(prefix []byte, fn func(key, value []byte) error) error
	// Apply commits a batch of mutations atomically.
	Apply(mutations []Mutation) error
	// Close releases the underlying resources.
	Close() error
}

// MemLedger is an in-memory Ledger.
type MemLedger struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemLedger creates an empty in-memory ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{entries: make(map[string][]byte)}
}

// Get implements Ledger.
func (l *MemLedger) Get(key []byte) ([]byte, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	value, ok := l.entries[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set implements Ledger.
func (l *MemLedger) Set(key, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	l.entries[string(key)] = stored
	return nil
}

// Delete implements Ledger.
func (l *MemLedger) Delete(key []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, string(key))
	return nil
}

// Scan implements Ledger.
func (l *MemLedger) Scan(prefix []byte, fn func(key, value []byte) error) error {
	l.mu.RLock()
	keys := make([]string, 0, len(l.entries))
	for key := range l.entries {
		if strings.HasPrefix(key, string(prefix)) {
			keys = append(keys, key)
		}
	}
	l.mu.RUnlock()

	sort.Strings(keys)
	for _, key := range keys {
		value, ok, err := l.Get([]byte(key))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn([]byte(key), value); err != nil {
			return err
		}
	}
	return nil
}

// Apply implements Ledger.
func (l *MemLedger) Apply(mutations []Mutation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range mutations {
		if m.Delete {
			delete(l.entries, string(m.Key))
			continue
		}
		stored := make([]byte, len(m.Value))
		copy(stored, m.Value)
		l.entries[string(m.Key)] = stored
	}
	return nil
}

// Close implements Ledger.
func (l *MemLedger) Close() error {
	return nil
}
