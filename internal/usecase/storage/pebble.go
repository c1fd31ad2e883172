package storage

import (
	"github.com/cockroachdb/pebble"
)

// PebbleLedger is the production Ledger, persisted in a pebble database.
type PebbleLedger struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a pebble-backed ledger at dir.
func OpenPebble(dir string) (*PebbleLedger, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleLedger{db: db}, nil
}

// Get implements Ledger.
func (l *PebbleLedger) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := l.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set implements Ledger.
func (l *PebbleLedger) Set(key, value []byte) error {
	return l.db.Set(key, value, pebble.Sync)
}

// Delete implements Ledger.
func (l *PebbleLedger) Delete(key []byte) error {
	return l.db.Delete(key, pebble.Sync)
}

// Scan implements Ledger.
func (l *PebbleLedger) Scan(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())

		if err := fn(key, value); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Apply implements Ledger. The batch commits atomically with fsync.
func (l *PebbleLedger) Apply(mutations []Mutation) error {
	batch := l.db.NewBatch()
	defer batch.Close()

	for _, m := range mutations {
		var err error
		if m.Delete {
			err = batch.Delete(m.Key, nil)
		} else {
			err = batch.Set(m.Key, m.Value, nil)
		}
		if err != nil {
			return err
		}
	}
	return l.db.Apply(batch, pebble.Sync)
}

// Close implements Ledger.
func (l *PebbleLedger) Close() error {
	return l.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil // prefix of 0xff bytes, scan to the end
}
