// Package badgerstate provides a Badger-backed world state for the "badger"
// ledger backend: a durable single-node ledger for development and
// air-gapped demos. Namespaces share one database; keys are prefixed with
// the namespace and a NUL separator.
package badgerstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/sufield/evault/internal/recordstore"
)

const sep = 0x00

// maxConflictRetries bounds how often a conditional write is retried after
// losing a transaction conflict.
const maxConflictRetries = 16

// Backend owns a Badger database.
type Backend struct {
	db *badger.DB
}

// Open opens (or creates) the database in dir. An empty dir opens an
// in-memory database.
func Open(dir string) (*Backend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Backend{db: db}, nil
}

// State returns the state for namespace.
func (b *Backend) State(_ context.Context, namespace string) (recordstore.State, error) {
	if namespace == "" {
		return nil, errors.New("namespace is required")
	}
	prefix := append([]byte(namespace), sep)
	return &State{db: b.db, prefix: prefix}, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// State is one namespace of the database.
type State struct {
	db     *badger.DB
	prefix []byte
}

func (s *State) key(k string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	return append(out, k...)
}

// GetState returns the value under key, or nil if absent.
func (s *State) GetState(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// PutState stores value under key.
func (s *State) PutState(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(key), value)
	})
}

// DelState removes key.
func (s *State) DelState(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
}

// InsertState stores value under key only if key is absent.
func (s *State) InsertState(key string, value []byte) (bool, error) {
	return s.conditional(key, false, func(txn *badger.Txn, k []byte) error {
		return txn.Set(k, value)
	})
}

// ReplaceState overwrites the value under key only if key is present.
func (s *State) ReplaceState(key string, value []byte) (bool, error) {
	return s.conditional(key, true, func(txn *badger.Txn, k []byte) error {
		return txn.Set(k, value)
	})
}

// RemoveState deletes key only if it is present.
func (s *State) RemoveState(key string) (bool, error) {
	return s.conditional(key, true, func(txn *badger.Txn, k []byte) error {
		return txn.Delete(k)
	})
}

// conditional runs write in the same transaction that reads key, when the
// key's presence equals wantPresent. Badger aborts the commit with
// ErrConflict if another transaction wrote key after the read; the whole
// step is then retried against the new state.
func (s *State) conditional(key string, wantPresent bool, write func(*badger.Txn, []byte) error) (bool, error) {
	k := s.key(key)
	for attempt := 0; ; attempt++ {
		applied := false
		err := s.db.Update(func(txn *badger.Txn) error {
			present := false
			item, err := txn.Get(k)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				present = item.ValueSize() > 0
			}
			if present != wantPresent {
				return nil
			}
			applied = true
			return write(txn, k)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		if err != nil {
			return false, err
		}
		return applied, nil
	}
}

// CountState returns the number of keys in the namespace.
func (s *State) CountState() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false, Prefix: s.prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
