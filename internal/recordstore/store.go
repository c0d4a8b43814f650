// Package recordstore implements the record operations of the eVAULT ledger
// contract over a key-value world state.
//
// The same Store backs the Fabric chaincode (internal/chaincode) and every
// in-process ledger backend (memory, badger, postgres), so all of them share
// one set of existence rules:
//
//   - Create fails with domain.ErrAlreadyExists when the ID is present
//   - Read, Update and Delete fail with domain.ErrNotFound when it is absent
//   - A failed operation never changes state
//
// Records are stored as JSON ({"value": "..."}).
package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sufield/evault/internal/domain"
)

// State is the world state a Store reads and writes.
//
// The method set matches the Fabric chaincode stub so a stub can be passed
// through unchanged. GetState returns nil (and no error) for an absent key.
type State interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	DelState(key string) error
}

// Counter is implemented by states that can count their stored keys.
type Counter interface {
	CountState() (int, error)
}

// Conditional is implemented by states that can check existence and write
// in one atomic step. Each method reports whether the write happened:
// InsertState only writes an absent key, ReplaceState and RemoveState only
// touch a present one.
//
// The chaincode stub does not implement it; Fabric's read-set validation
// rejects the losing writer instead.
type Conditional interface {
	InsertState(key string, value []byte) (bool, error)
	ReplaceState(key string, value []byte) (bool, error)
	RemoveState(key string) (bool, error)
}

// ErrCountUnsupported is returned by Count when the state cannot count keys.
var ErrCountUnsupported = errors.New("state does not support counting")

// Store performs record operations against a State.
type Store struct {
	state State
}

// New returns a Store over state.
func New(state State) *Store {
	return &Store{state: state}
}

// Exists reports whether a non-empty value is stored under id.
func (s *Store) Exists(id string) (bool, error) {
	if err := domain.ValidateRecordID(id); err != nil {
		return false, err
	}
	data, err := s.state.GetState(id)
	if err != nil {
		return false, fmt.Errorf("failed to read world state for %s: %w", id, err)
	}
	return len(data) > 0, nil
}

// Create stores value under id. It fails if id already exists.
func (s *Store) Create(id, value string) error {
	if c, ok := s.state.(Conditional); ok {
		data, err := encode(id, value)
		if err != nil {
			return err
		}
		inserted, err := c.InsertState(id, data)
		if err != nil {
			return fmt.Errorf("failed to write %s to world state: %w", id, err)
		}
		if !inserted {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
		}
		return nil
	}

	exists, err := s.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
	}
	return s.put(id, value)
}

// Read returns the record stored under id.
func (s *Store) Read(id string) (*domain.Record, error) {
	if err := domain.ValidateRecordID(id); err != nil {
		return nil, err
	}
	data, err := s.state.GetState(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read world state for %s: %w", id, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &rec, nil
}

// Update overwrites the value stored under id. It fails if id does not exist.
func (s *Store) Update(id, value string) error {
	if c, ok := s.state.(Conditional); ok {
		data, err := encode(id, value)
		if err != nil {
			return err
		}
		replaced, err := c.ReplaceState(id, data)
		if err != nil {
			return fmt.Errorf("failed to write %s to world state: %w", id, err)
		}
		if !replaced {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil
	}

	if err := s.mustExist(id); err != nil {
		return err
	}
	return s.put(id, value)
}

// Delete removes the record stored under id. It fails if id does not exist.
func (s *Store) Delete(id string) error {
	if c, ok := s.state.(Conditional); ok {
		if err := domain.ValidateRecordID(id); err != nil {
			return err
		}
		removed, err := c.RemoveState(id)
		if err != nil {
			return fmt.Errorf("failed to delete %s from world state: %w", id, err)
		}
		if !removed {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil
	}

	if err := s.mustExist(id); err != nil {
		return err
	}
	if err := s.state.DelState(id); err != nil {
		return fmt.Errorf("failed to delete %s from world state: %w", id, err)
	}
	return nil
}

// Count returns the number of records in the state.
func (s *Store) Count() (int, error) {
	c, ok := s.state.(Counter)
	if !ok {
		return 0, ErrCountUnsupported
	}
	n, err := c.CountState()
	if err != nil {
		return 0, fmt.Errorf("failed to count world state: %w", err)
	}
	return n, nil
}

func (s *Store) mustExist(id string) error {
	exists, err := s.Exists(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *Store) put(id, value string) error {
	data, err := encode(id, value)
	if err != nil {
		return err
	}
	if err := s.state.PutState(id, data); err != nil {
		return fmt.Errorf("failed to write %s to world state: %w", id, err)
	}
	return nil
}

func encode(id, value string) ([]byte, error) {
	if err := domain.ValidateRecordID(id); err != nil {
		return nil, err
	}
	data, err := json.Marshal(domain.Record{Value: value})
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", id, err)
	}
	return data, nil
}
