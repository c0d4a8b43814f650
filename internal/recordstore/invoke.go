package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Ledger function names. They match the transaction names exported by
// internal/chaincode so a REST controller can target either a Fabric network
// or an in-process backend without change.
const (
	FnExists = "RecordExists"
	FnCreate = "CreateRecord"
	FnRead   = "ReadRecord"
	FnUpdate = "UpdateRecord"
	FnDelete = "DeleteRecord"
	FnCount  = "CountRecords"
)

var (
	// ErrUnknownFunction indicates a ledger function name the contract does not export
	ErrUnknownFunction = errors.New("unknown ledger function")

	// ErrBadArguments indicates the wrong number of arguments for a ledger function
	ErrBadArguments = errors.New("wrong number of arguments")
)

// IsSubmit reports whether fn changes state and must be submitted rather
// than evaluated.
func IsSubmit(fn string) bool {
	switch fn {
	case FnCreate, FnUpdate, FnDelete:
		return true
	}
	return false
}

// Invoke runs the named ledger function against s and returns the payload
// the chaincode would return for it: JSON for values, nil for writes.
func Invoke(s *Store, fn string, args []string) ([]byte, error) {
	want, ok := arity[fn]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, fn)
	}
	if len(args) != want {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrBadArguments, fn, want, len(args))
	}

	switch fn {
	case FnExists:
		exists, err := s.Exists(args[0])
		if err != nil {
			return nil, err
		}
		return json.Marshal(exists)
	case FnCreate:
		return nil, s.Create(args[0], args[1])
	case FnRead:
		rec, err := s.Read(args[0])
		if err != nil {
			return nil, err
		}
		return json.Marshal(rec)
	case FnUpdate:
		return nil, s.Update(args[0], args[1])
	case FnDelete:
		return nil, s.Delete(args[0])
	default:
		n, err := s.Count()
		if err != nil {
			return nil, err
		}
		return json.Marshal(n)
	}
}

var arity = map[string]int{
	FnExists: 1,
	FnCreate: 2,
	FnRead:   1,
	FnUpdate: 2,
	FnDelete: 1,
	FnCount:  0,
}
