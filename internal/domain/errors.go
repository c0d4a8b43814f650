package domain

import "errors"

// Sentinel errors for record operations.
// Use with errors.Is() for checking and fmt.Errorf("%w", ...) for wrapping with context.
var (
	// ErrAlreadyExists indicates a record is already stored under the ID
	ErrAlreadyExists = errors.New("record already exists")

	// ErrNotFound indicates no record is stored under the ID
	ErrNotFound = errors.New("record does not exist")

	// ErrInvalidRecordID indicates the record ID is empty
	ErrInvalidRecordID = errors.New("record ID cannot be empty")

	// ErrUnknownRole indicates a role name outside the route table
	ErrUnknownRole = errors.New("unknown role")
)
