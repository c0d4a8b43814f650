package ports

import "errors"

// Infrastructure errors for the adapter layer.
//
// These represent connection concerns and are separate from the record
// errors in internal/domain.
var (
	// ErrConfigNotFound indicates no connection profile exists for the organization.
	//
	// Used by:
	//   - fabric.Connector when connection-<org>.json|yaml is missing
	//   - local.Connector when the organization is not configured
	ErrConfigNotFound = errors.New("connection profile not found")

	// ErrIdentityNotFound indicates the wallet holds no identity for the user.
	//
	// Used by:
	//   - fabric.Connector when <wallet>/<org>/<user>.id is missing
	//   - local.Connector when the user is not enrolled in the organization
	ErrIdentityNotFound = errors.New("identity not found in wallet")

	// ErrHandleClosed indicates a call on a session after Close.
	ErrHandleClosed = errors.New("ledger session is closed")
)

// Compile-time check that errors implement error interface
var (
	_ error = ErrConfigNotFound
	_ error = ErrIdentityNotFound
	_ error = ErrHandleClosed
)
