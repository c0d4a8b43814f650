package ports

import "context"

// Target names the identity and ledger contract a session is bound to.
type Target struct {
	// Org is the organization whose connection profile and wallet are used.
	Org string
	// User is the wallet label of the identity that signs transactions.
	User string
	// Channel is the ledger partition for the organization.
	Channel string
	// Contract is the chaincode name on the channel.
	Contract string
}

// Namespace returns the world-state namespace of the target ("channel/contract").
func (t Target) Namespace() string {
	return t.Channel + "/" + t.Contract
}

// Contract executes named ledger functions with string arguments.
//
// Error Contract:
//   - Errors from the ledger are returned unclassified; callers surface
//     the message verbatim.
type Contract interface {
	// Submit runs a state-changing function and waits for it to commit.
	Submit(ctx context.Context, fn string, args ...string) ([]byte, error)
	// Evaluate runs a read-only function against one peer.
	Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error)
}

// Handle is an open session bound to one contract on one channel.
// A Handle is scoped to a single request.
type Handle interface {
	Contract
	// Close releases the session. It is idempotent.
	Close() error
}

// Connector opens ledger sessions.
//
// Error Contract:
//   - ErrConfigNotFound when the organization's connection profile is missing
//   - ErrIdentityNotFound when the user has no identity in the organization's wallet
type Connector interface {
	Connect(ctx context.Context, target Target) (Handle, error)
	// Close releases resources shared by all sessions (backends, caches).
	Close() error
}

// Disconnect closes h. A nil handle is a no-op.
func Disconnect(h Handle) error {
	if h == nil {
		return nil
	}
	return h.Close()
}
