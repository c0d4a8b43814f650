package debug

import "context"

// Snapshot is what /_debug/state exposes about the ledger side.
// It must not carry credentials.
type Snapshot struct {
	Backend        string `json:"backend"`
	SessionsOpened int64  `json:"sessionsOpened"`
	SessionsClosed int64  `json:"sessionsClosed"`
}

// Introspector is implemented by connectors that can report session state.
type Introspector interface {
	SnapshotData(ctx context.Context) Snapshot
}
