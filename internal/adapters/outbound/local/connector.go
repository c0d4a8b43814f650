// Package local implements ports.Connector against an in-process world
// state instead of a Fabric network.
//
// The connector enforces the same connection contract as the Fabric
// adapter: the organization must be configured (ports.ErrConfigNotFound)
// and the user enrolled in it (ports.ErrIdentityNotFound). Ledger functions
// run through recordstore.Invoke, the same code the chaincode uses.
package local

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sufield/evault/internal/debug"
	"github.com/sufield/evault/internal/ports"
	"github.com/sufield/evault/internal/recordstore"
)

// Backend provides one world state per namespace.
type Backend interface {
	State(ctx context.Context, namespace string) (recordstore.State, error)
	Close() error
}

// Connector opens sessions on a Backend.
type Connector struct {
	backend Backend
	name    string
	orgs    map[string]map[string]struct{}

	opened atomic.Int64
	closed atomic.Int64
}

// NewConnector creates a connector over backend. orgs maps each known
// organization to its enrolled users.
func NewConnector(backend Backend, orgs map[string][]string) *Connector {
	known := make(map[string]map[string]struct{}, len(orgs))
	for org, users := range orgs {
		set := make(map[string]struct{}, len(users))
		for _, u := range users {
			set[u] = struct{}{}
		}
		known[org] = set
	}
	return &Connector{backend: backend, orgs: known}
}

// Connect validates the target and returns a session bound to its namespace.
func (c *Connector) Connect(ctx context.Context, target ports.Target) (ports.Handle, error) {
	users, ok := c.orgs[target.Org]
	if !ok {
		return nil, fmt.Errorf("%w: organization %q", ports.ErrConfigNotFound, target.Org)
	}
	if _, ok := users[target.User]; !ok {
		return nil, fmt.Errorf("%w: user %q in %s", ports.ErrIdentityNotFound, target.User, target.Org)
	}
	if target.Channel == "" || target.Contract == "" {
		return nil, fmt.Errorf("channel and contract are required (got %q, %q)", target.Channel, target.Contract)
	}

	if debug.Faults.ShouldFailConnect() {
		return nil, fmt.Errorf("connect to %s: %w", target.Namespace(), debug.ErrInjected)
	}

	c.opened.Add(1)
	debug.GetLogger().Debugf("local ledger session opened: %s@%s %s", target.User, target.Org, target.Namespace())
	return &handle{conn: c, target: target}, nil
}

// Close releases the backend.
func (c *Connector) Close() error {
	return c.backend.Close()
}

// Sessions returns how many sessions were opened and closed.
func (c *Connector) Sessions() (opened, closed int64) {
	return c.opened.Load(), c.closed.Load()
}

// SetName labels the backend in debug snapshots.
func (c *Connector) SetName(name string) {
	c.name = name
}

// SnapshotData implements debug.Introspector.
func (c *Connector) SnapshotData(context.Context) debug.Snapshot {
	opened, closed := c.Sessions()
	return debug.Snapshot{Backend: c.name, SessionsOpened: opened, SessionsClosed: closed}
}

type handle struct {
	conn   *Connector
	target ports.Target

	mu     sync.Mutex
	closed bool
}

func (h *handle) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return h.invoke(ctx, fn, args)
}

func (h *handle) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	if recordstore.IsSubmit(fn) {
		return nil, fmt.Errorf("%s changes ledger state and must be submitted", fn)
	}
	return h.invoke(ctx, fn, args)
}

func (h *handle) invoke(ctx context.Context, fn string, args []string) ([]byte, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, ports.ErrHandleClosed
	}
	if d := debug.Faults.GetAndClearDelay(); d > 0 {
		select {
		case <-time.After(time.Duration(d) * time.Millisecond):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if debug.Faults.ShouldFailCall() {
		return nil, fmt.Errorf("%s: %w", fn, debug.ErrInjected)
	}

	st, err := h.conn.backend.State(ctx, h.target.Namespace())
	if err != nil {
		return nil, fmt.Errorf("failed to open world state %s: %w", h.target.Namespace(), err)
	}
	return recordstore.Invoke(recordstore.New(st), fn, args)
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.conn.closed.Add(1)
	return nil
}
