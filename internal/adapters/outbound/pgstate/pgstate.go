// Package pgstate provides a PostgreSQL-backed world state for the
// "postgres" ledger backend. All namespaces share one table keyed by
// (namespace, key).
package pgstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sufield/evault/internal/recordstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS evault_world_state (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Backend owns a connection pool.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and creates the state table if needed.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create world state table: %w", err)
	}
	return &Backend{pool: pool}, nil
}

// State returns the state for namespace. Queries run under ctx.
func (b *Backend) State(ctx context.Context, namespace string) (recordstore.State, error) {
	if namespace == "" {
		return nil, errors.New("namespace is required")
	}
	return &State{ctx: ctx, pool: b.pool, namespace: namespace}, nil
}

// Close closes the pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

// State is one namespace of the table, bound to a request context.
type State struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	namespace string
}

// GetState returns the value under key, or nil if absent.
func (s *State) GetState(key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(s.ctx, `
SELECT value FROM evault_world_state WHERE namespace=$1 AND key=$2
`, s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// PutState stores value under key.
func (s *State) PutState(key string, value []byte) error {
	_, err := s.pool.Exec(s.ctx, `
INSERT INTO evault_world_state(namespace,key,value)
VALUES($1,$2,$3)
ON CONFLICT (namespace,key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
`, s.namespace, key, value)
	return err
}

// DelState removes key.
func (s *State) DelState(key string) error {
	_, err := s.pool.Exec(s.ctx, `DELETE FROM evault_world_state WHERE namespace=$1 AND key=$2`, s.namespace, key)
	return err
}

// InsertState stores value under key only if key is absent.
func (s *State) InsertState(key string, value []byte) (bool, error) {
	tag, err := s.pool.Exec(s.ctx, `
INSERT INTO evault_world_state(namespace,key,value)
VALUES($1,$2,$3)
ON CONFLICT (namespace,key) DO NOTHING
`, s.namespace, key, value)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReplaceState overwrites the value under key only if key is present.
func (s *State) ReplaceState(key string, value []byte) (bool, error) {
	tag, err := s.pool.Exec(s.ctx, `
UPDATE evault_world_state SET value=$3, updated_at=now() WHERE namespace=$1 AND key=$2
`, s.namespace, key, value)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveState deletes key only if it is present.
func (s *State) RemoveState(key string) (bool, error) {
	tag, err := s.pool.Exec(s.ctx, `DELETE FROM evault_world_state WHERE namespace=$1 AND key=$2`, s.namespace, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CountState returns the number of keys in the namespace.
func (s *State) CountState() (int, error) {
	var n int
	err := s.pool.QueryRow(s.ctx, `SELECT count(*) FROM evault_world_state WHERE namespace=$1`, s.namespace).Scan(&n)
	return n, err
}
