// Package testhelpers provides containerized ledger infrastructure for
// integration testing.
//
// Tests that use it run under the "container" build tag and need a Docker
// daemon; testcontainers-go starts and removes the containers.
package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image the postgres world-state backend is tested against.
const PostgresImage = "postgres:16-alpine"

// PostgresContainer is a running Postgres instance for the postgres ledger backend.
//
// Example usage:
//
//	func TestWithPostgres(t *testing.T) {
//	    pg, cleanup := testhelpers.SetupPostgresContainer(t)
//	    defer cleanup()
//
//	    backend, err := pgstate.Open(ctx, pg.DSN)
//	    // ... test code ...
//	}
type PostgresContainer struct {
	t *testing.T

	// DSN connects to the test database with sslmode=disable.
	DSN string

	// Host and Port are the mapped address on the Docker host.
	Host string
	Port string

	Container testcontainers.Container
}

// SetupPostgresContainer starts Postgres and waits until it accepts
// connections. The container is terminated by the returned cleanup and,
// as a fallback, by t.Cleanup.
//
// Skip the test in short mode if Docker is not available:
//
//	if testing.Short() {
//	    t.Skip("Skipping container-based test in short mode")
//	}
func SetupPostgresContainer(t *testing.T) (*PostgresContainer, func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "evault",
			"POSTGRES_PASSWORD": "evault",
			"POSTGRES_DB":       "evault",
		},
		// The entrypoint restarts the server once after init, so the
		// readiness line appears twice.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}

	pc := &PostgresContainer{t: t, Container: container}

	var once bool
	cleanup := func() {
		if once {
			return
		}
		once = true
		t.Log("Terminating Postgres container...")
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate Postgres container: %v", err)
		}
	}
	t.Cleanup(cleanup)

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get Postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("Failed to get Postgres port: %v", err)
	}

	pc.Host = host
	pc.Port = port.Port()
	pc.DSN = fmt.Sprintf("postgres://evault:evault@%s:%s/evault?sslmode=disable", pc.Host, pc.Port)

	t.Logf("Postgres started: %s:%s", pc.Host, pc.Port)
	return pc, cleanup
}
