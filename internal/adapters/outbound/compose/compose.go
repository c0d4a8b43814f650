package compose

import (
	"context"
	"fmt"

	"github.com/sufield/evault/internal/adapters/outbound/badgerstate"
	"github.com/sufield/evault/internal/adapters/outbound/docstore"
	"github.com/sufield/evault/internal/adapters/outbound/fabric"
	"github.com/sufield/evault/internal/adapters/outbound/inmemory"
	"github.com/sufield/evault/internal/adapters/outbound/local"
	"github.com/sufield/evault/internal/adapters/outbound/pgstate"
	"github.com/sufield/evault/internal/config"
	"github.com/sufield/evault/internal/ports"
)

// NewConnector returns the ledger connector for cfg.Ledger.Backend.
// The caller owns the connector and must Close it.
func NewConnector(ctx context.Context, cfg config.Config) (ports.Connector, error) {
	switch cfg.Ledger.Backend {
	case config.BackendFabric:
		c, err := fabric.NewConnector(fabric.Config{
			ProfilesDir:     cfg.Ledger.ProfilesDir,
			WalletDir:       cfg.Ledger.WalletDir,
			CacheTTL:        cfg.CacheTTL(),
			EvaluateTimeout: cfg.EvaluateTimeout(),
			SubmitTimeout:   cfg.SubmitTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return c, nil

	case config.BackendMemory:
		return newLocal(inmemory.NewBackend(), cfg), nil

	case config.BackendBadger:
		backend, err := badgerstate.Open(cfg.Ledger.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger ledger: %w", err)
		}
		return newLocal(backend, cfg), nil

	case config.BackendPostgres:
		backend, err := pgstate.Open(ctx, cfg.Ledger.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres ledger: %w", err)
		}
		return newLocal(backend, cfg), nil

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func newLocal(backend local.Backend, cfg config.Config) *local.Connector {
	c := local.NewConnector(backend, cfg.OrgUsers())
	c.SetName(cfg.Ledger.Backend)
	return c
}

// NewDocumentStore opens the document store at cfg.Documents.Dir.
func NewDocumentStore(cfg config.Config) (*docstore.Store, error) {
	return docstore.New(cfg.Documents.Dir)
}
