package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/sufield/evault/internal/domain"
)

// Validate checks a configuration after defaults are applied.
//
// Ensures:
//   - server.listen_addr is set and server.max_body_size parses and is positive
//   - every duration field parses
//   - the backend is known and its required settings are present
//   - every role has a complete binding
//   - when server.spire is set, exactly one client policy is set and valid
func Validate(cfg Config) error {
	if cfg.Server.ListenAddr == "" {
		return errors.New("server.listen_addr must be set")
	}

	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(cfg.Server.MaxBodySize)); err != nil {
		return fmt.Errorf("invalid server.max_body_size %q: %w", cfg.Server.MaxBodySize, err)
	}
	if size.Bytes() == 0 {
		return errors.New("server.max_body_size must be greater than zero")
	}

	durations := []struct {
		key, value string
	}{
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
		{"server.spire.initial_fetch_timeout", cfg.Server.SPIRE.InitialFetchTimeout},
		{"ledger.cache_ttl", cfg.Ledger.CacheTTL},
		{"ledger.evaluate_timeout", cfg.Ledger.EvaluateTimeout},
		{"ledger.submit_timeout", cfg.Ledger.SubmitTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, d.value, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.value)
		}
	}

	if err := validateLedger(cfg); err != nil {
		return err
	}

	for _, r := range domain.Roles() {
		b, ok := cfg.Role(r)
		if !ok {
			return fmt.Errorf("roles.%s must be set", r)
		}
		if b.Org == "" || b.User == "" || b.Channel == "" || b.Contract == "" {
			return fmt.Errorf("roles.%s must set org, user, channel and contract", r)
		}
	}
	for name := range cfg.Roles {
		if _, err := domain.ParseRole(name); err != nil {
			return fmt.Errorf("roles.%s: %w", name, err)
		}
	}

	if cfg.Server.SPIRE.Enabled() {
		if err := validateSPIRE(cfg.Server.SPIRE); err != nil {
			return err
		}
	}

	return nil
}

func validateLedger(cfg Config) error {
	switch cfg.Ledger.Backend {
	case BackendFabric:
		if cfg.Ledger.ProfilesDir == "" {
			return errors.New("ledger.profiles_dir must be set for the fabric backend")
		}
		if cfg.Ledger.WalletDir == "" {
			return errors.New("ledger.wallet_dir must be set for the fabric backend")
		}
	case BackendMemory:
	case BackendBadger:
		if cfg.Ledger.BadgerDir == "" {
			return errors.New("ledger.badger_dir must be set for the badger backend")
		}
	case BackendPostgres:
		if cfg.Ledger.PostgresDSN == "" {
			return errors.New("ledger.postgres_dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown ledger.backend %q (want fabric, memory, badger or postgres)", cfg.Ledger.Backend)
	}

	if cfg.Ledger.Backend != BackendFabric {
		for _, r := range domain.Roles() {
			b, _ := cfg.Role(r)
			if _, ok := cfg.Organizations[b.Org]; !ok {
				return fmt.Errorf("organizations.%s must be set for the %s backend (used by roles.%s)", b.Org, cfg.Ledger.Backend, r)
			}
		}
	}
	return nil
}

func validateSPIRE(s SPIRESection) error {
	hasClientID := s.AllowedClientSPIFFEID != ""
	hasTrustDomain := s.AllowedClientTrustDomain != ""

	if !hasClientID && !hasTrustDomain {
		return errors.New("must set exactly one of server.spire.allowed_client_spiffe_id or server.spire.allowed_client_trust_domain")
	}
	if hasClientID && hasTrustDomain {
		return errors.New("cannot set both server.spire.allowed_client_spiffe_id and server.spire.allowed_client_trust_domain")
	}

	if hasClientID {
		if _, err := spiffeid.FromString(s.AllowedClientSPIFFEID); err != nil {
			return fmt.Errorf("invalid server.spire.allowed_client_spiffe_id %q: %w", s.AllowedClientSPIFFEID, err)
		}
	}
	if hasTrustDomain {
		if _, err := spiffeid.TrustDomainFromString(s.AllowedClientTrustDomain); err != nil {
			return fmt.Errorf("invalid server.spire.allowed_client_trust_domain %q: %w", s.AllowedClientTrustDomain, err)
		}
	}
	return nil
}
