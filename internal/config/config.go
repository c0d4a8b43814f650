// Package config loads and validates the eVAULT YAML configuration file.
package config

import (
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/sufield/evault/internal/domain"
)

// Ledger backends.
const (
	BackendFabric   = "fabric"
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// SPIRESection enables SPIFFE mTLS on the REST facade when WorkloadSocket is set.
type SPIRESection struct {
	// WorkloadSocket is the SPIRE Agent's Workload API socket.
	// Example: "unix:///tmp/spire-agent/public/api.sock"
	WorkloadSocket string `yaml:"workload_socket"`

	// InitialFetchTimeout bounds the wait for the first SVID and bundle.
	InitialFetchTimeout string `yaml:"initial_fetch_timeout"`

	AllowedClientSPIFFEID    string `yaml:"allowed_client_spiffe_id"`
	AllowedClientTrustDomain string `yaml:"allowed_client_trust_domain"`
}

// Enabled reports whether mTLS is configured.
func (s SPIRESection) Enabled() bool {
	return s.WorkloadSocket != ""
}

// ServerSection configures the REST facade.
type ServerSection struct {
	ListenAddr      string       `yaml:"listen_addr"`
	MaxBodySize     string       `yaml:"max_body_size"`
	ShutdownTimeout string       `yaml:"shutdown_timeout"`
	SPIRE           SPIRESection `yaml:"spire"`
}

// LedgerSection selects and configures the ledger backend.
type LedgerSection struct {
	Backend string `yaml:"backend"`

	ProfilesDir     string `yaml:"profiles_dir"`
	WalletDir       string `yaml:"wallet_dir"`
	CacheTTL        string `yaml:"cache_ttl"`
	EvaluateTimeout string `yaml:"evaluate_timeout"`
	SubmitTimeout   string `yaml:"submit_timeout"`

	BadgerDir   string `yaml:"badger_dir"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// DocumentsSection configures the document store.
type DocumentsSection struct {
	Dir string `yaml:"dir"`
}

// RoleBinding is the organization, identity and contract a portal uses.
type RoleBinding struct {
	Org      string `yaml:"org"`
	User     string `yaml:"user"`
	Channel  string `yaml:"channel"`
	Contract string `yaml:"contract"`
}

// Organization lists the users enrolled in an organization. Only the
// in-process backends consult it; Fabric uses the wallet.
type Organization struct {
	Users []string `yaml:"users"`
}

// Config is the eVAULT configuration file.
//
// The format is versioned; Version is currently always 1.
type Config struct {
	Version int `yaml:"version,omitempty"`

	Server        ServerSection           `yaml:"server"`
	Ledger        LedgerSection           `yaml:"ledger"`
	Documents     DocumentsSection        `yaml:"documents"`
	Roles         map[string]RoleBinding  `yaml:"roles"`
	Organizations map[string]Organization `yaml:"organizations"`
	Debug         bool                    `yaml:"debug"`
}

// Role returns the binding for r.
func (c Config) Role(r domain.Role) (RoleBinding, bool) {
	b, ok := c.Roles[r.String()]
	return b, ok
}

// OrgUsers returns the organization table in the shape the local connector takes.
func (c Config) OrgUsers() map[string][]string {
	out := make(map[string][]string, len(c.Organizations))
	for name, org := range c.Organizations {
		out[name] = append([]string(nil), org.Users...)
	}
	return out
}

// MaxBodyBytes returns server.max_body_size in bytes.
// The value must have passed Validate.
func (c Config) MaxBodyBytes() int64 {
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(c.Server.MaxBodySize)); err != nil {
		return int64(defaultMaxBodySize.Bytes())
	}
	return int64(v.Bytes())
}

// ShutdownTimeout returns server.shutdown_timeout.
func (c Config) ShutdownTimeout() time.Duration {
	return durationOr(c.Server.ShutdownTimeout, defaultShutdownTimeout)
}

// InitialFetchTimeout returns server.spire.initial_fetch_timeout.
func (c Config) InitialFetchTimeout() time.Duration {
	return durationOr(c.Server.SPIRE.InitialFetchTimeout, defaultInitialFetchTimeout)
}

func (c Config) CacheTTL() time.Duration {
	return durationOr(c.Ledger.CacheTTL, defaultCacheTTL)
}

func (c Config) EvaluateTimeout() time.Duration {
	return durationOr(c.Ledger.EvaluateTimeout, defaultEvaluateTimeout)
}

func (c Config) SubmitTimeout() time.Duration {
	return durationOr(c.Ledger.SubmitTimeout, defaultSubmitTimeout)
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
