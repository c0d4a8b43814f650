package config

import (
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/sufield/evault/internal/domain"
)

const (
	defaultListenAddr          = ":8080"
	defaultMaxBodySize         = datasize.MB
	defaultShutdownTimeout     = 5 * time.Second
	defaultInitialFetchTimeout = 30 * time.Second
	defaultCacheTTL            = 5 * time.Minute
	defaultEvaluateTimeout     = 5 * time.Second
	defaultSubmitTimeout       = 15 * time.Second
	defaultDocumentsDir        = "./data/documents"
	defaultUser                = "admin"
	defaultContract            = "records"
)

// DefaultRoles returns the portal bindings used when the file leaves a role out.
func DefaultRoles() map[string]RoleBinding {
	return map[string]RoleBinding{
		domain.RoleLawyer.String():        {Org: "LawyersOrg", User: defaultUser, Channel: "lawyerschannel", Contract: defaultContract},
		domain.RoleJudge.String():         {Org: "JudgesOrg", User: defaultUser, Channel: "judgeschannel", Contract: defaultContract},
		domain.RoleRegistrar.String():     {Org: "RegistrarOrg", User: defaultUser, Channel: "registrarchannel", Contract: defaultContract},
		domain.RoleBenchClerk.String():    {Org: "BenchClerkOrg", User: defaultUser, Channel: "benchclerkchannel", Contract: defaultContract},
		domain.RoleStampReporter.String(): {Org: "StampReporterOrg", User: defaultUser, Channel: "stampreporterchannel", Contract: defaultContract},
	}
}

// applyDefaults fills unset fields. Partially set role bindings are
// completed field by field from the defaults.
func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaultListenAddr
	}
	if cfg.Server.MaxBodySize == "" {
		cfg.Server.MaxBodySize = defaultMaxBodySize.String()
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = BackendFabric
	}
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = defaultDocumentsDir
	}

	if cfg.Roles == nil {
		cfg.Roles = make(map[string]RoleBinding)
	}
	for name, def := range DefaultRoles() {
		b := cfg.Roles[name]
		if b.Org == "" {
			b.Org = def.Org
		}
		if b.User == "" {
			b.User = def.User
		}
		if b.Channel == "" {
			b.Channel = def.Channel
		}
		if b.Contract == "" {
			b.Contract = def.Contract
		}
		cfg.Roles[name] = b
	}

	// In-process backends enroll each role's default user when the file
	// declares no organizations.
	if len(cfg.Organizations) == 0 && cfg.Ledger.Backend != BackendFabric {
		cfg.Organizations = make(map[string]Organization)
		for _, b := range cfg.Roles {
			org := cfg.Organizations[b.Org]
			org.Users = append(org.Users, b.User)
			cfg.Organizations[b.Org] = org
		}
	}
}

// Default returns a configuration with every default applied for backend.
func Default(backend string) Config {
	cfg := Config{Ledger: LedgerSection{Backend: backend}}
	applyDefaults(&cfg)
	return cfg
}
