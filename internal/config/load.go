package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable that points at the config file.
const EnvConfigPath = "EVAULT_CONFIG"

// Load reads an eVAULT configuration file, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse reads the file at path and applies environment overrides and
// defaults without validating.
func Parse(path string) (Config, error) {
	var cfg Config

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - Config file path is trusted (from admin/user)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// applyEnvOverrides overrides file values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if addr := os.Getenv("EVAULT_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if backend := os.Getenv("EVAULT_LEDGER_BACKEND"); backend != "" {
		cfg.Ledger.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if dsn := os.Getenv("EVAULT_POSTGRES_DSN"); dsn != "" {
		cfg.Ledger.PostgresDSN = dsn
	}
	if v := os.Getenv("EVAULT_DEBUG"); v != "" {
		enabled, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EVAULT_DEBUG %q: %w", v, err)
		}
		cfg.Debug = enabled
	}
	return nil
}

// parseBool accepts "true", "1", "yes", "on" and "false", "0", "no", "off".
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", value)
	}
}
