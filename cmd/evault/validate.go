package main

import (
	"flag"
	"fmt"

	"github.com/sufield/evault/internal/config"
	"github.com/sufield/evault/internal/domain"
)

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Validate an eVAULT configuration file

USAGE:
    evault validate <config-file>

EXAMPLES:
    # Use in CI/CD pipelines
    if evault validate config/production.yaml; then
        echo "Configuration is valid"
    fi`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("config file path required")
	}

	path := fs.Arg(0)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Valid configuration: %s\n", path)
	fmt.Fprintln(stdout, "\nServer settings:")
	fmt.Fprintf(stdout, "  Listen address: %s\n", cfg.Server.ListenAddr)
	fmt.Fprintf(stdout, "  Max body size:  %s\n", cfg.Server.MaxBodySize)
	if cfg.Server.SPIRE.Enabled() {
		fmt.Fprintf(stdout, "  mTLS:           SPIRE at %s\n", cfg.Server.SPIRE.WorkloadSocket)
		if cfg.Server.SPIRE.AllowedClientSPIFFEID != "" {
			fmt.Fprintf(stdout, "    Allowed client: %s\n", cfg.Server.SPIRE.AllowedClientSPIFFEID)
		} else {
			fmt.Fprintf(stdout, "    Allowed domain: %s\n", cfg.Server.SPIRE.AllowedClientTrustDomain)
		}
	} else {
		fmt.Fprintln(stdout, "  mTLS:           disabled")
	}

	fmt.Fprintln(stdout, "\nLedger settings:")
	fmt.Fprintf(stdout, "  Backend: %s\n", cfg.Ledger.Backend)
	switch cfg.Ledger.Backend {
	case config.BackendFabric:
		fmt.Fprintf(stdout, "  Profiles: %s\n  Wallet:   %s\n", cfg.Ledger.ProfilesDir, cfg.Ledger.WalletDir)
	case config.BackendBadger:
		fmt.Fprintf(stdout, "  Directory: %s\n", cfg.Ledger.BadgerDir)
	}

	fmt.Fprintln(stdout, "\nRole bindings:")
	table := NewTableWriter([]string{"Role", "Org", "User", "Channel", "Contract"})
	for _, r := range domain.Roles() {
		b, _ := cfg.Role(r)
		table.AddRow([]string{r.String(), b.Org, b.User, b.Channel, b.Contract})
	}
	table.Print(stdout)
	return nil
}
