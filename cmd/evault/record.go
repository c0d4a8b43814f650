package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sufield/evault/internal/adapters/outbound/compose"
	"github.com/sufield/evault/internal/config"
	"github.com/sufield/evault/internal/domain"
	"github.com/sufield/evault/internal/ports"
	"github.com/sufield/evault/internal/recordstore"
)

// recordOps maps each subcommand to its ledger function and positional arity.
var recordOps = map[string]struct {
	fn    string
	nargs int
}{
	"exists": {recordstore.FnExists, 1},
	"create": {recordstore.FnCreate, 2},
	"read":   {recordstore.FnRead, 1},
	"update": {recordstore.FnUpdate, 2},
	"delete": {recordstore.FnDelete, 1},
	"count":  {recordstore.FnCount, 0},
}

func recordCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("record operation required (exists, create, read, update, delete, count)")
	}
	op, ok := recordOps[args[0]]
	if !ok {
		return fmt.Errorf("unknown record operation: %s", args[0])
	}

	fs := flag.NewFlagSet("record "+args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv(config.EnvConfigPath), "Path to the eVAULT config file (default $EVAULT_CONFIG)")
	roleName := fs.String("role", domain.RoleLawyer.String(), "Portal whose binding is used")
	user := fs.String("user", "", "Ledger user (default: the role's user)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *configPath == "" {
		return fmt.Errorf("--config or %s is required", config.EnvConfigPath)
	}
	if fs.NArg() != op.nargs {
		return fmt.Errorf("%s takes %d argument(s), got %d", args[0], op.nargs, fs.NArg())
	}

	role, err := domain.ParseRole(*roleName)
	if err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	binding, _ := cfg.Role(role)
	target := ports.Target{Org: binding.Org, User: binding.User, Channel: binding.Channel, Contract: binding.Contract}
	if *user != "" {
		target.User = *user
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connector, err := compose.NewConnector(ctx, cfg)
	if err != nil {
		return err
	}
	defer connector.Close()

	out, err := invokeOnce(ctx, connector, target, op.fn, fs.Args())
	if err != nil {
		return fmt.Errorf("%s failed: %w", op.fn, err)
	}

	if len(out) == 0 {
		fmt.Fprintln(stdout, "ok")
		return nil
	}
	fmt.Fprintln(stdout, string(out))
	return nil
}

// invokeOnce opens a session, makes one call and closes the session.
func invokeOnce(ctx context.Context, c ports.Connector, target ports.Target, fn string, args []string) ([]byte, error) {
	h, err := c.Connect(ctx, target)
	defer ports.Disconnect(h)
	if err != nil {
		return nil, err
	}
	if recordstore.IsSubmit(fn) {
		return h.Submit(ctx, fn, args...)
	}
	return h.Evaluate(ctx, fn, args...)
}
