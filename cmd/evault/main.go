package main

import (
	"fmt"
	"os"

	"github.com/sufield/evault/internal/debug"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	initDebug()

	registry := NewCommandRegistry(VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	registerCommands(registry)

	if err := registry.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initDebug turns on debug logging for every command when EVAULT_DEBUG is
// set. A config file with debug: true enables it later, in evault.New.
func initDebug() {
	debug.Init()
	debug.InitLogger()
}

func registerCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "serve",
		Description: "Serve the role portals' REST API",
		Usage:       "evault serve [--config file]",
		Examples: []string{
			"evault serve --config evault.yaml",
			"EVAULT_CONFIG=evault.yaml evault serve",
		},
		Run: serveCommand,
	})

	r.Register(&Command{
		Name:        "validate",
		Description: "Validate an eVAULT configuration file",
		Usage:       "evault validate <config-file>",
		Examples: []string{
			"evault validate evault.yaml",
		},
		Run: validateCommand,
	})

	r.Register(&Command{
		Name:        "record",
		Description: "Run one ledger record operation as a role",
		Usage:       "evault record <exists|create|read|update|delete|count> --config file --role role [id] [value]",
		Examples: []string{
			"evault record create --config evault.yaml --role lawyer 1001 'lawyer 1001 value'",
			"evault record read --config evault.yaml --role judge 1001",
			"evault record count --config evault.yaml --role registrar",
		},
		Run: recordCommand,
	})

	r.Register(&Command{
		Name:        "version",
		Description: "Show version information",
		Usage:       "evault version [--verbose]",
		Examples: []string{
			"evault version",
			"evault version --verbose",
		},
		Run: func(args []string) error { return versionCommand(r.version, args) },
	})

	r.Register(&Command{
		Name:        "help",
		Description: "Show help information",
		Usage:       "evault help [command]",
		Examples: []string{
			"evault help",
			"evault help record",
		},
		Run: func(args []string) error {
			return r.Execute(append([]string{"help"}, args...))
		},
	})
}
