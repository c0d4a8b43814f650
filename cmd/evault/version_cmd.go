package main

import (
	"flag"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// trackedModules are the dependencies worth reporting in verbose output.
var trackedModules = []string{
	"github.com/hyperledger/fabric-gateway",
	"github.com/hyperledger/fabric-contract-api-go",
	"github.com/spiffe/go-spiffe/v2",
	"github.com/dgraph-io/badger/v4",
	"github.com/jackc/pgx/v5",
	"github.com/go-chi/chi/v5",
	"google.golang.org/grpc",
}

func versionCommand(v VersionInfo, args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("verbose", false, "Show Go runtime and key dependency versions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "evault %s (commit: %s, built: %s)\n", v.Version, v.Commit, v.Date)
	if !*verbose {
		return nil
	}

	fmt.Fprintf(stdout, "\nGo: %s %s/%s\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	table := NewTableWriter([]string{"Module", "Version"})
	deps := map[string]string{}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, d := range info.Deps {
			deps[d.Path] = d.Version
		}
	}
	for _, path := range trackedModules {
		ver := deps[path]
		if ver == "" {
			ver = "unknown"
		}
		table.AddRow([]string{strings.TrimPrefix(path, "github.com/"), ver})
	}
	table.Print(stdout)
	return nil
}
