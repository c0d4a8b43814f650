package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sufield/evault/internal/debug"
)

// captureOutput redirects the CLI streams for the duration of a test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &out, &errOut
}

func newRegistry() *CommandRegistry {
	r := NewCommandRegistry(VersionInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"})
	registerCommands(r)
	return r
}

func badgerConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "ledger:\n  backend: badger\n  badger_dir: " + filepath.Join(dir, "ledger") + "\n" +
		"documents:\n  dir: " + filepath.Join(dir, "docs") + "\n"
	path := filepath.Join(dir, "evault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestExecute_Help(t *testing.T) {
	out, _ := captureOutput(t)
	r := newRegistry()

	require.NoError(t, r.Execute([]string{"help"}))
	for _, name := range []string{"serve", "validate", "record", "version"} {
		assert.Contains(t, out.String(), name)
	}

	err := r.Execute(nil)
	assert.EqualError(t, err, "no command specified")

	err = r.Execute([]string{"deploy"})
	assert.EqualError(t, err, "unknown command: deploy")
}

func TestRegistry_Lookup(t *testing.T) {
	r := newRegistry()

	cmd, ok := r.Lookup("record")
	require.True(t, ok)
	assert.Equal(t, "record", cmd.Name)

	_, ok = r.Lookup("deploy")
	assert.False(t, ok)
}

func TestInitDebug_FromEnvironment(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(prev)
		debug.Active = debug.Config{}
		debug.SetLogger(nil)
	})
	debug.SetLogger(nil)

	t.Setenv("EVAULT_DEBUG", "false")
	initDebug()
	assert.False(t, debug.Active.Enabled)
	debug.GetLogger().Debug("hidden")
	assert.Empty(t, buf.String())

	t.Setenv("EVAULT_DEBUG", "true")
	initDebug()
	assert.True(t, debug.Active.Enabled)
	debug.GetLogger().Debug("visible")
	assert.Contains(t, buf.String(), "[DEBUG] visible")
}

func TestExecute_HelpForCommand(t *testing.T) {
	_, errOut := captureOutput(t)
	r := newRegistry()

	require.NoError(t, r.Execute([]string{"help", "record"}))
	assert.Contains(t, errOut.String(), "evault record <exists|create|read|update|delete|count>")
}

func TestVersionCommand(t *testing.T) {
	out, _ := captureOutput(t)
	r := newRegistry()

	require.NoError(t, r.Execute([]string{"version"}))
	assert.Equal(t, "evault 1.2.3 (commit: abc123, built: 2026-01-01)\n", out.String())

	out.Reset()
	require.NoError(t, r.Execute([]string{"version", "--verbose"}))
	assert.Contains(t, out.String(), "hyperledger/fabric-gateway")
	assert.Contains(t, out.String(), "Go: ")
}

func TestValidateCommand(t *testing.T) {
	out, _ := captureOutput(t)
	r := newRegistry()

	path := badgerConfig(t)
	require.NoError(t, r.Execute([]string{"validate", path}))
	assert.Contains(t, out.String(), "✓ Valid configuration")
	assert.Contains(t, out.String(), "Backend: badger")
	assert.Contains(t, out.String(), "stampreporterchannel")

	assert.Error(t, r.Execute([]string{"validate"}))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("ledger:\n  backend: couchdb\n"), 0o600))
	err := r.Execute([]string{"validate", bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ledger.backend")
}

func TestRecordCommand_Lifecycle(t *testing.T) {
	out, _ := captureOutput(t)
	r := newRegistry()
	path := badgerConfig(t)

	run := func(args ...string) (string, error) {
		out.Reset()
		err := r.Execute(append([]string{"record"}, args...))
		return strings.TrimSpace(out.String()), err
	}

	got, err := run("exists", "--config", path, "1001")
	require.NoError(t, err)
	assert.Equal(t, "false", got)

	got, err = run("create", "--config", path, "1001", "lawyer 1001 value")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	got, err = run("read", "--config", path, "1001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"lawyer 1001 value"}`, got)

	_, err = run("create", "--config", path, "1001", "again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run("update", "--config", path, "1001", "new value")
	require.NoError(t, err)
	got, err = run("read", "--config", path, "1001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"new value"}`, got)

	got, err = run("count", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	got, err = run("exists", "--config", path, "--role", "judge", "1001")
	require.NoError(t, err)
	assert.Equal(t, "false", got, "judge portal uses its own channel")

	_, err = run("delete", "--config", path, "1001")
	require.NoError(t, err)

	_, err = run("read", "--config", path, "1001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRecordCommand_Errors(t *testing.T) {
	captureOutput(t)
	r := newRegistry()
	path := badgerConfig(t)

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"no operation", nil, "record operation required"},
		{"unknown operation", []string{"purge"}, "unknown record operation: purge"},
		{"wrong arity", []string{"create", "--config", path, "1001"}, "create takes 2 argument(s), got 1"},
		{"unknown role", []string{"read", "--config", path, "--role", "bailiff", "1"}, "unknown role"},
		{"unknown user", []string{"read", "--config", path, "--user", "nobody", "1"}, "identity not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EVAULT_CONFIG", "")
			err := r.Execute(append([]string{"record"}, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestTableWriter(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTableWriter([]string{"Role", "Org"})
	tw.AddRow([]string{"stampreporter", "StampReporterOrg"})
	tw.Print(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "│ stampreporter │ StampReporterOrg │", lines[3])
}
