package evault

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sufield/evault/internal/config"
)

func writeConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	body := "server:\n  listen_addr: \"127.0.0.1:0\"\n  shutdown_timeout: \"2s\"\n" +
		"ledger:\n  backend: " + backend + "\n  badger_dir: " + filepath.Join(dir, "badger") + "\n" +
		"documents:\n  dir: " + filepath.Join(dir, "docs") + "\n"
	path := filepath.Join(dir, "evault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	_, err := resolveConfigPath()
	assert.ErrorContains(t, err, "EVAULT_CONFIG environment variable not set")

	t.Setenv(config.EnvConfigPath, "/etc/evault.yaml")
	path, err := resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/evault.yaml", path)
}

func TestStart_MissingConfig(t *testing.T) {
	_, err := Start(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to load config")
}

func TestStartServer_RequiresEnv(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	_, err := StartServer()
	assert.Error(t, err)
}

func TestApp_Lifecycle(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, backend))
			require.NoError(t, err)

			app, err := New(context.Background(), cfg)
			require.NoError(t, err)
			require.NoError(t, app.Start())

			base := "http://" + app.Addr()
			resp, err := http.Post(base+"/api/lawyer/case/create", "application/json",
				strings.NewReader(`{"caseID":"1001","caseData":"lawyer 1001 value"}`))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			resp, err = http.Get(base + "/api/lawyer/case/1001")
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			var env struct {
				Success bool              `json:"success"`
				Data    map[string]string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(body, &env))
			assert.True(t, env.Success)
			assert.Equal(t, "lawyer 1001 value", env.Data["value"])

			require.NoError(t, app.Shutdown())
			require.NoError(t, app.Shutdown())
		})
	}
}

func TestStart_ShutdownIdempotent(t *testing.T) {
	shutdown, err := Start(writeConfig(t, config.BackendMemory))
	require.NoError(t, err)

	assert.NoError(t, shutdown())
	assert.NoError(t, shutdown())
}

func TestServe_StopsOnCancel(t *testing.T) {
	path := writeConfig(t, config.BackendMemory)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, path) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
