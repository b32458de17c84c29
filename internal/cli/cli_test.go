package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lynkbyte/evolution-bridge/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "worker", "install", "health", "instances", "send", "prune", "retry"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetArgs(args)
	if stdin != "" {
		root.SetIn(strings.NewReader(stdin))
	}
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

// --- install ---

func TestInstallCmd_WritesConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCmd(t, "http://evo.example.com:8080\nsecret-key\nsupport\n",
		"install", "--config", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `base_url: "http://evo.example.com:8080"`)
	assert.Contains(t, string(data), `api_key: "secret-key"`)
	assert.Contains(t, string(data), `instance: "support"`)

	// The generated file must round-trip through the loader.
	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, "http://evo.example.com:8080", cfg.Evolution.BaseURL)
	assert.Equal(t, "support", cfg.Evolution.Instance)
	assert.Equal(t, "/webhook/evolution", cfg.Webhook.Path)
}

func TestInstallCmd_EmptyAnswersPickDefaults(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCmd(t, "\n\n\n", "install", "--config", target)
	require.NoError(t, err)

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Evolution.BaseURL)
	assert.Empty(t, cfg.Evolution.APIKey)
}

func TestInstallCmd_RefusesToOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("server:\n  port: 9999\n"), 0o600))

	_, err := runCmd(t, "", "install", "--config", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// --force replaces it
	_, err = runCmd(t, "\n\n\n", "install", "--config", target, "--force")
	require.NoError(t, err)

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

// --- commands against a fake Evolution server ---

func fakeEvolutionServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `{"status":200,"message":"Welcome to the Evolution API","version":"2.1.1"}`)
		case "/instance/fetchInstances":
			fmt.Fprint(w, `[
				{"name":"support","connectionStatus":"open","ownerJid":"5511999999999@s.whatsapp.net","profileName":"Support"},
				{"name":"sales","connectionStatus":"close"}
			]`)
		case "/instance/connect/sales":
			fmt.Fprint(w, `{"pairingCode":"ABCD-1234","code":"2@abc","count":1}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func writeServerConfig(t *testing.T, baseURL string) string {
	t.Helper()
	target := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf("evolution:\n  base_url: %s\n  api_key: test-key\n", baseURL)
	require.NoError(t, os.WriteFile(target, []byte(content), 0o600))
	return target
}

func TestHealthCmd_PrintsServerSummary(t *testing.T) {
	srv := fakeEvolutionServer(t)
	defer srv.Close()
	target := writeServerConfig(t, srv.URL)

	out, err := runCmd(t, "", "health", "--config", target)
	require.NoError(t, err)

	assert.Contains(t, out, "2.1.1")
	assert.Contains(t, out, "Welcome to the Evolution API")
	assert.Contains(t, out, "2 (1 connected)")
}

func TestHealthCmd_ServerUnreachable(t *testing.T) {
	srv := fakeEvolutionServer(t)
	srv.Close()
	target := writeServerConfig(t, srv.URL)

	_, err := runCmd(t, "", "health", "--config", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server unreachable")
}

func TestHealthCmd_UnknownConnection(t *testing.T) {
	srv := fakeEvolutionServer(t)
	defer srv.Close()
	target := writeServerConfig(t, srv.URL)

	_, err := runCmd(t, "", "health", "--config", target, "--connection", "backup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestInstancesListCmd(t *testing.T) {
	srv := fakeEvolutionServer(t)
	defer srv.Close()
	target := writeServerConfig(t, srv.URL)

	out, err := runCmd(t, "", "instances", "list", "--config", target)
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "support")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "sales")
}

func TestInstancesConnectCmd(t *testing.T) {
	srv := fakeEvolutionServer(t)
	defer srv.Close()
	target := writeServerConfig(t, srv.URL)

	out, err := runCmd(t, "", "instances", "connect", "sales", "--config", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Pairing code: ABCD-1234")
}

// --- worker ---

func TestWorkerCmd_RejectsSyncQueue(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("queue:\n  connection: sync\n"), 0o600))

	_, err := runCmd(t, "", "worker", "--config", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing for a worker to consume")
}

// --- prune ---

func TestPruneCmd_RejectsNonPositiveDays(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(target, []byte("log:\n  level: error\n"), 0o600))

	_, err := runCmd(t, "", "prune", "--config", target, "--days", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--days must be positive")
}
