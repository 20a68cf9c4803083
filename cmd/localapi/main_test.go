package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/audit"
	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/host/sim"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/database"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("LOCALAPI_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidPort verifies validation errors stop startup.
func TestRun_InvalidPort(t *testing.T) {
	configPath := writeConfig(t, `
gateway:
  port: 80
database:
  path: ":memory:"
`)
	t.Setenv("LOCALAPI_CONFIG", configPath)

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() should fail with a privileged port")
	}
	if !strings.Contains(err.Error(), "port") {
		t.Errorf("error = %v, want mention of port", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("LOCALAPI_CONFIG", "")
	path, explicit := getConfigPath()
	if path != defaultConfigPath || explicit {
		t.Errorf("getConfigPath() = %q, %v; want %q, false", path, explicit, defaultConfigPath)
	}

	t.Setenv("LOCALAPI_CONFIG", "/etc/localapi.yaml")
	path, explicit = getConfigPath()
	if path != "/etc/localapi.yaml" || !explicit {
		t.Errorf("getConfigPath() = %q, %v; want /etc/localapi.yaml, true", path, explicit)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing default falls back", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "config.yaml")
		cfg, storePath, err := loadConfig(missing, false)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if storePath != "" {
			t.Errorf("storePath = %q, want empty", storePath)
		}
		if cfg.Gateway.Port != config.Default().Gateway.Port {
			t.Errorf("Port = %d, want default", cfg.Gateway.Port)
		}
	})

	t.Run("missing explicit fails", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "config.yaml")
		if _, _, err := loadConfig(missing, true); err == nil {
			t.Fatal("loadConfig() should fail for an explicit missing file")
		}
	})

	t.Run("file is loaded", func(t *testing.T) {
		path := writeConfig(t, `
gateway:
  port: 30001
`)
		cfg, storePath, err := loadConfig(path, false)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if storePath != path {
			t.Errorf("storePath = %q, want %q", storePath, path)
		}
		if cfg.Gateway.Port != 30001 {
			t.Errorf("Port = %d, want 30001", cfg.Gateway.Port)
		}
	})
}

// TestRun_ServesUntilCancelled starts the full binary on a free port,
// checks host-backed routes answer, posts a chat message, reads it back
// from /audit and checks it survived shutdown in the database.
func TestRun_ServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	dbPath := filepath.Join(t.TempDir(), "data", "waypoints.db")
	configPath := writeConfig(t, fmt.Sprintf(`
gateway:
  host: 127.0.0.1
  port: %d
endpoints:
  xaero.waypoint-sets: true
  chat.messages: true
  audit: true
logging:
  level: error
  output: stderr
database:
  path: %q
mqtt:
  enabled: false
influxdb:
  enabled: false
`, port, dbPath))
	t.Setenv("LOCALAPI_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForBanner(t, base, done)

	body := get(t, base+"/player/position")
	if strings.Count(body, ",") != 2 {
		t.Errorf("position = %q, want \"x, y, z\"", body)
	}

	body = get(t, base+"/xaero/waypoint-sets")
	if !strings.Contains(body, "gui.xaero_default") {
		t.Errorf("waypoint sets = %q, want the default set", body)
	}

	resp, err := http.Post(base+"/chat/messages", "text/plain", strings.NewReader("hello from a test"))
	if err != nil {
		t.Fatalf("POST /chat/messages: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /chat/messages = %d, want 200", resp.StatusCode)
	}

	// Audit entries are written in the background.
	deadline := time.Now().Add(5 * time.Second)
	for {
		body = get(t, base+"/audit?action=chat.message")
		if strings.Contains(body, "hello from a test") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("audit log = %s, want the posted message", body)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	db, err := database.Open(config.DatabaseConfig{Path: dbPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	defer db.Close()
	logs, err := audit.NewSQLiteRepository(db.DB).List(context.Background(), audit.Filter{Action: audit.ActionChatMessage})
	if err != nil {
		t.Fatalf("listing audit logs: %v", err)
	}
	if logs.Total != 1 || logs.Logs[0].Details["message"] != "hello from a test" {
		t.Errorf("audit logs = %+v, want the posted message", logs.Logs)
	}
}

type countingTicker struct {
	ticks atomic.Int32
}

func (c *countingTicker) Tick(h host.Host) {
	if h.PlayerPresent() {
		c.ticks.Add(1)
	}
}

func TestRunTicks(t *testing.T) {
	game := sim.New(config.Default().Sim, nil, logging.Discard())
	ticker := &countingTicker{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		runTicks(ctx, time.Millisecond, game, game, ticker)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for ticker.ticks.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if ticker.ticks.Load() < 5 {
		t.Fatalf("ticks = %d, want at least 5", ticker.ticks.Load())
	}
	if game.Ticks() < uint64(ticker.ticks.Load()) {
		t.Errorf("sim ticks = %d, want at least %d", game.Ticks(), ticker.ticks.Load())
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		rate int
		want time.Duration
	}{
		{20, 50 * time.Millisecond},
		{1, time.Second},
		{0, time.Second},
	}
	for _, tt := range tests {
		if got := tickInterval(tt.rate); got != tt.want {
			t.Errorf("tickInterval(%d) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func waitForBanner(t *testing.T, base string, done <-chan error) {
	t.Helper()
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			t.Fatalf("run() returned early: %v", err)
		default:
		}
		resp, err := client.Get(base + "/")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("gateway did not start")
}

func get(t *testing.T, url string) string {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s = %d: %s", url, resp.StatusCode, body)
	}
	return string(body)
}
