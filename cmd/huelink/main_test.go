package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/infrastructure/config"
)

// executeCommand runs the root command with the given args and captures
// its combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		// Flag values stick to package vars between executions.
		cfgFile = ""
		dispatchBridgeID = ""
		dispatchLocalOnly = false
		dispatchData = ""
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeTestConfig writes a minimal valid config into dir and returns
// its path. The optional extra block is appended verbatim.
func writeTestConfig(t *testing.T, dir, extra string) string {
	t.Helper()

	configPath := filepath.Join(dir, "huelink.yaml")
	dbPath := filepath.Join(dir, "huelink.db")

	configContent := `
database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

discovery:
  mdns:
    enabled: false
    timeout: 3
  endpoint:
    url: "https://discovery.meethue.com"
    timeout: 5

pairing:
  timeout: 30

dispatch:
  local_timeout_ms: 1000

mqtt:
  enabled: false
  qos: 1

influxdb:
  enabled: false

monitor:
  enabled: false

api:
  host: "127.0.0.1"
  port: 18580
  timeouts:
    read: 30
    write: 30
    idle: 60

logging:
  level: error
  format: text
  output: stderr
` + extra
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// TestLoadConfig_DefaultMissing verifies built-in defaults are used when
// the default config file does not exist.
func TestLoadConfig_DefaultMissing(t *testing.T) {
	originalEnv := os.Getenv("HUELINK_CONFIG")
	defer os.Setenv("HUELINK_CONFIG", originalEnv)
	os.Unsetenv("HUELINK_CONFIG")

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	defer os.Chdir(originalWD) //nolint:errcheck // restoring test state
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("changing directory: %v", err)
	}

	cfgFile = ""
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.API.Port != 8580 {
		t.Errorf("API.Port = %d, want default 8580", cfg.API.Port)
	}
	if cfg.Pairing.Timeout != 30 {
		t.Errorf("Pairing.Timeout = %d, want default 30", cfg.Pairing.Timeout)
	}
}

// TestLoadConfig_EnvOverride verifies HUELINK_CONFIG selects the file.
func TestLoadConfig_EnvOverride(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "")

	originalEnv := os.Getenv("HUELINK_CONFIG")
	defer os.Setenv("HUELINK_CONFIG", originalEnv)
	os.Setenv("HUELINK_CONFIG", configPath)

	cfgFile = ""
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.API.Port != 18580 {
		t.Errorf("API.Port = %d, want 18580 from file", cfg.API.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want %q from file", cfg.Logging.Level, "error")
	}
}

// TestLoadConfig_ExplicitMissing verifies that an explicitly named
// missing file is an error rather than a silent fallback.
func TestLoadConfig_ExplicitMissing(t *testing.T) {
	originalEnv := os.Getenv("HUELINK_CONFIG")
	defer os.Setenv("HUELINK_CONFIG", originalEnv)
	os.Unsetenv("HUELINK_CONFIG")

	cfgFile = "/nonexistent/path/huelink.yaml"
	defer func() { cfgFile = "" }()

	if _, err := loadConfig(); err == nil {
		t.Fatal("loadConfig() should fail for an explicit missing file")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "huelink") {
		t.Errorf("expected output to contain 'huelink', got: %s", out)
	}
}

func TestPairCommand_RequiresIP(t *testing.T) {
	if _, err := executeCommand(t, "pair"); err == nil {
		t.Fatal("pair without an ip should fail")
	}
}

func TestUpdateCommand_RequiresData(t *testing.T) {
	_, err := executeCommand(t, "update", "light", "abc")
	if err == nil {
		t.Fatal("update without --data should fail")
	}
	if !strings.Contains(err.Error(), "--data") {
		t.Errorf("error = %v, want mention of --data", err)
	}
}

// TestGetCommand_NoBridges runs the full command path against an empty
// database: config load, migrations, and bridge resolution.
func TestGetCommand_NoBridges(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "")

	_, err := executeCommand(t, "get", "light", "--config", configPath)
	if err == nil {
		t.Fatal("get with no paired bridges should fail")
	}
	if !strings.Contains(err.Error(), "no bridges paired") {
		t.Errorf("error = %v, want 'no bridges paired'", err)
	}
}

func TestBridgesListCommand_Empty(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "")

	out, err := executeCommand(t, "bridges", "list", "--config", configPath)
	if err != nil {
		t.Fatalf("bridges list failed: %v", err)
	}
	if !strings.Contains(out, "No bridges paired") {
		t.Errorf("output = %q, want 'No bridges paired'", out)
	}
}

func TestAuthStatusCommand_NoTokens(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "")

	out, err := executeCommand(t, "auth", "status", "--config", configPath)
	if err != nil {
		t.Fatalf("auth status failed: %v", err)
	}
	if !strings.Contains(out, "No tokens stored") {
		t.Errorf("output = %q, want 'No tokens stored'", out)
	}
}

func TestAuthLoginCommand_MissingCredentials(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "")

	_, err := executeCommand(t, "auth", "login", "--config", configPath)
	if err == nil {
		t.Fatal("auth login without client credentials should fail")
	}
	if !strings.Contains(err.Error(), "client_id") {
		t.Errorf("error = %v, want mention of client_id", err)
	}
}

func TestLoadData(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "body.json")
	if err := os.WriteFile(dataFile, []byte(`{"on":{"on":true}}`), 0600); err != nil {
		t.Fatalf("writing data file: %v", err)
	}

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"inline object", `{"on":{"on":true}}`, false},
		{"inline array", `[1,2,3]`, false},
		{"from file", "@" + dataFile, false},
		{"empty", "", true},
		{"invalid json", `{"on":`, true},
		{"missing file", "@/nonexistent/body.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := loadData(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("loadData() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadData() error = %v", err)
			}
			if len(raw) == 0 {
				t.Error("loadData() returned empty payload")
			}
		})
	}
}

func TestDispatchArgs(t *testing.T) {
	rtype, path := dispatchArgs(nil)
	if rtype != "" || path != "" {
		t.Errorf("dispatchArgs(nil) = (%q, %q), want empty", rtype, path)
	}

	rtype, path = dispatchArgs([]string{"light"})
	if rtype != "light" || path != "" {
		t.Errorf("dispatchArgs([light]) = (%q, %q)", rtype, path)
	}

	rtype, path = dispatchArgs([]string{"light", "abc-123"})
	if rtype != "light" || path != "abc-123" {
		t.Errorf("dispatchArgs([light abc-123]) = (%q, %q)", rtype, path)
	}
}

// fakeBridgeRepo is an in-memory Repository for resolveBridge tests.
type fakeBridgeRepo struct {
	bridges []bridge.Bridge
}

func (f *fakeBridgeRepo) Save(ctx context.Context, b *bridge.Bridge) error { return nil }

func (f *fakeBridgeRepo) GetByID(ctx context.Context, id string) (*bridge.Bridge, error) {
	for i := range f.bridges {
		if f.bridges[i].ID == id {
			return &f.bridges[i], nil
		}
	}
	return nil, bridge.ErrBridgeNotFound
}

func (f *fakeBridgeRepo) GetByIP(ctx context.Context, ip string) (*bridge.Bridge, error) {
	return nil, bridge.ErrBridgeNotFound
}

func (f *fakeBridgeRepo) List(ctx context.Context) ([]bridge.Bridge, error) {
	return f.bridges, nil
}

func (f *fakeBridgeRepo) Delete(ctx context.Context, id string) error { return nil }

func TestResolveBridge(t *testing.T) {
	ctx := context.Background()
	one := bridge.Bridge{ID: "b1", IPAddress: "192.168.1.10", ApplicationKey: "key"}
	two := bridge.Bridge{ID: "b2", IPAddress: "192.168.1.11", ApplicationKey: "key"}

	t.Run("no bridges", func(t *testing.T) {
		_, err := resolveBridge(ctx, &fakeBridgeRepo{}, "")
		if err == nil || !strings.Contains(err.Error(), "no bridges paired") {
			t.Fatalf("error = %v, want 'no bridges paired'", err)
		}
	})

	t.Run("single bridge used implicitly", func(t *testing.T) {
		b, err := resolveBridge(ctx, &fakeBridgeRepo{bridges: []bridge.Bridge{one}}, "")
		if err != nil {
			t.Fatalf("resolveBridge() error = %v", err)
		}
		if b.ID != "b1" {
			t.Errorf("ID = %q, want b1", b.ID)
		}
	})

	t.Run("several bridges demand a choice", func(t *testing.T) {
		_, err := resolveBridge(ctx, &fakeBridgeRepo{bridges: []bridge.Bridge{one, two}}, "")
		if err == nil || !strings.Contains(err.Error(), "--bridge") {
			t.Fatalf("error = %v, want mention of --bridge", err)
		}
	})

	t.Run("explicit id", func(t *testing.T) {
		b, err := resolveBridge(ctx, &fakeBridgeRepo{bridges: []bridge.Bridge{one, two}}, "b2")
		if err != nil {
			t.Fatalf("resolveBridge() error = %v", err)
		}
		if b.ID != "b2" {
			t.Errorf("ID = %q, want b2", b.ID)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := resolveBridge(ctx, &fakeBridgeRepo{bridges: []bridge.Bridge{one}}, "nope")
		if err == nil || !strings.Contains(err.Error(), "no saved bridge") {
			t.Fatalf("error = %v, want 'no saved bridge'", err)
		}
	})
}

func TestDeviceTypeFromConfig(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	cfg.App.Name = "huelink"
	cfg.App.DeviceName = "office"
	if got := deviceTypeFromConfig(cfg); got != "huelink#office" {
		t.Errorf("deviceTypeFromConfig() = %q, want %q", got, "huelink#office")
	}

	cfg.App.DeviceName = ""
	if got := deviceTypeFromConfig(cfg); got != "" {
		t.Errorf("deviceTypeFromConfig() = %q, want empty for hostname fallback", got)
	}
}

// TestRunServe_InvalidConfig verifies runServe fails with an invalid
// config path.
func TestRunServe_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("HUELINK_CONFIG")
	defer os.Setenv("HUELINK_CONFIG", originalEnv)
	os.Setenv("HUELINK_CONFIG", "/nonexistent/path/huelink.yaml")

	cfgFile = ""

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := runServe(ctx); err == nil {
		t.Fatal("runServe() should fail with invalid config path")
	}
}

// TestRunServe_StartupAndShutdown starts the daemon with every optional
// component disabled and waits for the context to wind it down.
func TestRunServe_StartupAndShutdown(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "")

	originalEnv := os.Getenv("HUELINK_CONFIG")
	defer os.Setenv("HUELINK_CONFIG", originalEnv)
	os.Setenv("HUELINK_CONFIG", configPath)

	cfgFile = ""

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := runServe(ctx); err != nil {
		t.Fatalf("runServe() error = %v", err)
	}
}
