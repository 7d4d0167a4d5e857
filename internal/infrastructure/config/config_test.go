package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
app:
  name: "huelink"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
discovery:
  mdns:
    enabled: true
    timeout: 2
  endpoint:
    url: "https://discovery.example.com"
dispatch:
  local_timeout_ms: 1500
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "127.0.0.1"
  port: 8580
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "huelink.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.Discovery.Endpoint.URL != "https://discovery.example.com" {
		t.Errorf("Discovery.Endpoint.URL = %q, want %q", cfg.Discovery.Endpoint.URL, "https://discovery.example.com")
	}

	if cfg.Dispatch.LocalTimeoutMS != 1500 {
		t.Errorf("Dispatch.LocalTimeoutMS = %d, want 1500", cfg.Dispatch.LocalTimeoutMS)
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/huelink.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "huelink.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: ""
api:
  port: 8580
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "huelink.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}

	if cfg.Database.Path == "" {
		t.Error("Defaults should have non-empty Database.Path")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return defaultConfig()
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing endpoint url",
			mutate:  func(c *Config) { c.Discovery.Endpoint.URL = "" },
			wantErr: true,
		},
		{
			name:    "mdns timeout zero while enabled",
			mutate:  func(c *Config) { c.Discovery.MDNS.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "mdns timeout zero while disabled",
			mutate: func(c *Config) {
				c.Discovery.MDNS.Enabled = false
				c.Discovery.MDNS.Timeout = 0
			},
			wantErr: false,
		},
		{
			name:    "pairing timeout negative",
			mutate:  func(c *Config) { c.Pairing.Timeout = -1 },
			wantErr: true,
		},
		{
			name:    "pairing timeout above link button window",
			mutate:  func(c *Config) { c.Pairing.Timeout = 31 },
			wantErr: true,
		},
		{
			name:    "dispatch timeout zero",
			mutate:  func(c *Config) { c.Dispatch.LocalTimeoutMS = 0 },
			wantErr: true,
		},
		{
			name: "relative redirect uri with client id",
			mutate: func(c *Config) {
				c.Remote.ClientID = "abc123"
				c.Remote.RedirectURI = "/callback"
			},
			wantErr: true,
		},
		{
			name: "relative redirect uri without client id",
			mutate: func(c *Config) {
				c.Remote.RedirectURI = "/callback"
			},
			wantErr: false,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "empty topic root while enabled",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.TopicRoot = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "monitor interval zero while enabled",
			mutate:  func(c *Config) { c.Monitor.Interval = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Dispatch: DispatchConfig{LocalTimeoutMS: 1000},
		Discovery: DiscoveryConfig{
			MDNS:     MDNSConfig{Timeout: 3},
			Endpoint: EndpointConfig{Timeout: 5},
		},
		Monitor: MonitorConfig{Interval: 10},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetLocalDispatchTimeout(); got != time.Second {
		t.Errorf("GetLocalDispatchTimeout() = %v, want 1s", got)
	}

	if got := cfg.GetMDNSTimeout(); got != 3*time.Second {
		t.Errorf("GetMDNSTimeout() = %v, want 3s", got)
	}

	if got := cfg.GetEndpointTimeout(); got != 5*time.Second {
		t.Errorf("GetEndpointTimeout() = %v, want 5s", got)
	}

	if got := cfg.GetMonitorInterval(); got != 10*time.Second {
		t.Errorf("GetMonitorInterval() = %v, want 10s", got)
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("HUELINK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("HUELINK_REMOTE_CLIENT_ID", "client-abc")
	t.Setenv("HUELINK_REMOTE_CLIENT_SECRET", "hunter2")
	t.Setenv("HUELINK_MQTT_HOST", "mqtt.example.com")
	t.Setenv("HUELINK_MQTT_USERNAME", "testuser")
	t.Setenv("HUELINK_MQTT_PASSWORD", "testpass")
	t.Setenv("HUELINK_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("HUELINK_API_HOST", "192.168.1.1")
	t.Setenv("HUELINK_LOGGING_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.Remote.ClientID != "client-abc" {
		t.Errorf("Remote.ClientID = %q, want %q", cfg.Remote.ClientID, "client-abc")
	}

	if cfg.Remote.ClientSecret != "hunter2" {
		t.Errorf("Remote.ClientSecret = %q, want %q", cfg.Remote.ClientSecret, "hunter2")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.App.Name != "huelink" {
		t.Errorf("defaultConfig App.Name = %q, want %q", cfg.App.Name, "huelink")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.Discovery.Endpoint.URL != "https://discovery.meethue.com" {
		t.Errorf("defaultConfig Discovery.Endpoint.URL = %q, want discovery.meethue.com", cfg.Discovery.Endpoint.URL)
	}

	if cfg.Dispatch.LocalTimeoutMS != 1000 {
		t.Errorf("defaultConfig Dispatch.LocalTimeoutMS = %d, want 1000", cfg.Dispatch.LocalTimeoutMS)
	}

	if cfg.Remote.APIBase != "https://api.meethue.com" {
		t.Errorf("defaultConfig Remote.APIBase = %q, want api.meethue.com", cfg.Remote.APIBase)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8580 {
		t.Errorf("defaultConfig API.Port = %d, want 8580", cfg.API.Port)
	}
}
