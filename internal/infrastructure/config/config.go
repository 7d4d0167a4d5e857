package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for huelink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Pairing   PairingConfig   `yaml:"pairing"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Remote    RemoteConfig    `yaml:"remote"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AppConfig contains application identity settings.
type AppConfig struct {
	// Name is the application name used as the first half of the
	// devicetype sent during pairing (name#device).
	Name string `yaml:"name"`

	// DeviceName identifies this installation to the bridge and to the
	// remote authorisation consent page. Empty means derive from the
	// local hostname.
	DeviceName string `yaml:"device_name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// DiscoveryConfig contains bridge discovery settings for both transports.
type DiscoveryConfig struct {
	MDNS     MDNSConfig     `yaml:"mdns"`
	Endpoint EndpointConfig `yaml:"endpoint"`
}

// MDNSConfig contains multicast discovery settings.
type MDNSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	Domain  string `yaml:"domain"`
	Timeout int    `yaml:"timeout"`
}

// EndpointConfig contains cloud registry lookup settings.
type EndpointConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"`
}

// PairingConfig contains first-contact pairing settings.
type PairingConfig struct {
	// Timeout is the polling window in seconds. The bridge's link
	// button stays armed for 30 seconds, so values above that are
	// rejected by validation.
	Timeout int `yaml:"timeout"`
}

// DispatchConfig contains dispatch router settings.
type DispatchConfig struct {
	// LocalTimeoutMS bounds the local attempt before the router fails
	// over to the remote relay. The 1000 ms default assumes a LAN;
	// raise it on VPN or Wi-Fi mesh deployments.
	LocalTimeoutMS int `yaml:"local_timeout_ms"`

	// TLSVerify enables certificate verification for local bridge
	// connections. Bridges ship self-signed certificates, so this
	// defaults to false.
	TLSVerify bool `yaml:"tls_verify"`
}

// RemoteConfig contains Hue cloud and OAuth settings.
type RemoteConfig struct {
	APIBase        string `yaml:"api_base"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	RedirectURI    string `yaml:"redirect_uri"`
	CallbackListen string `yaml:"callback_listen"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	TopicRoot string              `yaml:"topic_root"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings for the serve daemon.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains websocket event feed settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MonitorConfig contains resource monitor settings.
type MonitorConfig struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HUELINK_SECTION_KEY
// For example: HUELINK_DATABASE_PATH, HUELINK_REMOTE_CLIENT_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Defaults returns the built-in configuration, validated, without
// reading any file. Used when no config file exists on disk.
func Defaults() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "huelink",
		},
		Database: DatabaseConfig{
			Path:        "./data/huelink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Discovery: DiscoveryConfig{
			MDNS: MDNSConfig{
				Enabled: true,
				Service: "_hue._tcp",
				Domain:  "local.",
				Timeout: 3,
			},
			Endpoint: EndpointConfig{
				URL:     "https://discovery.meethue.com",
				Timeout: 5,
			},
		},
		Pairing: PairingConfig{
			Timeout: 30,
		},
		Dispatch: DispatchConfig{
			LocalTimeoutMS: 1000,
		},
		Remote: RemoteConfig{
			APIBase:        "https://api.meethue.com",
			RedirectURI:    "http://127.0.0.1:8585/callback",
			CallbackListen: "127.0.0.1:8585",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "huelink",
			},
			QoS:       1,
			TopicRoot: "huelink",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8580,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HUELINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("HUELINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Remote credentials are the values most deployments keep out of
	// the config file.
	if v := os.Getenv("HUELINK_REMOTE_CLIENT_ID"); v != "" {
		cfg.Remote.ClientID = v
	}
	if v := os.Getenv("HUELINK_REMOTE_CLIENT_SECRET"); v != "" {
		cfg.Remote.ClientSecret = v
	}

	// MQTT
	if v := os.Getenv("HUELINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HUELINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HUELINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HUELINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("HUELINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Logging
	if v := os.Getenv("HUELINK_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Discovery validation
	if c.Discovery.Endpoint.URL == "" {
		errs = append(errs, "discovery.endpoint.url is required")
	}
	if c.Discovery.MDNS.Enabled && c.Discovery.MDNS.Timeout < 1 {
		errs = append(errs, "discovery.mdns.timeout must be at least 1 second")
	}

	// Pairing validation: the link button arms for at most 30 seconds.
	if c.Pairing.Timeout < 0 || c.Pairing.Timeout > 30 {
		errs = append(errs, "pairing.timeout must be between 0 and 30 seconds")
	}

	// Dispatch validation
	if c.Dispatch.LocalTimeoutMS < 1 {
		errs = append(errs, "dispatch.local_timeout_ms must be at least 1")
	}

	// Remote validation: only enforced once a client id is configured,
	// since purely local installations never touch the cloud.
	if c.Remote.ClientID != "" {
		if u, err := url.Parse(c.Remote.RedirectURI); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "remote.redirect_uri must be an absolute URL")
		}
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicRoot == "" {
		errs = append(errs, "mqtt.topic_root is required when mqtt is enabled")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Monitor validation
	if c.Monitor.Enabled && c.Monitor.Interval < 1 {
		errs = append(errs, "monitor.interval must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetLocalDispatchTimeout returns the dispatch local timeout as a Duration.
func (c *Config) GetLocalDispatchTimeout() time.Duration {
	return time.Duration(c.Dispatch.LocalTimeoutMS) * time.Millisecond
}

// GetMDNSTimeout returns the multicast discovery window as a Duration.
func (c *Config) GetMDNSTimeout() time.Duration {
	return time.Duration(c.Discovery.MDNS.Timeout) * time.Second
}

// GetEndpointTimeout returns the cloud registry lookup timeout as a Duration.
func (c *Config) GetEndpointTimeout() time.Duration {
	return time.Duration(c.Discovery.Endpoint.Timeout) * time.Second
}

// GetMonitorInterval returns the resource monitor poll interval as a Duration.
func (c *Config) GetMonitorInterval() time.Duration {
	return time.Duration(c.Monitor.Interval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
