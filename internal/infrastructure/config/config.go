package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Port range accepted for the gateway listener. Ports below 1025 need
// elevated privileges on most systems and are rejected.
const (
	MinPort = 1025
	MaxPort = 65535
)

// Config is the root configuration structure for the local API gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Stream    StreamConfig    `yaml:"stream"`
	Logging   LoggingConfig   `yaml:"logging"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Database  DatabaseConfig  `yaml:"database"`
	Sim       SimConfig       `yaml:"sim"`
}

// GatewayConfig contains HTTP listener settings.
type GatewayConfig struct {
	Host      string               `yaml:"host"`
	Port      int                  `yaml:"port"`
	AutoStart bool                 `yaml:"auto_start"`
	CORS      bool                 `yaml:"cors"`
	Gzip      bool                 `yaml:"gzip"`
	Timeouts  GatewayTimeoutConfig `yaml:"timeouts"`

	// ExplorerDir serves the GraphiQL page from disk instead of the
	// embedded copy when set and present.
	ExplorerDir string `yaml:"explorer_dir"`
}

// GatewayTimeoutConfig contains timeouts in seconds.
type GatewayTimeoutConfig struct {
	Read     int `yaml:"read"`
	Write    int `yaml:"write"`
	Idle     int `yaml:"idle"`
	Shutdown int `yaml:"shutdown"`
	// HostCall bounds how long a request waits for the host tick thread
	// to run a queued accessor call.
	HostCall int `yaml:"host_call"`
}

// EndpointsConfig maps a capability name to its enabled flag.
type EndpointsConfig map[string]bool

// StreamConfig contains position stream settings.
type StreamConfig struct {
	// DistanceThreshold is the distance (in blocks) the player must move
	// before a new position event is broadcast. Must be >= 0.
	DistanceThreshold float64 `yaml:"distance_threshold"`
	// CloseOnDisconnect closes every stream when the player leaves the world.
	CloseOnDisconnect bool `yaml:"close_on_disconnect"`
	// KeepAliveInterval is the SSE comment interval in seconds. 0 disables it.
	KeepAliveInterval int `yaml:"keepalive_interval"`
	// SendBuffer is the per-client event buffer. A client whose buffer is
	// full is treated as broken and evicted.
	SendBuffer int `yaml:"send_buffer"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
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

// DatabaseConfig contains SQLite settings for the simulated host's
// waypoint store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// SimConfig drives the simulated host used by the standalone binary.
type SimConfig struct {
	TickRate     int    `yaml:"tick_rate"`
	PlayerName   string `yaml:"player_name"`
	GameVersion  string `yaml:"game_version"`
	InitialWorld string `yaml:"initial_world"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LOCALAPI_SECTION_KEY
// For example: LOCALAPI_PORT, LOCALAPI_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

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

// DefaultEndpoints returns the built-in capability flags. Read capabilities
// are on; anything that writes into the host is off until the user opts in,
// and so is the audit log, which repeats what was written.
func DefaultEndpoints() EndpointsConfig {
	return EndpointsConfig{
		"player.position":        true,
		"player.world":           true,
		"player.position.stream": true,
		"screen":                 true,
		"mods":                   true,
		"chat.messages":          false,
		"chat.commands":          false,
		"xaero.waypoint-sets":    false,
		"graphql":                true,
		"graphiql":               true,
		"metrics":                true,
		"audit":                  false,
	}
}

// Default returns a Config with sensible defaults. Environment overrides
// are applied so a missing config file still honours them.
func Default() *Config {
	cfg := &Config{
		Gateway: GatewayConfig{
			Host:      "127.0.0.1",
			Port:      25566,
			AutoStart: true,
			CORS:      true,
			Gzip:      true,
			Timeouts: GatewayTimeoutConfig{
				Read:     15,
				Write:    0, // streams are long-lived
				Idle:     60,
				Shutdown: 10,
				HostCall: 5,
			},
		},
		Endpoints: DefaultEndpoints(),
		Stream: StreamConfig{
			DistanceThreshold: 1,
			CloseOnDisconnect: true,
			KeepAliveInterval: 15,
			SendBuffer:        64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "localapi",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "localapi",
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "localapi",
			Bucket:        "telemetry",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/waypoints.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Sim: SimConfig{
			TickRate:     20,
			PlayerName:   "Steve",
			GameVersion:  "1.21.1",
			InitialWorld: "minecraft:overworld",
		},
	}
	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LOCALAPI_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Gateway
	if v := os.Getenv("LOCALAPI_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := os.Getenv("LOCALAPI_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("LOCALAPI_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LOCALAPI_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LOCALAPI_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("LOCALAPI_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("LOCALAPI_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.Port < MinPort || c.Gateway.Port > MaxPort {
		errs = append(errs, fmt.Sprintf("gateway.port must be between %d and %d", MinPort, MaxPort))
	}
	if c.Gateway.Timeouts.HostCall <= 0 {
		errs = append(errs, "gateway.timeouts.host_call must be positive")
	}

	known := DefaultEndpoints()
	unknown := make([]string, 0)
	for name := range c.Endpoints {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, "unknown endpoints: "+strings.Join(unknown, ", "))
	}

	if d := c.Stream.DistanceThreshold; d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		errs = append(errs, "stream.distance_threshold must be a finite non-negative number")
	}
	if c.Stream.KeepAliveInterval < 0 {
		errs = append(errs, "stream.keepalive_interval must not be negative")
	}
	if c.Stream.SendBuffer < 1 {
		errs = append(errs, "stream.send_buffer must be at least 1")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Sim.TickRate < 1 {
		errs = append(errs, "sim.tick_rate must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Addr returns the listener address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}

// GetReadTimeout returns the gateway read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the gateway write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the gateway idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Idle) * time.Second
}

// GetShutdownTimeout returns the graceful shutdown timeout as a Duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.Shutdown) * time.Second
}

// GetHostCallTimeout returns how long a request may wait for the tick thread.
func (c *Config) GetHostCallTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeouts.HostCall) * time.Second
}

// GetKeepAliveInterval returns the SSE keepalive interval. Zero disables keepalives.
func (c *Config) GetKeepAliveInterval() time.Duration {
	return time.Duration(c.Stream.KeepAliveInterval) * time.Second
}
