package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the bridge service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Modbus  ModbusConfig  `yaml:"modbus"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Poll    PollConfig    `yaml:"poll"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModbusConfig contains the transport settings for reaching the bridge.
type ModbusConfig struct {
	// Mode selects the transport: "rtu" or "tcp".
	Mode string `yaml:"mode"`

	// RTUDevice is the serial device path for rtu mode.
	RTUDevice string `yaml:"rtu_device"`
	// RTUBaud is the serial line speed for rtu mode.
	RTUBaud int `yaml:"rtu_baud"`
	// RTUParity is the serial parity for rtu mode: "N", "E" or "O".
	RTUParity string `yaml:"rtu_parity"`
	// RTUStopBits is the serial stop bit count for rtu mode.
	RTUStopBits int `yaml:"rtu_stop_bits"`

	// TCPHost and TCPPort locate a Modbus TCP gateway for tcp mode.
	TCPHost string `yaml:"tcp_host"`
	TCPPort int    `yaml:"tcp_port"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
	// Pace is the minimum gap between bus transactions in milliseconds.
	Pace int `yaml:"pace"`
}

// BridgeConfig contains the gateway addressing settings.
type BridgeConfig struct {
	// Slave is the Modbus address of the bridge. 0 uses the factory
	// default (207).
	Slave int `yaml:"slave"`
}

// PollConfig contains the node polling settings for serve mode.
type PollConfig struct {
	// Interval is the gap between polling rounds in seconds.
	Interval int `yaml:"interval"`
	// WithStatus also reads the freshness word of each register.
	WithStatus bool `yaml:"with_status"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	// Enabled turns state publication on or off in serve mode.
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	BaseTopic string              `yaml:"base_topic"`
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

// HistoryConfig contains snapshot history settings.
type HistoryConfig struct {
	// Enabled turns snapshot persistence on or off in serve mode.
	Enabled  bool           `yaml:"enabled"`
	Database DatabaseConfig `yaml:"database"`
	// RetentionDays is how long snapshots are kept before pruning.
	RetentionDays int `yaml:"retention_days"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
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
// Environment variables follow the pattern: AIRIOS_SECTION_KEY
// For example: AIRIOS_MODBUS_RTU_DEVICE, AIRIOS_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. It is also the base
// configuration when no config file is given.
func Default() *Config {
	return &Config{
		Modbus: ModbusConfig{
			Mode:        "rtu",
			RTUDevice:   "/dev/ttyUSB0",
			RTUBaud:     19200,
			RTUParity:   "E",
			RTUStopBits: 1,
			TCPHost:     "localhost",
			TCPPort:     502,
			Timeout:     5,
			Pace:        10,
		},
		Bridge: BridgeConfig{
			Slave: 207,
		},
		Poll: PollConfig{
			Interval:   30,
			WithStatus: true,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "airios-bridge",
			},
			QoS:       1,
			BaseTopic: "airios",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		History: HistoryConfig{
			Database: DatabaseConfig{
				Path:        "./data/airios.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AIRIOS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Modbus
	if v := os.Getenv("AIRIOS_MODBUS_MODE"); v != "" {
		cfg.Modbus.Mode = v
	}
	if v := os.Getenv("AIRIOS_MODBUS_RTU_DEVICE"); v != "" {
		cfg.Modbus.RTUDevice = v
	}
	if v := os.Getenv("AIRIOS_MODBUS_TCP_HOST"); v != "" {
		cfg.Modbus.TCPHost = v
	}

	// Bridge
	if v := os.Getenv("AIRIOS_BRIDGE_SLAVE"); v != "" {
		if slave, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.Slave = slave
		}
	}

	// MQTT
	if v := os.Getenv("AIRIOS_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("AIRIOS_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("AIRIOS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// History
	if v := os.Getenv("AIRIOS_HISTORY_DATABASE_PATH"); v != "" {
		cfg.History.Database.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Modbus validation
	switch c.Modbus.Mode {
	case "rtu":
		if c.Modbus.RTUDevice == "" {
			errs = append(errs, "modbus.rtu_device is required in rtu mode")
		}
		switch c.Modbus.RTUParity {
		case "N", "E", "O":
		default:
			errs = append(errs, "modbus.rtu_parity must be N, E or O")
		}
	case "tcp":
		if c.Modbus.TCPHost == "" {
			errs = append(errs, "modbus.tcp_host is required in tcp mode")
		}
		if c.Modbus.TCPPort < 1 || c.Modbus.TCPPort > 65535 {
			errs = append(errs, "modbus.tcp_port must be between 1 and 65535")
		}
	default:
		errs = append(errs, "modbus.mode must be rtu or tcp")
	}
	if c.Modbus.Pace < 0 {
		errs = append(errs, "modbus.pace must not be negative")
	}

	// Bridge validation
	if c.Bridge.Slave < 0 || c.Bridge.Slave > 247 {
		errs = append(errs, "bridge.slave must be between 0 and 247")
	}

	// Poll validation
	if c.Poll.Interval < 1 {
		errs = append(errs, "poll.interval must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.BaseTopic == "" {
		errs = append(errs, "mqtt.base_topic is required when mqtt is enabled")
	}

	// History validation
	if c.History.Enabled && c.History.Database.Path == "" {
		errs = append(errs, "history.database.path is required when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RequestTimeout returns the Modbus request timeout as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Modbus.Timeout) * time.Second
}

// PaceInterval returns the bus pacing gap as a Duration.
func (c *Config) PaceInterval() time.Duration {
	return time.Duration(c.Modbus.Pace) * time.Millisecond
}

// PollInterval returns the polling round gap as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Second
}

// Retention returns the snapshot retention window as a Duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}
