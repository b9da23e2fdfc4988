package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
modbus:
  mode: "tcp"
  tcp_host: "gateway.local"
  tcp_port: 502
bridge:
  slave: 207
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
history:
  enabled: true
  database:
    path: "/tmp/test.db"
    wal_mode: true
    busy_timeout: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Modbus.Mode != "tcp" {
		t.Errorf("Modbus.Mode = %q, want %q", cfg.Modbus.Mode, "tcp")
	}

	if cfg.Modbus.TCPHost != "gateway.local" {
		t.Errorf("Modbus.TCPHost = %q, want %q", cfg.Modbus.TCPHost, "gateway.local")
	}

	if cfg.History.Database.Path != "/tmp/test.db" {
		t.Errorf("History.Database.Path = %q, want %q", cfg.History.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Unset fields keep their defaults.
	if cfg.Modbus.RTUBaud != 19200 {
		t.Errorf("Modbus.RTUBaud = %d, want default 19200", cfg.Modbus.RTUBaud)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
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
modbus:
  mode: "carrier-pigeon"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for bogus modbus mode, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func(mutate func(*Config)) *Config {
		cfg := Default()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid defaults",
			config:  Default(),
			wantErr: false,
		},
		{
			name:    "invalid mode",
			config:  valid(func(c *Config) { c.Modbus.Mode = "serial" }),
			wantErr: true,
		},
		{
			name:    "rtu without device",
			config:  valid(func(c *Config) { c.Modbus.RTUDevice = "" }),
			wantErr: true,
		},
		{
			name:    "invalid parity",
			config:  valid(func(c *Config) { c.Modbus.RTUParity = "X" }),
			wantErr: true,
		},
		{
			name: "tcp without host",
			config: valid(func(c *Config) {
				c.Modbus.Mode = "tcp"
				c.Modbus.TCPHost = ""
			}),
			wantErr: true,
		},
		{
			name: "invalid tcp port",
			config: valid(func(c *Config) {
				c.Modbus.Mode = "tcp"
				c.Modbus.TCPPort = 70000
			}),
			wantErr: true,
		},
		{
			name:    "bridge slave out of range",
			config:  valid(func(c *Config) { c.Bridge.Slave = 300 }),
			wantErr: true,
		},
		{
			name:    "poll interval zero",
			config:  valid(func(c *Config) { c.Poll.Interval = 0 }),
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			config:  valid(func(c *Config) { c.MQTT.QoS = 3 }),
			wantErr: true,
		},
		{
			name: "mqtt enabled without base topic",
			config: valid(func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.BaseTopic = ""
			}),
			wantErr: true,
		},
		{
			name: "history enabled without path",
			config: valid(func(c *Config) {
				c.History.Enabled = true
				c.History.Database.Path = ""
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Modbus:  ModbusConfig{Timeout: 5, Pace: 10},
		Poll:    PollConfig{Interval: 30},
		History: HistoryConfig{RetentionDays: 30},
	}

	if got := cfg.RequestTimeout().Seconds(); got != 5 {
		t.Errorf("RequestTimeout() = %v, want 5s", got)
	}

	if got := cfg.PaceInterval().Milliseconds(); got != 10 {
		t.Errorf("PaceInterval() = %v, want 10ms", got)
	}

	if got := cfg.PollInterval().Seconds(); got != 30 {
		t.Errorf("PollInterval() = %v, want 30s", got)
	}

	if got := cfg.Retention().Hours(); got != 30*24 {
		t.Errorf("Retention() = %v, want 720h", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	// Set environment variables
	t.Setenv("AIRIOS_MODBUS_MODE", "tcp")
	t.Setenv("AIRIOS_MODBUS_TCP_HOST", "192.168.1.50")
	t.Setenv("AIRIOS_BRIDGE_SLAVE", "42")
	t.Setenv("AIRIOS_MQTT_HOST", "mqtt.example.com")
	t.Setenv("AIRIOS_MQTT_USERNAME", "testuser")
	t.Setenv("AIRIOS_MQTT_PASSWORD", "testpass")
	t.Setenv("AIRIOS_HISTORY_DATABASE_PATH", "/custom/path.db")

	applyEnvOverrides(cfg)

	if cfg.Modbus.Mode != "tcp" {
		t.Errorf("Modbus.Mode = %q, want %q", cfg.Modbus.Mode, "tcp")
	}

	if cfg.Modbus.TCPHost != "192.168.1.50" {
		t.Errorf("Modbus.TCPHost = %q, want %q", cfg.Modbus.TCPHost, "192.168.1.50")
	}

	if cfg.Bridge.Slave != 42 {
		t.Errorf("Bridge.Slave = %d, want 42", cfg.Bridge.Slave)
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

	if cfg.History.Database.Path != "/custom/path.db" {
		t.Errorf("History.Database.Path = %q, want %q", cfg.History.Database.Path, "/custom/path.db")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Modbus.Mode != "rtu" {
		t.Errorf("Default Modbus.Mode = %q, want %q", cfg.Modbus.Mode, "rtu")
	}

	if cfg.Bridge.Slave != 207 {
		t.Errorf("Default Bridge.Slave = %d, want 207", cfg.Bridge.Slave)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.History.Database.Path == "" {
		t.Error("Default should have non-empty History.Database.Path")
	}
}
