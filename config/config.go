package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Device      DeviceConfig      `yaml:"device"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	ActivityLog ActivityLogConfig `yaml:"activity_log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DeviceConfig holds the ESP32 link configuration. The base URL is injected
// here so tests can point the link at a fake device.
type DeviceConfig struct {
	BaseURL             string        `yaml:"base_url"`
	TimeoutSeconds      int           `yaml:"timeout_seconds"`
	Timeout             time.Duration `yaml:"-"` // Ignored by YAML parser
	PollEnabled         bool          `yaml:"poll_enabled"`
	PollIntervalSeconds int           `yaml:"poll_interval_seconds"`
	PollInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "sqlite" or "postgres"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig holds the signing secret and lifetime for login tokens.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// ActivityLogConfig points at the append-only log file written by the
// face-recognition client. The web layer only ever reads it.
type ActivityLogConfig struct {
	Path string `yaml:"path"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Device.TimeoutSeconds <= 0 {
		cfg.Device.TimeoutSeconds = 4
	}
	cfg.Device.Timeout = time.Duration(cfg.Device.TimeoutSeconds) * time.Second

	if cfg.Device.PollIntervalSeconds <= 0 {
		cfg.Device.PollIntervalSeconds = 2
	}
	cfg.Device.PollInterval = time.Duration(cfg.Device.PollIntervalSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "./monitor.sqlite"
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		log.Printf("auth.token_ttl_minutes is not set or invalid; defaulting to 60")
		cfg.Auth.TokenTTLMinutes = 60
	}

	if cfg.ActivityLog.Path == "" {
		cfg.ActivityLog.Path = "./activity_log.txt"
	}

	return &cfg, nil
}
