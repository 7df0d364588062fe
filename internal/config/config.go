package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Session   SessionConfig   `yaml:"session"`
	Outbox    OutboxConfig    `yaml:"outbox"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type SessionConfig struct {
	// DefaultRestSeconds is the countdown started after each completed set.
	DefaultRestSeconds int `yaml:"default_rest_seconds"`
	// IdleTTLMinutes is how long an abandoned session lingers before the
	// janitor discards it.
	IdleTTLMinutes int `yaml:"idle_ttl_minutes"`
}

type OutboxConfig struct {
	Dir          string `yaml:"dir"`
	RetrySeconds int    `yaml:"retry_seconds"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// IdleTTL returns the session idle TTL as a duration, defaulting to 2 hours.
func (s SessionConfig) IdleTTL() time.Duration {
	if s.IdleTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// RetryInterval returns the outbox drain interval, defaulting to 30 seconds.
func (o OutboxConfig) RetryInterval() time.Duration {
	if o.RetrySeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.RetrySeconds) * time.Second
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix REPCOACH_ and underscore-separated
// paths:
//
//	REPCOACH_SERVER_HOST, REPCOACH_SERVER_PORT,
//	REPCOACH_DB_HOST, REPCOACH_DB_PORT, REPCOACH_DB_NAME,
//	REPCOACH_DB_USER, REPCOACH_DB_PASSWORD, REPCOACH_DB_SSLMODE,
//	REPCOACH_AUTH_API_KEY, REPCOACH_OUTBOX_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPCOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPCOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPCOACH_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPCOACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPCOACH_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPCOACH_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPCOACH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPCOACH_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPCOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPCOACH_OUTBOX_DIR"); v != "" {
		cfg.Outbox.Dir = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Session.DefaultRestSeconds < 0 {
		return fmt.Errorf("session.default_rest_seconds must not be negative")
	}
	return nil
}
