package respd

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAddr            = ":6380"
	DefaultMaxConns        = 1024
	DefaultShutdownTimeout = 5 * time.Second
)

// ServerConfig holds the settings of a Server. The zero value is usable
// after applyDefaults, which NewServer runs.
type ServerConfig struct {
	// Addr is the TCP listen address, host:port. Port 0 binds an
	// ephemeral port.
	Addr string

	// MaxConns caps concurrent client connections. Connections over the
	// limit are rejected with an error line.
	MaxConns int

	// IdleTimeout closes connections with no traffic for this long.
	// Zero disables the timeout.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds how long a cancelled server waits for
	// in-flight sessions.
	ShutdownTimeout time.Duration
}

func (c *ServerConfig) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxConns == 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func (c ServerConfig) validate() error {
	if c.MaxConns < 0 {
		return fmt.Errorf("respd: max_conns must not be negative, got %d", c.MaxConns)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("respd: idle_timeout must not be negative, got %s", c.IdleTimeout)
	}
	return nil
}

// fileConfig is the on-disk shape of the config. Durations are strings
// so the file can say "30s" rather than nanosecond counts.
type fileConfig struct {
	Addr            string `toml:"addr"`
	MaxConns        int    `toml:"max_conns"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// LoadServerConfig reads a TOML config file and merges it over base.
// Keys absent from the file keep their value in base.
func LoadServerConfig(path string, base ServerConfig) (ServerConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("respd: load config %s: %w", path, err)
	}

	cfg := base

	if meta.IsDefined("addr") {
		cfg.Addr = raw.Addr
	}
	if meta.IsDefined("max_conns") {
		cfg.MaxConns = raw.MaxConns
	}
	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(raw.IdleTimeout)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("respd: parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	if meta.IsDefined("shutdown_timeout") {
		d, err := time.ParseDuration(raw.ShutdownTimeout)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("respd: parse shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
