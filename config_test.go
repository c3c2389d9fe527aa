package respd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "respd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfigFile(t, `
addr = "127.0.0.1:7000"
max_conns = 42
idle_timeout = "30s"
shutdown_timeout = "2s"
`)

	cfg, err := LoadServerConfig(path, ServerConfig{})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", cfg.Addr)
	require.Equal(t, 42, cfg.MaxConns)
	require.Equal(t, 30*time.Second, cfg.IdleTimeout)
	require.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestLoadServerConfigPartial(t *testing.T) {
	path := writeConfigFile(t, `max_conns = 7`)

	base := ServerConfig{Addr: "127.0.0.1:9999", IdleTimeout: time.Minute}
	cfg, err := LoadServerConfig(path, base)
	require.NoError(t, err)

	// Keys absent from the file keep the base values; the rest get
	// defaults.
	require.Equal(t, "127.0.0.1:9999", cfg.Addr)
	require.Equal(t, 7, cfg.MaxConns)
	require.Equal(t, time.Minute, cfg.IdleTimeout)
	require.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoadServerConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, ``)

	cfg, err := LoadServerConfig(path, ServerConfig{})
	require.NoError(t, err)
	require.Equal(t, DefaultAddr, cfg.Addr)
	require.Equal(t, DefaultMaxConns, cfg.MaxConns)
	require.Zero(t, cfg.IdleTimeout)
}

func TestLoadServerConfigBadDuration(t *testing.T) {
	path := writeConfigFile(t, `idle_timeout = "soon"`)

	_, err := LoadServerConfig(path, ServerConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "idle_timeout")
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.toml"), ServerConfig{})
	require.Error(t, err)
}

func TestLoadServerConfigNegative(t *testing.T) {
	path := writeConfigFile(t, `max_conns = -1`)

	_, err := LoadServerConfig(path, ServerConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "max_conns")
}

func TestServerConfigValidate(t *testing.T) {
	_, err := NewServer(ServerConfig{MaxConns: -5}, zerolog.Nop())
	require.Error(t, err)
}
