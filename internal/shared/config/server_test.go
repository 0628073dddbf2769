package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadServer_Defaults(t *testing.T) {
	cfg, err := LoadServer(writeConfig(t, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 4, cfg.Pool.Workers)
	assert.Equal(t, 64, cfg.Pool.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.Pool.ShutdownTimeout)
	assert.Equal(t, "static", cfg.Static.Root)
	assert.Equal(t, "404.html", cfg.Static.NotFound)
	assert.Equal(t, []Route{
		{Path: "/", File: "index.html"},
		{Path: "/about", File: "about.html"},
		{Path: "/contact", File: "contact.html"},
	}, cfg.Static.Routes)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, ":9090", cfg.Health.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadServer_File(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: 0.0.0.0:9000
  accept_rate: 50
pool:
  workers: 8
  queue_size: 0
  shutdown_timeout: 5s
static:
  root: /srv/pages
  routes:
    - path: /
      file: home.html
    - path: /docs/**
      file: docs.html
logging:
  level: debug
  format: text
`)

	cfg, err := LoadServer(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	assert.Equal(t, 50.0, cfg.HTTP.AcceptRate)
	assert.Equal(t, 8, cfg.Pool.Workers)
	assert.Equal(t, 0, cfg.Pool.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Pool.ShutdownTimeout)
	assert.Equal(t, "/srv/pages", cfg.Static.Root)
	require.Len(t, cfg.Static.Routes, 2)
	assert.Equal(t, Route{Path: "/docs/**", File: "docs.html"}, cfg.Static.Routes[1])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadServer_EnvOverride(t *testing.T) {
	t.Setenv("GOPOOL_SERVER_POOL_WORKERS", "12")
	t.Setenv("GOPOOL_SERVER_HTTP_ADDR", "127.0.0.1:7000")

	cfg, err := LoadServer(writeConfig(t, "pool:\n  workers: 2\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Pool.Workers)
	assert.Equal(t, "127.0.0.1:7000", cfg.HTTP.Addr)
}

func TestLoadServer_FlagOverride(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers", "6", "--addr", "127.0.0.1:8181"}))

	cfg, err := LoadServer(writeConfig(t, "pool:\n  workers: 2\n  queue_size: 10\n"), fs)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Pool.Workers)
	assert.Equal(t, "127.0.0.1:8181", cfg.HTTP.Addr)
	// Flags left unset keep file values.
	assert.Equal(t, 10, cfg.Pool.QueueSize)
}

func TestLoadServer_ZeroWorkersRejected(t *testing.T) {
	_, err := LoadServer(writeConfig(t, "pool:\n  workers: 0\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool.workers must be greater than 0")
}

func TestLoadServer_BadFile(t *testing.T) {
	_, err := LoadServer(writeConfig(t, "pool: [unclosed\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestServerConfig_Validate(t *testing.T) {
	valid := func() ServerConfig {
		return ServerConfig{
			HTTP: HTTPConfig{Addr: ":8080"},
			Pool: PoolConfig{Workers: 4, QueueSize: 8},
			Static: StaticConfig{Routes: []Route{
				{Path: "/", File: "index.html"},
			}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"valid", func(*ServerConfig) {}, ""},
		{"negative workers", func(c *ServerConfig) { c.Pool.Workers = -1 }, "pool.workers"},
		{"negative queue", func(c *ServerConfig) { c.Pool.QueueSize = -1 }, "pool.queue_size"},
		{"missing addr", func(c *ServerConfig) { c.HTTP.Addr = "" }, "http.addr"},
		{"negative rate", func(c *ServerConfig) { c.HTTP.AcceptRate = -2 }, "http.accept_rate"},
		{"relative route", func(c *ServerConfig) { c.Static.Routes[0].Path = "about" }, "must start with /"},
		{"missing file", func(c *ServerConfig) { c.Static.Routes[0].File = "" }, "file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
