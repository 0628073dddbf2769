package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig contains all configuration for the static page server.
type ServerConfig struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Pool    PoolConfig    `mapstructure:"pool"`
	Static  StaticConfig  `mapstructure:"static"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig contains listener configuration.
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AcceptRate   float64       `mapstructure:"accept_rate"`
	AcceptBurst  int           `mapstructure:"accept_burst"`
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Route maps a request path, or a doublestar pattern, to a file under the static root.
type Route struct {
	Path string `mapstructure:"path"`
	File string `mapstructure:"file"`
}

// StaticConfig contains the page table.
type StaticConfig struct {
	Root     string  `mapstructure:"root"`
	NotFound string  `mapstructure:"not_found"`
	Routes   []Route `mapstructure:"routes"`
}

// MetricsConfig contains Prometheus endpoint configuration. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// HealthConfig contains gRPC health server configuration. An empty Addr disables it.
type HealthConfig struct {
	Addr             string        `mapstructure:"addr"`
	EnableReflection bool          `mapstructure:"enable_reflection"`
	KeepaliveMinTime time.Duration `mapstructure:"keepalive_min_time"`
}

// Flag names accepted by BindFlags, mapped to their config keys.
var flagKeys = map[string]string{
	"addr":       "http.addr",
	"workers":    "pool.workers",
	"queue-size": "pool.queue_size",
	"static-dir": "static.root",
	"log-level":  "logging.level",
}

// BindFlags registers command-line overrides for the most common settings.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "address to listen on")
	fs.Int("workers", 0, "number of pool workers")
	fs.Int("queue-size", 0, "pool queue capacity")
	fs.String("static-dir", "", "directory holding the static pages")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.accept_rate", 0)
	v.SetDefault("http.accept_burst", 64)
	v.SetDefault("pool.workers", 4)
	v.SetDefault("pool.queue_size", 64)
	v.SetDefault("pool.shutdown_timeout", 30*time.Second)
	v.SetDefault("static.root", "static")
	v.SetDefault("static.not_found", "404.html")
	v.SetDefault("static.routes", []map[string]string{
		{"path": "/", "file": "index.html"},
		{"path": "/about", "file": "about.html"},
		{"path": "/contact", "file": "contact.html"},
	})
	v.SetDefault("metrics.addr", ":9100")
	v.SetDefault("health.addr", ":9090")
	v.SetDefault("health.enable_reflection", true)
	v.SetDefault("health.keepalive_min_time", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
}

// LoadServer loads the server configuration from the given path.
// If configPath is empty, it looks for server.yaml in the config/ directory.
// Environment variables with GOPOOL_SERVER_ prefix override config file values,
// and flags set on fs (see BindFlags) override both. fs may be nil.
func LoadServer(configPath string, fs *pflag.FlagSet) (*ServerConfig, error) {
	v := viper.New()
	setServerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("server")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("GOPOOL_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("error binding flag %s: %w", name, err)
			}
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports configuration errors that must stop startup.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Pool.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pool.workers must be greater than 0, got %d", c.Pool.Workers))
	}
	if c.Pool.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("pool.queue_size must not be negative, got %d", c.Pool.QueueSize))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.AcceptRate < 0 {
		errs = append(errs, fmt.Errorf("http.accept_rate must not be negative, got %v", c.HTTP.AcceptRate))
	}
	for i, r := range c.Static.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			errs = append(errs, fmt.Errorf("static.routes[%d].path must start with /, got %q", i, r.Path))
		}
		if r.File == "" {
			errs = append(errs, fmt.Errorf("static.routes[%d].file is required", i))
		}
	}
	return errors.Join(errs...)
}
