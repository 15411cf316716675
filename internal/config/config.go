package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the server configuration, loaded from an HCL file.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `hcl:"listen_addr,optional"`

	// LogLevel is the hclog level name (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	// RequestTimeoutSeconds bounds every request, including its storage
	// calls; a request that exceeds it fails as retryable unavailable, never
	// as a partial mutation.
	RequestTimeoutSeconds int `hcl:"request_timeout_seconds,optional"`

	// Database is the database configuration.
	Database *Database `hcl:"database,block"`

	// Auth is the authentication configuration.
	Auth *Auth `hcl:"auth,block"`
}

// Database configures the storage engine.
type Database struct {
	// Driver is "postgres" or "sqlite".
	Driver string `hcl:"driver,optional"`

	// Postgres settings.
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`

	// Path is the SQLite database file.
	Path string `hcl:"path,optional"`
}

// Auth configures how callers are identified.
type Auth struct {
	// DevMode accepts a plain X-User-ID header instead of an API key.
	// Never enable outside local development.
	DevMode bool `hcl:"dev_mode,optional"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the zero-config setup: SQLite in the working directory,
// dev-mode auth, listening on localhost.
func Default() *Config {
	cfg := &Config{
		Database: &Database{
			Driver: "sqlite",
			Path:   "docvault.db",
		},
		Auth: &Auth{DevMode: true},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 30
	}
	if cfg.Database == nil {
		cfg.Database = &Database{}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Driver == "postgres" {
		if cfg.Database.Host == "" {
			cfg.Database.Host = "localhost"
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	}
	if cfg.Auth == nil {
		cfg.Auth = &Auth{}
	}
}

// Validate checks the configuration, aggregating every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Database.Driver {
	case "postgres":
		if c.Database.User == "" {
			result = multierror.Append(result,
				fmt.Errorf("database user is required for postgres"))
		}
		if c.Database.DBName == "" {
			result = multierror.Append(result,
				fmt.Errorf("database dbname is required for postgres"))
		}
	case "sqlite":
		if c.Database.Path == "" {
			result = multierror.Append(result,
				fmt.Errorf("database path is required for sqlite"))
		}
	default:
		result = multierror.Append(result,
			fmt.Errorf("unsupported database driver: %q", c.Database.Driver))
	}

	if c.RequestTimeoutSeconds < 0 {
		result = multierror.Append(result,
			fmt.Errorf("request_timeout_seconds must not be negative"))
	}

	return result.ErrorOrNil()
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
