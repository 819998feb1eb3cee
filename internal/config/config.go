package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration, assembled from defaults, an
// optional mandato.yaml file, and MANDATO_* environment variables, in
// increasing order of precedence.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// AuthConfig controls authentication settings.
type AuthConfig struct {
	JWTSecret          string
	LoginRatePerMinute int
}

// StoreConfig selects and configures the backing database.
type StoreConfig struct {
	// Driver is one of "sqlite", "postgres", "mysql".
	Driver string
	// DSN is required for postgres and mysql.
	DSN string
	// DataDir holds the SQLite file; empty means in-memory.
	DataDir string
}

// RateLimitConfig controls the per-API-key fixed-window limiter on the
// public capture API.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	// AuditBuffer is the queue depth of the async usage log writer.
	AuditBuffer int
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// Init points viper at the config file (or the default search path) and
// enables MANDATO_* environment overrides. Call once at startup, before Load.
func Init(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mandato")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.mandato")
	}

	viper.SetEnvPrefix("MANDATO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}

// Load resolves the effective configuration from viper.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Host:            viper.GetString("server.host"),
			Port:            viper.GetInt("server.port"),
			ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
			CORSOrigins:     viper.GetStringSlice("server.cors_origins"),
		},
		Auth: AuthConfig{
			JWTSecret:          viper.GetString("auth.jwt_secret"),
			LoginRatePerMinute: viper.GetInt("auth.login_rate_per_minute"),
		},
		Store: StoreConfig{
			Driver:  viper.GetString("store.driver"),
			DSN:     viper.GetString("store.dsn"),
			DataDir: viper.GetString("store.data_dir"),
		},
		RateLimit: RateLimitConfig{
			Max:         viper.GetInt("rate_limit.max"),
			Window:      viper.GetDuration("rate_limit.window"),
			AuditBuffer: viper.GetInt("rate_limit.audit_buffer"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("auth.login_rate_per_minute", 10)
	viper.SetDefault("store.driver", "sqlite")
	viper.SetDefault("rate_limit.max", 100)
	viper.SetDefault("rate_limit.window", "1m")
	viper.SetDefault("rate_limit.audit_buffer", 256)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite":
	case "postgres", "mysql":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.RateLimit.Max < 1 {
		return fmt.Errorf("rate_limit.max must be at least 1, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Window < time.Second {
		return fmt.Errorf("rate_limit.window must be at least 1s, got %s", c.RateLimit.Window)
	}
	return nil
}
