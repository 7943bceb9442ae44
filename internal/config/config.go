package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend driver names
const (
	DriverREST     = "rest"
	DriverSupabase = "supabase"
	DriverLocal    = "local"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Backend    BackendConfig    `mapstructure:"backend" json:"backend"`
	Store      StoreConfig      `mapstructure:"store" json:"store"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" json:"monitoring"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" json:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" json:"idle_timeout"`
}

// BackendConfig selects and configures the data layer binding
type BackendConfig struct {
	Driver         string        `mapstructure:"driver" json:"driver"`
	RESTBaseURL    string        `mapstructure:"rest_base_url" json:"rest_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	SupabaseURL    string        `mapstructure:"supabase_url" json:"supabase_url"`
	SupabaseKey    string        `mapstructure:"supabase_key" json:"supabase_key"`
	Table          string        `mapstructure:"table" json:"table"`
	DataDir        string        `mapstructure:"data_dir" json:"data_dir"`
}

// StoreConfig holds jobs store configuration
type StoreConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval" json:"refresh_interval"`
	RecentLimit     int           `mapstructure:"recent_limit" json:"recent_limit"`
	ExcerptLength   int           `mapstructure:"excerpt_length" json:"excerpt_length"`
	SeedBatchSize   int           `mapstructure:"seed_batch_size" json:"seed_batch_size"`
	SeedRateLimit   int           `mapstructure:"seed_rate_limit" json:"seed_rate_limit"` // backend writes per minute, 0 = unlimited
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	LogLevel  string `mapstructure:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" json:"log_format"`
	LogFile   string `mapstructure:"log_file" json:"log_file"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Backend: BackendConfig{
			Driver:         DriverREST,
			RESTBaseURL:    "http://localhost:8000/api",
			RequestTimeout: 30 * time.Second,
			Table:          "jobs",
			DataDir:        "data",
		},
		Store: StoreConfig{
			RefreshInterval: 0,
			RecentLimit:     3,
			ExcerptLength:   90,
			SeedBatchSize:   50,
			SeedRateLimit:   0,
		},
		Monitoring: MonitoringConfig{
			Enabled:   true,
			LogLevel:  "info",
			LogFormat: "json",
			LogFile:   "",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("backend.driver", cfg.Backend.Driver)
	v.SetDefault("backend.rest_base_url", cfg.Backend.RESTBaseURL)
	v.SetDefault("backend.request_timeout", cfg.Backend.RequestTimeout)
	v.SetDefault("backend.supabase_url", cfg.Backend.SupabaseURL)
	v.SetDefault("backend.supabase_key", cfg.Backend.SupabaseKey)
	v.SetDefault("backend.table", cfg.Backend.Table)
	v.SetDefault("backend.data_dir", cfg.Backend.DataDir)
	v.SetDefault("store.refresh_interval", cfg.Store.RefreshInterval)
	v.SetDefault("store.recent_limit", cfg.Store.RecentLimit)
	v.SetDefault("store.excerpt_length", cfg.Store.ExcerptLength)
	v.SetDefault("store.seed_batch_size", cfg.Store.SeedBatchSize)
	v.SetDefault("store.seed_rate_limit", cfg.Store.SeedRateLimit)
	v.SetDefault("monitoring.enabled", cfg.Monitoring.Enabled)
	v.SetDefault("monitoring.log_level", cfg.Monitoring.LogLevel)
	v.SetDefault("monitoring.log_format", cfg.Monitoring.LogFormat)
	v.SetDefault("monitoring.log_file", cfg.Monitoring.LogFile)
}

// LoadConfig loads configuration from the given file.
// If filename is empty, it looks for config.{json,yaml} in ./config and the working directory.
// A missing file is not an error: defaults apply. Viper reports ConfigFileNotFoundError
// only for search-path lookups, so an explicit path is checked against fs.ErrNotExist.
// Environment variables with the JOBBOARD_ prefix override file values, and
// SUPABASE_URL / SUPABASE_KEY fill in the Supabase credentials.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if filename != "" {
		v.SetConfigFile(filename)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("JOBBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("backend.supabase_url", "JOBBOARD_BACKEND_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("backend.supabase_key", "JOBBOARD_BACKEND_SUPABASE_KEY", "SUPABASE_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case DriverREST:
		if c.Backend.RESTBaseURL == "" {
			return fmt.Errorf("rest base URL is required for the rest backend")
		}
	case DriverSupabase:
		if c.Backend.SupabaseURL == "" {
			return fmt.Errorf("supabase URL is required")
		}
		if c.Backend.SupabaseKey == "" {
			return fmt.Errorf("supabase key is required")
		}
		if c.Backend.Table == "" {
			return fmt.Errorf("supabase table is required")
		}
	case DriverLocal:
		if c.Backend.DataDir == "" {
			return fmt.Errorf("data dir is required for the local backend")
		}
	default:
		return fmt.Errorf("unknown backend driver %q (want rest, supabase or local)", c.Backend.Driver)
	}

	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Store.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval cannot be negative")
	}

	if c.Store.RecentLimit <= 0 {
		return fmt.Errorf("recent limit must be positive")
	}

	if c.Store.SeedBatchSize <= 0 {
		return fmt.Errorf("seed batch size must be positive")
	}

	if c.Store.SeedRateLimit < 0 {
		return fmt.Errorf("seed rate limit cannot be negative")
	}

	return nil
}
