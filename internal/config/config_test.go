package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, def.Backend.Driver, cfg.Backend.Driver)
	assert.Equal(t, 3, cfg.Store.RecentLimit)
	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeout)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"addr": ":9999"},
		"backend": {"driver": "local", "data_dir": "/tmp/jobs", "request_timeout": "5s"},
		"store": {"refresh_interval": "2m"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, DriverLocal, cfg.Backend.Driver)
	assert.Equal(t, "/tmp/jobs", cfg.Backend.DataDir)
	assert.Equal(t, 5*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Store.RefreshInterval)
	assert.Equal(t, "jobs", cfg.Backend.Table)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JOBBOARD_BACKEND_DRIVER", "supabase")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon-key")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, DriverSupabase, cfg.Backend.Driver)
	assert.Equal(t, "https://example.supabase.co", cfg.Backend.SupabaseURL)
	assert.Equal(t, "anon-key", cfg.Backend.SupabaseKey)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Backend.Driver = "mongo" }, "unknown backend driver"},
		{"rest without url", func(c *Config) { c.Backend.RESTBaseURL = "" }, "rest base URL"},
		{"supabase without url", func(c *Config) { c.Backend.Driver = DriverSupabase }, "supabase URL"},
		{"supabase without key", func(c *Config) {
			c.Backend.Driver = DriverSupabase
			c.Backend.SupabaseURL = "https://x.supabase.co"
		}, "supabase key"},
		{"local without dir", func(c *Config) {
			c.Backend.Driver = DriverLocal
			c.Backend.DataDir = ""
		}, "data dir"},
		{"zero timeout", func(c *Config) { c.Backend.RequestTimeout = 0 }, "request timeout"},
		{"negative refresh", func(c *Config) { c.Store.RefreshInterval = -time.Second }, "refresh interval"},
		{"zero recent limit", func(c *Config) { c.Store.RecentLimit = 0 }, "recent limit"},
		{"negative seed rate", func(c *Config) { c.Store.SeedRateLimit = -1 }, "seed rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
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
