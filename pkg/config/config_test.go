package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
	if cfg.Session.ResolveTimeout != 3*time.Second {
		t.Errorf("resolve_timeout default = %v, want 3s", cfg.Session.ResolveTimeout)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "empty server address",
			mutate: func(c *Config) {
				c.Server.Address = ""
			},
		},
		{
			name: "empty jwt secret",
			mutate: func(c *Config) {
				c.Auth.JWTSecret = ""
			},
		},
		{
			name: "zero resolve timeout",
			mutate: func(c *Config) {
				c.Session.ResolveTimeout = 0
			},
		},
		{
			name: "unbounded resolve timeout",
			mutate: func(c *Config) {
				c.Session.ResolveTimeout = time.Minute
			},
		},
		{
			name: "refresh ttl not above access ttl",
			mutate: func(c *Config) {
				c.Auth.RefreshTokenTTL = c.Auth.AccessTokenTTL
			},
		},
		{
			name: "redis enabled without address",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Address = ""
			},
		},
		{
			name: "rate limiting enabled with zero rps",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.HTTP.RequestsPerSecond = 0
			},
		},
		{
			name: "backups enabled without a directory",
			mutate: func(c *Config) {
				c.Backup.Enabled = true
				c.Backup.Dir = ""
			},
		},
		{
			name: "backups enabled with zero interval",
			mutate: func(c *Config) {
				c.Backup.Enabled = true
				c.Backup.Interval = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("address = %q, want :8080", cfg.Server.Address)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	raw := []byte(`
server:
  address: ":9999"
session:
  resolve_timeout: 5s
  privileged_email: "head.office@mswd.gov.ph"
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("address = %q, want :9999", cfg.Server.Address)
	}
	if cfg.Session.ResolveTimeout != 5*time.Second {
		t.Errorf("resolve_timeout = %v, want 5s", cfg.Session.ResolveTimeout)
	}
	if cfg.Session.PrivilegedEmail != "head.office@mswd.gov.ph" {
		t.Errorf("privileged_email = %q", cfg.Session.PrivilegedEmail)
	}
	// Untouched sections keep defaults.
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("access_token_ttl = %v, want default 15m", cfg.Auth.AccessTokenTTL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MSWD_PRIVILEGED_EMAIL", "root@example.org")
	t.Setenv("MSWD_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.PrivilegedEmail != "root@example.org" {
		t.Errorf("privileged_email = %q, want env override", cfg.Session.PrivilegedEmail)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}
