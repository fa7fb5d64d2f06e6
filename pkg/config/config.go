package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Auth struct {
		JWTSecret       string        `yaml:"jwt_secret"`
		AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"auth"`

	Session struct {
		// ResolveTimeout bounds the role-store lookup race. There is a single
		// timeout; the session never waits past it without a role being set.
		ResolveTimeout time.Duration `yaml:"resolve_timeout"`
		// PrivilegedEmail gets superadmin from the default rule when no role
		// record exists. Bootstrap convenience only, not an authorization
		// mechanism.
		PrivilegedEmail string `yaml:"privileged_email"`
	} `yaml:"session"`

	Notify struct {
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"notify"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Cache struct {
		ProgramTTL time.Duration `yaml:"program_ttl"`
	} `yaml:"cache"`

	Audit struct {
		// Batching trades read-after-write freshness of the trail for one
		// pipelined write per interval. Only applies to the Redis backend.
		BatchEnabled  bool          `yaml:"batch_enabled"`
		BatchSize     int           `yaml:"batch_size"`
		BatchInterval time.Duration `yaml:"batch_interval"`
	} `yaml:"audit"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"`
		} `yaml:"http"`
	} `yaml:"rate_limiting"`

	Backup struct {
		Enabled       bool          `yaml:"enabled"`
		Dir           string        `yaml:"dir"`
		Interval      time.Duration `yaml:"interval"`
		RetentionDays int           `yaml:"retention_days"`
	} `yaml:"backup"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("auth.refresh_token_ttl must be > auth.access_token_ttl")
	}

	// The resolve timeout must be finite and short enough that a user never
	// perceives a hang waiting for a role.
	if c.Session.ResolveTimeout <= 0 {
		return fmt.Errorf("session.resolve_timeout must be > 0")
	}
	if c.Session.ResolveTimeout > 30*time.Second {
		return fmt.Errorf("session.resolve_timeout must be <= 30s")
	}

	if c.Notify.PingInterval <= 0 {
		return fmt.Errorf("notify.ping_interval must be > 0")
	}
	if c.Notify.PongTimeout <= c.Notify.PingInterval {
		return fmt.Errorf("notify.pong_timeout must be > notify.ping_interval")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis is enabled")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0")
		}
	}

	if c.Audit.BatchEnabled {
		if c.Audit.BatchSize <= 0 {
			return fmt.Errorf("audit.batch_size must be > 0")
		}
		if c.Audit.BatchInterval <= 0 {
			return fmt.Errorf("audit.batch_interval must be > 0")
		}
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0")
		}
	}

	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			return fmt.Errorf("backup.dir must not be empty when backups are enabled")
		}
		if c.Backup.Interval <= 0 {
			return fmt.Errorf("backup.interval must be > 0")
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("backup.retention_days must be >= 0")
		}
	}

	return nil
}

// Load reads configuration from a yaml file, falling back to defaults when
// the file does not exist. Environment overrides are applied either way.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	cfg.Auth.AllowedOrigins = []string{"*"}

	cfg.Session.ResolveTimeout = 3 * time.Second
	cfg.Session.PrivilegedEmail = ""

	cfg.Notify.PingInterval = 30 * time.Second
	cfg.Notify.PongTimeout = 60 * time.Second
	cfg.Notify.WriteTimeout = 10 * time.Second

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "mswd-portal"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Cache.ProgramTTL = 30 * time.Second

	cfg.Audit.BatchEnabled = false
	cfg.Audit.BatchSize = 32
	cfg.Audit.BatchInterval = 500 * time.Millisecond

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	cfg.Backup.Enabled = false
	cfg.Backup.Dir = "./backups"
	cfg.Backup.Interval = 6 * time.Hour
	cfg.Backup.RetentionDays = 14

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("MSWD_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("MSWD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("MSWD_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if email := os.Getenv("MSWD_PRIVILEGED_EMAIL"); email != "" {
		c.Session.PrivilegedEmail = email
	}
	if addr := os.Getenv("MSWD_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
}
