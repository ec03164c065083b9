package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all MemoBloom configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Auth     AuthConfig     `yaml:"auth"`
	Media    MediaConfig    `yaml:"media"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite", "postgres", "supabase"; memories only
	Path   string `yaml:"path"`   // SQLite file; accounts and sessions always live here
	URL    string `yaml:"url"`    // Postgres connection string
}

type SupabaseConfig struct {
	URL         string `yaml:"url"`
	Key         string `yaml:"key"`
	MediaBucket string `yaml:"media_bucket"`
}

// Enabled reports whether a Supabase project is configured.
func (s SupabaseConfig) Enabled() bool {
	return s.URL != "" && s.Key != ""
}

type AuthConfig struct {
	Provider  string        `yaml:"provider"` // "local" or "supabase"
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type MediaConfig struct {
	Dir           string        `yaml:"dir"`
	PublicBaseURL string        `yaml:"public_base_url"`
	MaxBytes      int64         `yaml:"max_bytes"`
	SignedURLTTL  time.Duration `yaml:"signed_url_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:            "127.0.0.1",
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "", // resolved at runtime via store.DefaultDBPath()
		},
		Supabase: SupabaseConfig{
			MediaBucket: "memories",
		},
		Auth: AuthConfig{
			Provider: "local",
			Issuer:   "memobloom",
			TokenTTL: 24 * time.Hour,
		},
		Media: MediaConfig{
			Dir:          "", // resolved at runtime next to the database
			MaxBytes:     20 << 20,
			SignedURLTTL: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "memobloom",
		},
	}
}

// Load reads a YAML file over the defaults, then applies MEMOBLOOM_*
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("MEMOBLOOM_BIND", &c.Server.Bind)
	str("MEMOBLOOM_DB_DRIVER", &c.Database.Driver)
	str("MEMOBLOOM_DB_PATH", &c.Database.Path)
	str("MEMOBLOOM_DATABASE_URL", &c.Database.URL)
	str("MEMOBLOOM_SUPABASE_URL", &c.Supabase.URL)
	str("MEMOBLOOM_SUPABASE_KEY", &c.Supabase.Key)
	str("MEMOBLOOM_SUPABASE_BUCKET", &c.Supabase.MediaBucket)
	str("MEMOBLOOM_AUTH_PROVIDER", &c.Auth.Provider)
	str("MEMOBLOOM_JWT_SECRET", &c.Auth.JWTSecret)
	str("MEMOBLOOM_MEDIA_DIR", &c.Media.Dir)
	str("MEMOBLOOM_PUBLIC_URL", &c.Media.PublicBaseURL)
	str("MEMOBLOOM_LOG_LEVEL", &c.Log.Level)
	str("MEMOBLOOM_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("MEMOBLOOM_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEMOBLOOM_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("MEMOBLOOM_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v, ok := lookup("MEMOBLOOM_TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MEMOBLOOM_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v, ok := lookup("MEMOBLOOM_METRICS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MEMOBLOOM_METRICS: %w", err)
		}
		c.Metrics.Enabled = b
	}
	return nil
}

// Validate checks the settings that cannot be defaulted later.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres driver"))
		}
	case "supabase":
		if !c.Supabase.Enabled() {
			errs = append(errs, errors.New("supabase.url and supabase.key are required for the supabase driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: want sqlite, postgres or supabase", c.Database.Driver))
	}
	switch c.Auth.Provider {
	case "local":
	case "supabase":
		if !c.Supabase.Enabled() {
			errs = append(errs, errors.New("supabase.url and supabase.key are required for the supabase auth provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.provider %q: want local or supabase", c.Auth.Provider))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// BaseURL is the public base for media links: the configured value, or the
// listen address.
func (c *Config) BaseURL() string {
	if c.Media.PublicBaseURL != "" {
		return strings.TrimRight(c.Media.PublicBaseURL, "/")
	}
	return "http://" + c.ListenAddr()
}
