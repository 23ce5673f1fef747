// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"medpredict/logging"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gte=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"gte=0"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type ArtifactsConfig struct {
	Dir      string        `yaml:"dir" validate:"required"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

type CacheConfig struct {
	// Size is the number of memoised prediction results; 0 disables the cache.
	Size int `yaml:"size" validate:"gte=0"`
}

type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"omitempty,oneof=console json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// Logging converts the log section for logging.Init.
func (l LogConfig) Logging() logging.Config {
	return logging.Config{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
	}
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5000,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
		},
		Artifacts: ArtifactsConfig{
			Dir:      "models",
			Watch:    true,
			Debounce: 500 * time.Millisecond,
		},
		Cache: CacheConfig{Size: 1024},
		Database: DatabaseConfig{
			Enabled: false,
			Path:    "data/predictions.db",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults, applies MEDPREDICT_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	integer("MEDPREDICT_PORT", &cfg.Server.Port)
	if v, ok := lookup("MEDPREDICT_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	str("MEDPREDICT_ARTIFACT_DIR", &cfg.Artifacts.Dir)
	boolean("MEDPREDICT_ARTIFACT_WATCH", &cfg.Artifacts.Watch)
	integer("MEDPREDICT_CACHE_SIZE", &cfg.Cache.Size)
	boolean("MEDPREDICT_DB_ENABLED", &cfg.Database.Enabled)
	str("MEDPREDICT_DB_PATH", &cfg.Database.Path)
	str("MEDPREDICT_LOG_LEVEL", &cfg.Log.Level)
	str("MEDPREDICT_LOG_FORMAT", &cfg.Log.Format)
	str("MEDPREDICT_LOG_FILE", &cfg.Log.File)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
