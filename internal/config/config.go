package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/rallylens/pkg/units"
)

const (
	envPrefix  = "RALLYLENS_"
	envConfig  = "RALLYLENS_CONFIG"
	defaultMiB = 1 << 20
)

// Config holds all configuration for the rallylens server. Keys are flat
// (e.g. analyzer_base_url); the nested structs only group related fields.
type Config struct {
	Server   ServerConfig   `koanf:",squash"`
	Analyzer AnalyzerConfig `koanf:",squash"`
	Redis    RedisConfig    `koanf:",squash"`
	Auth     AuthConfig     `koanf:",squash"`
	Court    CourtConfig    `koanf:",squash"`
	Upload   UploadConfig   `koanf:",squash"`
}

type ServerConfig struct {
	Port               int    `koanf:"port"`
	Env                string `koanf:"env"`
	LogLevel           string `koanf:"log_level"`
	RateLimitPerMinute int    `koanf:"rate_limit_per_minute"`
}

type AnalyzerConfig struct {
	BaseURL string `koanf:"analyzer_base_url"`
	// Timeout of zero leaves deadlines to the transport.
	Timeout      time.Duration `koanf:"analyzer_timeout"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

type RedisConfig struct {
	URL       string        `koanf:"redis_url"`
	ResultTTL time.Duration `koanf:"result_cache_ttl"`
}

type AuthConfig struct {
	APIKeyHash string `koanf:"api_key_hash"`
}

// CourtConfig selects the speed calibration. A zero PixelHeight keeps the
// fixed 30 px/m scale.
type CourtConfig struct {
	PixelHeight  float64 `koanf:"court_pixel_height"`
	LengthMeters float64 `koanf:"court_length_meters"`
}

type UploadConfig struct {
	Dir      string `koanf:"upload_dir"`
	MaxBytes int64  `koanf:"max_upload_bytes"`
}

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Defaults returns the configuration used before any file or env layer.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			Env:                "development",
			LogLevel:           "info",
			RateLimitPerMinute: 120,
		},
		Analyzer: AnalyzerConfig{
			PollInterval: 3 * time.Second,
		},
		Redis: RedisConfig{
			ResultTTL: 30 * time.Minute,
		},
		Court: CourtConfig{
			LengthMeters: units.DefaultCourtLengthMeters,
		},
		Upload: UploadConfig{
			Dir:      os.TempDir(),
			MaxBytes: 500 * defaultMiB,
		},
	}
}

// Load builds a validated Config by layering, low to high precedence:
//  1. Defaults()
//  2. YAML file named by RALLYLENS_CONFIG, if set
//  3. env vars prefixed RALLYLENS_ (RALLYLENS_POLL_INTERVAL -> poll_interval)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if _, ok := validLogLevels[c.Server.LogLevel]; !ok {
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.Server.RateLimitPerMinute)
	}

	if c.Analyzer.BaseURL == "" {
		return fmt.Errorf("RALLYLENS_ANALYZER_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Analyzer.BaseURL, "http://") && !strings.HasPrefix(c.Analyzer.BaseURL, "https://") {
		return fmt.Errorf("analyzer_base_url must start with http:// or https://, got %q", c.Analyzer.BaseURL)
	}
	if c.Analyzer.Timeout < 0 {
		return fmt.Errorf("analyzer_timeout must not be negative, got %s", c.Analyzer.Timeout)
	}
	if c.Analyzer.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.Analyzer.PollInterval)
	}

	if c.Redis.URL != "" && c.Redis.ResultTTL <= 0 {
		return fmt.Errorf("result_cache_ttl must be positive when redis_url is set, got %s", c.Redis.ResultTTL)
	}

	if c.Auth.APIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.APIKeyHash)); err != nil {
			return fmt.Errorf("api_key_hash is not a bcrypt hash: %w", err)
		}
	}

	if c.Court.PixelHeight < 0 {
		return fmt.Errorf("court_pixel_height must not be negative, got %g", c.Court.PixelHeight)
	}
	if c.Court.PixelHeight > 0 && c.Court.LengthMeters <= 0 {
		return fmt.Errorf("court_length_meters must be positive when court_pixel_height is set, got %g", c.Court.LengthMeters)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.Upload.MaxBytes)
	}

	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	return validLogLevels[c.Server.LogLevel]
}

// Calibration returns the speed calibration selected by the court settings.
func (c CourtConfig) Calibration() units.Calibration {
	if c.PixelHeight > 0 {
		return units.FromCourt(c.PixelHeight, c.LengthMeters)
	}
	return units.Fixed()
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != ""
}
