package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/rallylens/internal/config"
	"github.com/kiranshivaraju/rallylens/pkg/units"
)

// setEnv is a helper that sets environment variables for a test and restores them after.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

// validEnv returns the minimum set of valid environment variables.
func validEnv() map[string]string {
	return map[string]string{
		"RALLYLENS_ANALYZER_BASE_URL": "http://localhost:5001/api",
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setEnv(t, validEnv())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "http://localhost:5001/api", cfg.Analyzer.BaseURL)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, validEnv())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 120, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, time.Duration(0), cfg.Analyzer.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Analyzer.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Redis.ResultTTL)
	assert.Equal(t, 0.0, cfg.Court.PixelHeight)
	assert.Equal(t, units.DefaultCourtLengthMeters, cfg.Court.LengthMeters)
	assert.Equal(t, int64(500<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, os.TempDir(), cfg.Upload.Dir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnv(t, validEnv())
	setEnv(t, map[string]string{
		"RALLYLENS_PORT":                  "9090",
		"RALLYLENS_ENV":                   "production",
		"RALLYLENS_LOG_LEVEL":             "debug",
		"RALLYLENS_POLL_INTERVAL":         "500ms",
		"RALLYLENS_ANALYZER_TIMEOUT":      "45s",
		"RALLYLENS_REDIS_URL":             "redis://localhost:6379",
		"RALLYLENS_RESULT_CACHE_TTL":      "1h",
		"RALLYLENS_RATE_LIMIT_PER_MINUTE": "10",
		"RALLYLENS_COURT_PIXEL_HEIGHT":    "600",
		"RALLYLENS_COURT_LENGTH_METERS":   "20",
		"RALLYLENS_MAX_UPLOAD_BYTES":      "1048576",
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.Analyzer.PollInterval)
	assert.Equal(t, 45*time.Second, cfg.Analyzer.Timeout)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, time.Hour, cfg.Redis.ResultTTL)
	assert.Equal(t, 10, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, 600.0, cfg.Court.PixelHeight)
	assert.Equal(t, int64(1<<20), cfg.Upload.MaxBytes)
	assert.True(t, cfg.CacheEnabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rallylens.yaml")
	yaml := "analyzer_base_url: https://analyzer.example.com/api\nport: 7070\npoll_interval: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("RALLYLENS_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://analyzer.example.com/api", cfg.Analyzer.BaseURL)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Analyzer.PollInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rallylens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analyzer_base_url: http://from-file/api\nport: 7070\n"), 0o600))
	t.Setenv("RALLYLENS_CONFIG", path)
	t.Setenv("RALLYLENS_PORT", "6060")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "http://from-file/api", cfg.Analyzer.BaseURL)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("RALLYLENS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestLoad_MissingAnalyzerBaseURL(t *testing.T) {
	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RALLYLENS_ANALYZER_BASE_URL")
}

func TestLoad_AnalyzerBaseURLMustStartWithHTTP(t *testing.T) {
	t.Setenv("RALLYLENS_ANALYZER_BASE_URL", "ftp://localhost:5001")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http:// or https://")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"port":          {"RALLYLENS_PORT", "70000", "port"},
		"log level":     {"RALLYLENS_LOG_LEVEL", "verbose", "log_level"},
		"poll interval": {"RALLYLENS_POLL_INTERVAL", "0s", "poll_interval"},
		"negative rate": {"RALLYLENS_RATE_LIMIT_PER_MINUTE", "-1", "rate_limit_per_minute"},
		"api key hash":  {"RALLYLENS_API_KEY_HASH", "plaintext", "api_key_hash"},
		"court height":  {"RALLYLENS_COURT_PIXEL_HEIGHT", "-5", "court_pixel_height"},
		"upload limit":  {"RALLYLENS_MAX_UPLOAD_BYTES", "0", "max_upload_bytes"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setEnv(t, validEnv())
			t.Setenv(tc.key, tc.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_CourtLengthRequiredWithHeight(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("RALLYLENS_COURT_PIXEL_HEIGHT", "720")
	t.Setenv("RALLYLENS_COURT_LENGTH_METERS", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "court_length_meters")
}

func TestLoad_BcryptAPIKeyHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("rl_secret"), bcrypt.MinCost)
	require.NoError(t, err)

	setEnv(t, validEnv())
	t.Setenv("RALLYLENS_API_KEY_HASH", string(hash))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, string(hash), cfg.Auth.APIKeyHash)
}

func TestCourtConfig_Calibration(t *testing.T) {
	fixed := config.CourtConfig{LengthMeters: units.DefaultCourtLengthMeters}
	assert.Equal(t, units.Fixed(), fixed.Calibration())

	court := config.CourtConfig{PixelHeight: 720, LengthMeters: 24}
	assert.Equal(t, units.DefaultPixelsPerMeter, court.Calibration().PixelsPerMeter)
}
