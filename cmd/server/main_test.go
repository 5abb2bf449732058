package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/rallylens/internal/analyzer/mock"
	"github.com/kiranshivaraju/rallylens/internal/api"
	"github.com/kiranshivaraju/rallylens/internal/config"
	"github.com/kiranshivaraju/rallylens/internal/job"
	"github.com/kiranshivaraju/rallylens/internal/metrics"
)

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	t.Setenv("RALLYLENS_ANALYZER_BASE_URL", "")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidRedisURL(t *testing.T) {
	t.Setenv("RALLYLENS_ANALYZER_BASE_URL", "http://localhost:5001/api")
	t.Setenv("RALLYLENS_REDIS_URL", "not-a-redis-url")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create redis cache")
}

// ─── dependency wiring tests ────────────────────────────────────────────────

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Analyzer.BaseURL = "http://localhost:5001/api"
	cfg.Upload.Dir = t.TempDir()
	return cfg
}

func TestDependencies_WithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	client := &mock.Client{}
	ctrl := job.NewController(client)
	t.Cleanup(func() { ctrl.Close() })

	deps := dependencies(cfg, ctrl, client, nil, metrics.NewManager())

	assert.Nil(t, deps.RateLimit)
	assert.Nil(t, deps.Cache)
	assert.False(t, deps.Auth.Enabled())
	assert.Equal(t, cfg.Upload.MaxBytes, deps.Spool.MaxBytes)

	router := api.NewRouter(deps)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"disabled"`)
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
