package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/rallylens/internal/api/response"
)

// HealthChecker reports whether the analyzer answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler checks analyzer and, when configured, cache connectivity.
// A nil cache is reported as "disabled".
func NewHealthHandler(a HealthChecker, c Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"analyzer": "ok",
			"cache":    "disabled",
		}

		degraded := false
		if err := a.Health(r.Context()); err != nil {
			checks["analyzer"] = "degraded"
			degraded = true
		}
		if c != nil {
			checks["cache"] = "ok"
			if err := c.Ping(r.Context()); err != nil {
				checks["cache"] = "degraded"
				degraded = true
			}
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
