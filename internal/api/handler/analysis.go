package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/rallylens/internal/api/response"
	"github.com/kiranshivaraju/rallylens/internal/view"
)

// NewSubmitHandler returns an http.HandlerFunc for POST /api/v1/analysis.
// It uploads the selected video and answers 202 with the dashboard once the
// analyzer has accepted it. Polling continues in the background.
func NewSubmitHandler(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Submit(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		response.Accepted(w, view.Build(ctrl.Snapshot()))
	}
}

// NewDashboardHandler returns an http.HandlerFunc for GET /api/v1/analysis.
func NewDashboardHandler(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, view.Build(ctrl.Snapshot()))
	}
}

// NewToggleRallyHandler returns an http.HandlerFunc for
// POST /api/v1/rallies/{index}/toggle. Index is the zero-based position in
// the rally list, not the rally number.
func NewToggleRallyHandler(ctrl Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "index must be a non-negative integer", nil)
			return
		}

		if err := ctrl.ToggleRally(index); err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, view.Build(ctrl.Snapshot()))
	}
}
