// Package handler implements the HTTP endpoints of the rallylens API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/rallylens/internal/analyzer"
	"github.com/kiranshivaraju/rallylens/internal/api/response"
	"github.com/kiranshivaraju/rallylens/internal/job"
)

// Controller is the subset of *job.Controller the handlers drive.
type Controller interface {
	SelectFile(src analyzer.Source) error
	Submit(ctx context.Context) error
	ToggleRally(i int) error
	Snapshot() job.Snapshot
}

// Library lists and removes analyzer jobs.
type Library interface {
	Videos(ctx context.Context) ([]analyzer.Video, error)
	Delete(ctx context.Context, videoID string) error
}

// Pinger is anything with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Controller = (*job.Controller)(nil)
	_ Library    = (analyzer.Client)(nil)
)

// writeError maps controller and analyzer errors onto the error envelope.
func writeError(w http.ResponseWriter, err error) {
	var upErr *analyzer.UploadError
	switch {
	case errors.As(err, &upErr):
		response.Error(w, http.StatusUnprocessableEntity, "UPLOAD_REJECTED", upErr.Message, nil)
	case errors.Is(err, job.ErrNoFile):
		response.Error(w, http.StatusBadRequest, "NO_VIDEO_SELECTED", "Select a video before starting analysis", nil)
	case errors.Is(err, job.ErrJobInFlight):
		response.Error(w, http.StatusConflict, "ANALYSIS_IN_FLIGHT", "An analysis is already running", nil)
	case errors.Is(err, job.ErrNoResults):
		response.Error(w, http.StatusConflict, "RESULTS_NOT_READY", "Results are not loaded", nil)
	case errors.Is(err, job.ErrRallyIndex):
		response.Error(w, http.StatusNotFound, "RALLY_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, job.ErrClosed):
		response.Error(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Server is shutting down", nil)
	case errors.Is(err, analyzer.ErrNotFound):
		response.Error(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "Video not found", nil)
	case errors.Is(err, analyzer.ErrTimeout):
		response.Error(w, http.StatusGatewayTimeout, "ANALYZER_TIMEOUT",
			"The analyzer did not answer in time", nil)
	case errors.Is(err, analyzer.ErrUnreachable), errors.Is(err, analyzer.ErrStatusQuery):
		response.Error(w, http.StatusBadGateway, "ANALYZER_UNAVAILABLE",
			"The analyzer is not available", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
