package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/rallylens/internal/api/response"
)

// NewListVideosHandler returns an http.HandlerFunc for GET /api/v1/videos.
func NewListVideosHandler(lib Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := lib.Videos(r.Context())
		if err != nil {
			slog.Warn("listing videos failed", "error", err)
			writeError(w, err)
			return
		}
		response.Collection(w, videos, response.CollectionMeta{Total: len(videos)})
	}
}

// NewDeleteVideoHandler returns an http.HandlerFunc for
// DELETE /api/v1/videos/{videoID}.
func NewDeleteVideoHandler(lib Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := chi.URLParam(r, "videoID")
		if videoID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "video id is required", nil)
			return
		}

		if err := lib.Delete(r.Context(), videoID); err != nil {
			slog.Warn("deleting video failed", "video_id", videoID, "error", err)
			writeError(w, err)
			return
		}
		slog.Info("video deleted", "video_id", videoID)
		response.NoContent(w)
	}
}
