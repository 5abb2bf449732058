package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/kiranshivaraju/rallylens/internal/analyzer"
	"github.com/kiranshivaraju/rallylens/internal/api/response"
)

const videoField = "video"

// Spool stores uploaded videos on local disk until they are sent to the
// analyzer. Spooled files are selected as temporary, so the controller
// removes each one when it is replaced or closed.
type Spool struct {
	Dir      string
	MaxBytes int64
}

type selectResponse struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
	Phase    string `json:"phase"`
}

// NewSelectVideoHandler returns an http.HandlerFunc for POST /api/v1/video.
// The multipart "video" field is streamed to the spool directory and
// selected on ctrl. Nothing is sent to the analyzer yet.
func NewSelectVideoHandler(ctrl Controller, spool Spool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, spool.MaxBytes)

		mr, err := r.MultipartReader()
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart/form-data body", nil)
			return
		}

		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "video is required", nil)
				return
			}
			if err != nil {
				writeBodyError(w, err)
				return
			}
			if part.FormName() != videoField {
				part.Close()
				continue
			}

			name := filepath.Base(part.FileName())
			if part.FileName() == "" || name == "." || name == string(filepath.Separator) {
				part.Close()
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "video must be a file", nil)
				return
			}

			path, size, err := spoolPart(spool.Dir, name, part)
			part.Close()
			if err != nil {
				writeBodyError(w, err)
				return
			}

			if err := ctrl.SelectFile(analyzer.DiskFile{Path: path, DisplayName: name, Temporary: true}); err != nil {
				os.Remove(path)
				writeError(w, err)
				return
			}

			slog.Info("video spooled", "file", name, "path", path, "bytes", size)
			response.Created(w, selectResponse{
				FileName: name,
				Size:     size,
				Phase:    string(ctrl.Snapshot().Phase),
			})
			return
		}
	}
}

func spoolPart(dir, name string, src io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(dir, "rallylens-*"+filepath.Ext(name))
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), n, nil
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(w, http.StatusRequestEntityTooLarge, "VIDEO_TOO_LARGE", "Video exceeds the upload limit", nil)
		return
	}
	slog.Error("spooling upload failed", "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}
