// Package analyzer is the HTTP client for the remote tennis analysis service.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// maxResultBytes bounds the statistics and rally documents read into memory.
const maxResultBytes = 32 << 20

// Client is the interface for talking to the analysis service.
type Client interface {
	Upload(ctx context.Context, src Source) (string, error)
	Status(ctx context.Context, videoID string) (models.StatusUpdate, error)
	Statistics(ctx context.Context, videoID string) ([]byte, error)
	Rallies(ctx context.Context, videoID string) ([]byte, error)
	Videos(ctx context.Context) ([]Video, error)
	Delete(ctx context.Context, videoID string) error
	Health(ctx context.Context) error
	Links(videoID string) models.MediaLinks
}

// Video is one entry of the analyzer's job listing.
type Video struct {
	ID      string `json:"video_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HTTPClient implements Client using the analyzer's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new analyzer client. A zero timeout leaves request
// deadlines to the caller's context and the transport defaults.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Upload streams src to POST /upload as the multipart field "video" and
// returns the issued video ID.
func (c *HTTPClient) Upload(ctx context.Context, src Source) (string, error) {
	file, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src.Name(), err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer file.Close()
		part, err := mw.CreateFormFile("video", src.Name())
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	var body uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := body.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("upload failed with status %d", resp.StatusCode)
		}
		return "", &UploadError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: "decoding upload response: " + decodeErr.Error()}
	}
	if body.VideoID == "" {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: "upload response carried no video_id"}
	}

	return body.VideoID, nil
}

// Status queries GET /status/{id}.
func (c *HTTPClient) Status(ctx context.Context, videoID string) (models.StatusUpdate, error) {
	resp, err := c.get(ctx, "/status/"+url.PathEscape(videoID))
	if err != nil {
		return models.StatusUpdate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.StatusUpdate{}, fmt.Errorf("%w: %w %s", ErrStatusQuery, ErrNotFound, videoID)
	}
	if resp.StatusCode != http.StatusOK {
		return models.StatusUpdate{}, fmt.Errorf("%w: status %d", ErrStatusQuery, resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.StatusUpdate{}, fmt.Errorf("%w: decoding status response: %v", ErrStatusQuery, err)
	}

	phase, err := phaseOf(body.Status)
	if err != nil {
		return models.StatusUpdate{}, err
	}

	return models.StatusUpdate{
		Phase:    phase,
		Message:  body.Message,
		Progress: body.Progress,
	}, nil
}

// Statistics fetches the raw statistics document of a completed job.
func (c *HTTPClient) Statistics(ctx context.Context, videoID string) ([]byte, error) {
	return c.fetchResult(ctx, "/results/"+url.PathEscape(videoID)+"/json")
}

// Rallies fetches the raw rally document of a completed job.
func (c *HTTPClient) Rallies(ctx context.Context, videoID string) ([]byte, error) {
	return c.fetchResult(ctx, "/results/"+url.PathEscape(videoID)+"/rallies")
}

// Videos lists every job the analyzer knows about.
func (c *HTTPClient) Videos(ctx context.Context) ([]Video, error) {
	resp, err := c.get(ctx, "/videos")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: listing videos: status %d", ErrStatusQuery, resp.StatusCode)
	}

	var body videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding videos response: %w", err)
	}
	if body.Videos == nil {
		return []Video{}, nil
	}
	return body.Videos, nil
}

// Delete removes a job and its artifacts from the analyzer.
func (c *HTTPClient) Delete(ctx context.Context, videoID string) error {
	u := c.baseURL + "/results/" + url.PathEscape(videoID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	if resp.StatusCode != http.StatusOK {
		var body errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error != "" {
			return fmt.Errorf("deleting %s: status %d: %s", videoID, resp.StatusCode, body.Error)
		}
		return fmt.Errorf("deleting %s: status %d", videoID, resp.StatusCode)
	}
	return nil
}

// Health checks GET /health.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: analyzer not healthy (status %d)", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// Links builds the media URLs for videoID. No request is made.
func (c *HTTPClient) Links(videoID string) models.MediaLinks {
	base := c.baseURL + "/results/" + url.PathEscape(videoID)
	return models.MediaLinks{
		Video:         base + "/video",
		VideoDownload: base + "/video/download",
		Excel:         base + "/excel",
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

func (c *HTTPClient) fetchResult(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResultFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrResultFetch, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrResultFetch, path, err)
	}
	return body, nil
}

// phaseOf maps an analyzer status string onto a job phase. The analyzer may
// report "uploading" while it is still saving the file; that is in flight
// from the client's view and is treated as processing.
func phaseOf(status string) (models.Phase, error) {
	switch status {
	case "uploading", "processing":
		return models.PhaseProcessing, nil
	case "completed":
		return models.PhaseCompleted, nil
	case "error":
		return models.PhaseError, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrStatusQuery, status)
	}
}

// --- analyzer response types ---

type uploadResponse struct {
	VideoID string `json:"video_id"`
	Error   string `json:"error"`
}

type statusResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Progress *int   `json:"progress"`
}

type videosResponse struct {
	Videos []Video `json:"videos"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
