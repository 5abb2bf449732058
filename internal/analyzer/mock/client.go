// Package mock provides an in-memory analyzer.Client for tests.
package mock

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/kiranshivaraju/rallylens/internal/analyzer"
	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// Client satisfies analyzer.Client. Each call is counted; a nil Func field
// returns a zero value.
type Client struct {
	UploadFunc     func(ctx context.Context, src analyzer.Source) (string, error)
	StatusFunc     func(ctx context.Context, videoID string) (models.StatusUpdate, error)
	StatisticsFunc func(ctx context.Context, videoID string) ([]byte, error)
	RalliesFunc    func(ctx context.Context, videoID string) ([]byte, error)
	VideosFunc     func(ctx context.Context) ([]analyzer.Video, error)
	DeleteFunc     func(ctx context.Context, videoID string) error
	HealthFunc     func(ctx context.Context) error

	mu    sync.Mutex
	calls map[string]int
	order []string
}

func (m *Client) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
	m.order = append(m.order, name)
}

// Calls returns how many times the named method was invoked.
func (m *Client) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// Order returns method names in invocation order.
func (m *Client) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *Client) Upload(ctx context.Context, src analyzer.Source) (string, error) {
	m.record("Upload")
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, src)
	}
	return "", nil
}

func (m *Client) Status(ctx context.Context, videoID string) (models.StatusUpdate, error) {
	m.record("Status")
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, videoID)
	}
	return models.StatusUpdate{}, nil
}

func (m *Client) Statistics(ctx context.Context, videoID string) ([]byte, error) {
	m.record("Statistics")
	if m.StatisticsFunc != nil {
		return m.StatisticsFunc(ctx, videoID)
	}
	return []byte(`{}`), nil
}

func (m *Client) Rallies(ctx context.Context, videoID string) ([]byte, error) {
	m.record("Rallies")
	if m.RalliesFunc != nil {
		return m.RalliesFunc(ctx, videoID)
	}
	return []byte(`{"rallies":[]}`), nil
}

func (m *Client) Videos(ctx context.Context) ([]analyzer.Video, error) {
	m.record("Videos")
	if m.VideosFunc != nil {
		return m.VideosFunc(ctx)
	}
	return []analyzer.Video{}, nil
}

func (m *Client) Delete(ctx context.Context, videoID string) error {
	m.record("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, videoID)
	}
	return nil
}

func (m *Client) Health(ctx context.Context) error {
	m.record("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *Client) Links(videoID string) models.MediaLinks {
	base := "http://analyzer.test/api/results/" + videoID
	return models.MediaLinks{
		Video:         base + "/video",
		VideoDownload: base + "/video/download",
		Excel:         base + "/excel",
	}
}

// NewScriptedClient returns a Client that accepts any upload as videoID and
// answers status polls with script in order, repeating the last entry once
// the script is exhausted.
func NewScriptedClient(videoID string, script ...models.StatusUpdate) *Client {
	var mu sync.Mutex
	next := 0
	return &Client{
		UploadFunc: func(context.Context, analyzer.Source) (string, error) {
			return videoID, nil
		},
		StatusFunc: func(context.Context, string) (models.StatusUpdate, error) {
			mu.Lock()
			defer mu.Unlock()
			if len(script) == 0 {
				return models.StatusUpdate{Phase: models.PhaseProcessing}, nil
			}
			upd := script[next]
			if next < len(script)-1 {
				next++
			}
			return upd, nil
		},
	}
}

// Processing builds a processing status update with the given progress.
func Processing(progress int) models.StatusUpdate {
	return models.StatusUpdate{Phase: models.PhaseProcessing, Message: "Running tennis analysis...", Progress: &progress}
}

// Completed builds a completed status update.
func Completed() models.StatusUpdate {
	p := 100
	return models.StatusUpdate{Phase: models.PhaseCompleted, Message: "Analysis complete!", Progress: &p}
}

// Failed builds an error status update.
func Failed(message string) models.StatusUpdate {
	p := 0
	return models.StatusUpdate{Phase: models.PhaseError, Message: message, Progress: &p}
}

// Video is an in-memory analyzer.Source.
type Video struct {
	FileName string
	Data     string
}

func (v Video) Name() string { return v.FileName }

func (v Video) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(v.Data)), nil
}

var _ analyzer.Client = (*Client)(nil)
