// Package job drives one remote analysis job from upload to results.
//
// A Controller tracks a single job at a time. Submit uploads the selected
// video; on success a poll goroutine queries the analyzer every poll interval
// until the job leaves the processing phase. The processing to completed edge
// triggers the completion sequence exactly once per attempt: statistics are
// fetched and normalized, then rallies are fetched.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/rallylens/internal/analyzer"
	"github.com/kiranshivaraju/rallylens/internal/normalize"
	"github.com/kiranshivaraju/rallylens/internal/selection"
	"github.com/kiranshivaraju/rallylens/pkg/models"
	"github.com/kiranshivaraju/rallylens/pkg/units"
)

// DefaultPollInterval is the wait between the end of one status request and
// the start of the next.
const DefaultPollInterval = 3 * time.Second

const (
	msgUploading  = "Uploading video..."
	msgProcessing = "Running tennis analysis..."
	uploadFailed  = "Upload failed: "
)

// Recorder receives lifecycle events for metrics.
type Recorder interface {
	UploadFinished(outcome string)
	PollFinished(outcome string)
	CompletionStarted()
	ResultFetchFailed(document string)
	PhaseChanged(p models.Phase)
}

type nopRecorder struct{}

func (nopRecorder) UploadFinished(string)     {}
func (nopRecorder) PollFinished(string)       {}
func (nopRecorder) CompletionStarted()        {}
func (nopRecorder) ResultFetchFailed(string)  {}
func (nopRecorder) PhaseChanged(models.Phase) {}

// Option configures a Controller.
type Option func(*Controller)

// WithPollInterval overrides DefaultPollInterval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCalibration sets the scale used to convert player speeds to km/h.
// Defaults to units.Fixed().
func WithCalibration(cal units.Calibration) Option {
	return func(c *Controller) {
		c.calibration = cal
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

type observer struct {
	id int
	fn func(Snapshot)
}

// poller is the owned handle of one attempt's background work.
type poller struct {
	attempt uuid.UUID
	cancel  context.CancelFunc
	done    chan struct{}
}

// Controller is safe for concurrent use.
type Controller struct {
	client      analyzer.Client
	interval    time.Duration
	logger      *slog.Logger
	recorder    Recorder
	calibration units.Calibration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// notifyMu serializes observer callbacks so they see snapshots in order.
	notifyMu sync.Mutex

	mu              sync.Mutex
	closed          bool
	file            analyzer.Source
	fileUploading   bool
	staleFile       analyzer.Source
	job             *models.Job
	prevPhase       models.Phase
	completionFired bool
	results         ResultsState
	resultsErr      error
	stats           *models.StatisticsView
	rallies         *models.RallyCollection
	selection       selection.State
	poller          *poller
	observers       []observer
	nextObserver    int
}

// NewController creates an idle controller.
func NewController(client analyzer.Client, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		client:      client,
		interval:    DefaultPollInterval,
		logger:      slog.Default(),
		recorder:    nopRecorder{},
		calibration: units.Fixed(),
		ctx:         ctx,
		cancel:      cancel,
		results:     ResultsNone,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectFile stores the video to upload next. No request is made. The
// replaced source is released, or after its upload returns if one is reading it.
func (c *Controller) SelectFile(src analyzer.Source) error {
	if src == nil {
		return ErrNoFile
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	old := c.file
	c.file = src
	if c.fileUploading {
		c.staleFile = old
		c.fileUploading = false
		old = nil
	}
	c.mu.Unlock()

	c.release(old)
	c.logger.Info("video selected", "file", src.Name())
	c.notify()
	return nil
}

// Submit uploads the selected video and, on success, starts polling. Any
// prior job, results and rally selection are discarded. A rejected or failed
// upload moves the job to PhaseError and is also returned.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.file == nil {
		c.mu.Unlock()
		return ErrNoFile
	}
	if c.job != nil && c.job.Phase.InFlight() {
		c.mu.Unlock()
		return ErrJobInFlight
	}

	if c.poller != nil {
		c.poller.cancel()
		c.poller = nil
	}

	now := time.Now().UTC()
	src := c.file
	c.fileUploading = true
	attempt := uuid.New()
	c.job = &models.Job{
		AttemptID: attempt,
		Phase:     models.PhaseUploading,
		Message:   msgUploading,
		FileName:  src.Name(),
		StartedAt: now,
		UpdatedAt: now,
	}
	c.prevPhase = ""
	c.completionFired = false
	c.results = ResultsNone
	c.resultsErr = nil
	c.stats = nil
	c.rallies = nil
	c.selection.Reset()
	c.mu.Unlock()

	c.notify()

	uploadCtx, cancelUpload := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancelUpload)
	videoID, err := c.client.Upload(uploadCtx, src)
	stop()
	cancelUpload()

	c.mu.Lock()
	c.fileUploading = false
	stale := c.staleFile
	c.staleFile = nil
	c.mu.Unlock()
	c.release(stale)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.job == nil || c.job.AttemptID != attempt {
		c.mu.Unlock()
		return ErrJobInFlight
	}

	if err != nil {
		msg := uploadMessage(err)
		c.setPhaseLocked(models.PhaseError, msg, nil)
		c.job.ErrorDetail = &msg
		c.mu.Unlock()

		outcome := "failed"
		if errors.Is(err, analyzer.ErrUploadRejected) {
			outcome = "rejected"
		}
		c.recorder.UploadFinished(outcome)
		c.logger.Warn("upload failed", "file", src.Name(), "attempt", attempt, "error", err)
		c.notify()
		return fmt.Errorf("uploading %s: %w", src.Name(), err)
	}

	zero := 0
	c.job.ID = videoID
	c.setPhaseLocked(models.PhaseProcessing, msgProcessing, &zero)
	c.startPollerLocked(attempt, videoID)
	c.mu.Unlock()

	c.recorder.UploadFinished("success")
	c.logger.Info("upload accepted", "video_id", videoID, "attempt", attempt)
	c.notify()
	return nil
}

// ToggleRally expands rally i, or collapses it if already expanded.
func (c *Controller) ToggleRally(i int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.results != ResultsReady || c.rallies == nil {
		c.mu.Unlock()
		return ErrNoResults
	}
	if i < 0 || i >= len(c.rallies.Rallies) {
		n := len(c.rallies.Rallies)
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0,%d)", ErrRallyIndex, i, n)
	}
	c.selection.Toggle(i)
	c.mu.Unlock()

	c.notify()
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Observers are called in subscription order. Callbacks run synchronously on
// the goroutine that made the change and must not call back into the
// controller except for Snapshot.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers = append(c.observers, observer{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, o := range c.observers {
				if o.id == id {
					c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Close stops polling and waits for background work to exit, then releases
// the selected video. Every later operation returns ErrClosed. Close is
// idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.poller = nil
	c.observers = nil
	var selected analyzer.Source
	if c.fileUploading {
		c.staleFile = c.file
		c.fileUploading = false
	} else {
		selected = c.file
	}
	c.mu.Unlock()

	c.release(selected)
	return nil
}

// Done returns a channel closed when the current attempt's poll loop and
// completion sequence have exited. It returns nil if no loop was started.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poller == nil {
		return nil
	}
	return c.poller.done
}

func (c *Controller) startPollerLocked(attempt uuid.UUID, videoID string) {
	ctx, cancel := context.WithCancel(c.ctx)
	p := &poller{attempt: attempt, cancel: cancel, done: make(chan struct{})}
	c.poller = p

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(p.done)
		defer cancel()
		c.pollLoop(ctx, attempt, videoID)
	}()
}

// pollLoop issues status requests until the job leaves processing. The timer
// is armed only after a request returns, so requests never overlap.
func (c *Controller) pollLoop(ctx context.Context, attempt uuid.UUID, videoID string) {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		upd, err := c.client.Status(ctx, videoID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.recorder.PollFinished("failed")
			c.logger.Warn("status poll failed", "video_id", videoID, "error", err)
			timer.Reset(c.interval)
			continue
		}
		c.recorder.PollFinished("success")

		completed, processing := c.applyStatus(attempt, upd)
		if completed {
			c.runCompletion(ctx, attempt, videoID)
		}
		if !processing {
			return
		}
		timer.Reset(c.interval)
	}
}

// applyStatus records upd for attempt. It reports whether this update is the
// processing to completed edge, and whether polling should continue.
func (c *Controller) applyStatus(attempt uuid.UUID, upd models.StatusUpdate) (completed, processing bool) {
	c.mu.Lock()
	if c.closed || c.job == nil || c.job.AttemptID != attempt {
		c.mu.Unlock()
		return false, false
	}

	prev := c.job.Phase
	c.setPhaseLocked(upd.Phase, upd.Message, upd.Progress)
	if upd.Phase == models.PhaseError {
		msg := upd.Message
		c.job.ErrorDetail = &msg
	}

	if c.prevPhase == models.PhaseProcessing && c.job.Phase == models.PhaseCompleted && !c.completionFired {
		c.completionFired = true
		c.results = ResultsPending
		completed = true
	}
	processing = upd.Phase == models.PhaseProcessing
	c.mu.Unlock()

	if prev != upd.Phase {
		c.logger.Info("job phase changed", "video_id", c.videoIDOf(attempt), "from", prev, "to", upd.Phase, "message", upd.Message)
	}
	c.notify()
	return completed, processing
}

// runCompletion fetches statistics and then rallies. Results become ready
// only when both succeed; a failure leaves the job completed with results
// unavailable.
func (c *Controller) runCompletion(ctx context.Context, attempt uuid.UUID, videoID string) {
	c.recorder.CompletionStarted()

	raw, err := c.client.Statistics(ctx, videoID)
	if err != nil {
		c.failResults(ctx, attempt, "statistics", err)
		return
	}
	view := normalize.Statistics(raw, c.calibration, c.logger.With("video_id", videoID))

	c.mu.Lock()
	if c.job == nil || c.job.AttemptID != attempt {
		c.mu.Unlock()
		return
	}
	c.stats = &view
	c.mu.Unlock()
	c.notify()

	raw, err = c.client.Rallies(ctx, videoID)
	if err != nil {
		c.failResults(ctx, attempt, "rallies", err)
		return
	}
	rallies, err := normalize.Rallies(raw)
	if err != nil {
		c.failResults(ctx, attempt, "rallies", err)
		return
	}

	c.mu.Lock()
	if c.job == nil || c.job.AttemptID != attempt {
		c.mu.Unlock()
		return
	}
	c.rallies = &rallies
	c.results = ResultsReady
	c.mu.Unlock()

	c.logger.Info("results ready", "video_id", videoID, "rallies", len(rallies.Rallies))
	c.notify()
}

func (c *Controller) failResults(ctx context.Context, attempt uuid.UUID, document string, err error) {
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	if c.job == nil || c.job.AttemptID != attempt {
		c.mu.Unlock()
		return
	}
	c.results = ResultsUnavailable
	c.resultsErr = fmt.Errorf("fetching %s: %w", document, err)
	videoID := c.job.ID
	c.mu.Unlock()

	c.recorder.ResultFetchFailed(document)
	c.logger.Error("result retrieval failed", "video_id", videoID, "document", document, "error", err)
	c.notify()
}

func (c *Controller) setPhaseLocked(p models.Phase, message string, progress *int) {
	c.prevPhase = c.job.Phase
	c.job.Phase = p
	c.job.Message = message
	c.job.Progress = progress
	c.job.UpdatedAt = time.Now().UTC()
}

func (c *Controller) videoIDOf(attempt uuid.UUID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil || c.job.AttemptID != attempt {
		return ""
	}
	return c.job.ID
}

func (c *Controller) phaseLocked() models.Phase {
	switch {
	case c.job != nil:
		return c.job.Phase
	case c.file != nil:
		return models.PhaseFileSelected
	default:
		return models.PhaseIdle
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:         c.phaseLocked(),
		PreviousPhase: c.prevPhase,
		Job:           copyJob(c.job),
		Results:       c.results,
		Statistics:    c.stats,
		Rallies:       c.rallies,
		Selection:     c.selection,
	}
	if c.file != nil {
		snap.FileName = c.file.Name()
	}
	if c.resultsErr != nil {
		snap.ResultsError = c.resultsErr.Error()
	}
	if c.job != nil && c.job.Phase == models.PhaseCompleted && c.job.ID != "" {
		links := c.client.Links(c.job.ID)
		snap.Links = &links
	}
	return snap
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	snap := c.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(c.observers))
	for _, o := range c.observers {
		fns = append(fns, o.fn)
	}
	c.mu.Unlock()

	c.recorder.PhaseChanged(snap.Phase)
	for _, fn := range fns {
		fn(snap)
	}
}

// release frees a source the controller no longer references.
func (c *Controller) release(src analyzer.Source) {
	r, ok := src.(analyzer.Releaser)
	if !ok {
		return
	}
	if err := r.Release(); err != nil {
		c.logger.Warn("releasing video failed", "file", src.Name(), "error", err)
	}
}

func uploadMessage(err error) string {
	var upErr *analyzer.UploadError
	if errors.As(err, &upErr) {
		return upErr.Message
	}
	return uploadFailed + err.Error()
}
