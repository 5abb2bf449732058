package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// seedProcessing installs a processing job without uploading or polling.
func (c *Controller) seedProcessing(videoID string) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	zero := 0
	attempt := uuid.New()
	c.job = &models.Job{
		ID:        videoID,
		AttemptID: attempt,
		Phase:     models.PhaseProcessing,
		Progress:  &zero,
		StartedAt: time.Now().UTC(),
	}
	c.prevPhase = models.PhaseUploading
	c.completionFired = false
	c.results = ResultsNone
	return attempt
}

func uuidOther() uuid.UUID {
	return uuid.New()
}
