package job

import (
	"github.com/kiranshivaraju/rallylens/internal/selection"
	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// ResultsState tracks result retrieval for a completed job.
type ResultsState string

const (
	// ResultsNone means no completion has been observed for this attempt.
	ResultsNone ResultsState = "none"
	// ResultsPending means the completion sequence is fetching.
	ResultsPending ResultsState = "pending"
	// ResultsReady means statistics and rallies are both loaded.
	ResultsReady ResultsState = "ready"
	// ResultsUnavailable means the job completed but a fetch failed.
	ResultsUnavailable ResultsState = "unavailable"
)

// Snapshot is a point-in-time copy of the controller state. Statistics and
// Rallies are shared with the controller and must be treated as read-only.
type Snapshot struct {
	Phase         models.Phase
	PreviousPhase models.Phase
	FileName      string
	Job           *models.Job
	Results       ResultsState
	ResultsError  string
	Statistics    *models.StatisticsView
	Rallies       *models.RallyCollection
	Selection     selection.State
	Links         *models.MediaLinks
}

// ResultsReady reports whether both result documents are loaded.
func (s Snapshot) ResultsReady() bool {
	return s.Results == ResultsReady
}

func copyJob(j *models.Job) *models.Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Progress != nil {
		p := *j.Progress
		cp.Progress = &p
	}
	if j.ErrorDetail != nil {
		d := *j.ErrorDetail
		cp.ErrorDetail = &d
	}
	return &cp
}
