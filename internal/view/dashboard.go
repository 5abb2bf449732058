// Package view turns controller snapshots into render-ready dashboard models.
// Every number is formatted here; the transport layer only serializes.
package view

import (
	"fmt"

	"github.com/kiranshivaraju/rallylens/internal/job"
	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// UnknownMarker is shown for a measure the analyzer did not report.
const UnknownMarker = "N/A"

const (
	emptyStateMessage  = "No results yet. Upload a video to get started."
	resultsPendingText = "Loading results..."
	resultsMissingText = "Analysis completed, but results could not be loaded."
	playersPerMatch    = 2
	expandHint         = "Click to expand details"
	collapseHint       = "Click to collapse"
)

// Dashboard is the complete page model.
type Dashboard struct {
	Status       *StatusCard        `json:"status,omitempty"`
	EmptyState   string             `json:"empty_state,omitempty"`
	Notice       string             `json:"notice,omitempty"`
	Media        *models.MediaLinks `json:"media,omitempty"`
	Summary      *SummaryTiles      `json:"summary,omitempty"`
	Players      []PlayerCard       `json:"players,omitempty"`
	RallySummary *RallySummary      `json:"rally_summary,omitempty"`
	Rallies      []RallyCard        `json:"rallies,omitempty"`
}

// StatusCard mirrors the tracked job.
type StatusCard struct {
	Phase         models.Phase `json:"phase"`
	FileName      string       `json:"file_name,omitempty"`
	VideoID       string       `json:"video_id,omitempty"`
	Message       string       `json:"message"`
	Progress      *int         `json:"progress,omitempty"`
	ProgressLabel string       `json:"progress_label,omitempty"`
	Error         string       `json:"error,omitempty"`
	Results       string       `json:"results"`
}

type SummaryTiles struct {
	TotalRallies        int `json:"total_rallies"`
	TotalFramesAnalyzed int `json:"total_frames_analyzed"`
	Players             int `json:"players"`
}

type PlayerCard struct {
	Player           int    `json:"player"`
	Title            string `json:"title"`
	WinRate          string `json:"win_rate"`
	TotalShots       int    `json:"total_shots"`
	AverageSpeed     string `json:"average_speed"`
	MaxSpeed         string `json:"max_speed"`
	TotalDistance    string `json:"total_distance"`
	Serves           int    `json:"serves"`
	Forehands        string `json:"forehands"`
	Backhands        string `json:"backhands"`
	RalliesWon       int    `json:"rallies_won"`
	RalliesLost      int    `json:"rallies_lost"`
	LongestRallyWon  int    `json:"longest_rally_won"`
	CrosscourtShots  int    `json:"crosscourt_shots"`
	DownTheLineShots int    `json:"down_the_line_shots"`
	Positioning      Zones  `json:"positioning"`
}

// Zones is court positioning as display percentages.
type Zones struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

type RallySummary struct {
	TotalRallies    int    `json:"total_rallies"`
	AverageLength   string `json:"average_length"`
	LongestRally    int    `json:"longest_rally"`
	ShortestRally   int    `json:"shortest_rally"`
	AverageDuration string `json:"average_duration"`
}

type RallyCard struct {
	Index            int       `json:"index"`
	Title            string    `json:"title"`
	Winner           string    `json:"winner,omitempty"`
	Serving          string    `json:"serving,omitempty"`
	Headline         string    `json:"headline"`
	Player1Shots     int       `json:"player_1_shots"`
	Player2Shots     int       `json:"player_2_shots"`
	AverageShotSpeed string    `json:"average_shot_speed"`
	MaxShotSpeed     string    `json:"max_shot_speed"`
	Player1Distance  string    `json:"player_1_distance"`
	Player2Distance  string    `json:"player_2_distance"`
	Frames           string    `json:"frames"`
	Expanded         bool      `json:"expanded"`
	Hint             string    `json:"hint"`
	Shots            []ShotRow `json:"shots,omitempty"`
}

type ShotRow struct {
	Title  string `json:"title"`
	Player string `json:"player"`
	Speed  string `json:"speed"`
	Frame  string `json:"frame"`
}

// Build renders snap. All speeds arrive in km/h.
func Build(snap job.Snapshot) Dashboard {
	var d Dashboard

	if snap.Job != nil {
		d.Status = statusCard(snap)
	}
	if snap.Job == nil && snap.Statistics == nil {
		d.EmptyState = emptyStateMessage
	}

	switch snap.Results {
	case job.ResultsPending:
		d.Notice = resultsPendingText
	case job.ResultsUnavailable:
		d.Notice = resultsMissingText
	}

	if snap.Statistics != nil {
		d.Media = snap.Links
		d.Summary = &SummaryTiles{
			TotalRallies:        snap.Statistics.MatchSummary.TotalRallies,
			TotalFramesAnalyzed: snap.Statistics.MatchSummary.TotalFramesAnalyzed,
			Players:             playersPerMatch,
		}
		d.Players = []PlayerCard{
			playerCard(models.Player1, snap.Statistics.Player(models.Player1)),
			playerCard(models.Player2, snap.Statistics.Player(models.Player2)),
		}
	}

	// Rally rendering assumes the match summary is present.
	if snap.ResultsReady() && snap.Statistics != nil && snap.Rallies != nil && len(snap.Rallies.Rallies) > 0 {
		rc := snap.Rallies
		d.RallySummary = &RallySummary{
			TotalRallies:    rc.TotalRallies,
			AverageLength:   fmt.Sprintf("%.1f", rc.AverageRallyLength),
			LongestRally:    rc.LongestRally,
			ShortestRally:   rc.ShortestRally,
			AverageDuration: fmt.Sprintf("%.1fs", rc.AverageRallyDuration),
		}
		d.Rallies = make([]RallyCard, 0, len(rc.Rallies))
		for i, r := range rc.Rallies {
			d.Rallies = append(d.Rallies, rallyCard(i, r, snap.Selection.IsExpanded(i)))
		}
	}

	return d
}

func statusCard(snap job.Snapshot) *StatusCard {
	j := snap.Job
	card := &StatusCard{
		Phase:    j.Phase,
		FileName: j.FileName,
		VideoID:  j.ID,
		Message:  j.Message,
		Progress: j.Progress,
		Results:  string(snap.Results),
	}
	if j.Progress != nil {
		card.ProgressLabel = fmt.Sprintf("%d%% Complete", *j.Progress)
	}
	if j.ErrorDetail != nil {
		card.Error = *j.ErrorDetail
	}
	return card
}

func playerCard(id models.PlayerID, p models.PlayerStatistics) PlayerCard {
	return PlayerCard{
		Player:           int(id),
		Title:            fmt.Sprintf("Player %d", id),
		WinRate:          winRate(p.WinRate),
		TotalShots:       p.TotalShots,
		AverageSpeed:     speed(p.AverageSpeedKmh),
		MaxSpeed:         speed(p.MaxSpeedKmh),
		TotalDistance:    distance(p.TotalDistanceMeters),
		Serves:           p.Serves,
		Forehands:        strokeCount(p.EstimatedForehand, p.ForehandPercentage),
		Backhands:        strokeCount(p.EstimatedBackhand, p.BackhandPercentage),
		RalliesWon:       p.RalliesWon,
		RalliesLost:      p.RalliesLost,
		LongestRallyWon:  p.LongestRallyWon,
		CrosscourtShots:  p.CrosscourtShots,
		DownTheLineShots: p.DownTheLineShots,
		Positioning: Zones{
			Left:  percent(p.CourtPositioning.LeftCourt),
			Right: percent(p.CourtPositioning.RightCourt),
			Front: percent(p.CourtPositioning.FrontCourt),
			Back:  percent(p.CourtPositioning.BackCourt),
		},
	}
}

func rallyCard(i int, r models.Rally, expanded bool) RallyCard {
	card := RallyCard{
		Index:            i,
		Title:            fmt.Sprintf("Rally #%d", r.Number),
		Winner:           playerLabel(r.Winner, "Winner: "),
		Serving:          playerLabel(r.ServingPlayer, "Serve: "),
		Headline:         fmt.Sprintf("%d shots • %.1fs", r.TotalShots, r.DurationSeconds),
		Player1Shots:     r.Player1Shots,
		Player2Shots:     r.Player2Shots,
		AverageShotSpeed: fmt.Sprintf("%.0f km/h", r.AverageShotSpeed),
		MaxShotSpeed:     fmt.Sprintf("%.0f km/h", r.MaxShotSpeed),
		Player1Distance:  fmt.Sprintf("%.2fm", r.Player1Distance),
		Player2Distance:  fmt.Sprintf("%.2fm", r.Player2Distance),
		Frames:           frameRange(r),
		Expanded:         expanded,
		Hint:             expandHint,
	}
	if !expanded {
		return card
	}

	card.Hint = collapseHint
	card.Shots = make([]ShotRow, 0, len(r.Shots))
	for _, s := range r.Shots {
		card.Shots = append(card.Shots, ShotRow{
			Title:  fmt.Sprintf("Shot #%d", s.Number),
			Player: shotPlayer(s.Player),
			Speed:  fmt.Sprintf("%.1f km/h", s.Speed),
			Frame:  fmt.Sprintf("Frame %d", s.Frame),
		})
	}
	return card
}

func winRate(m models.Measure) string {
	if !m.Known {
		return UnknownMarker
	}
	return fmt.Sprintf("%.0f%% Win Rate", m.Value*100)
}

func speed(m models.Measure) string {
	if !m.Known {
		return UnknownMarker
	}
	return fmt.Sprintf("%.1f km/h", m.Value)
}

func distance(m models.Measure) string {
	if !m.Known {
		return UnknownMarker
	}
	return fmt.Sprintf("%.2f m", m.Value)
}

func percent(m models.Measure) string {
	if !m.Known {
		return UnknownMarker
	}
	return fmt.Sprintf("%.1f%%", m.Value)
}

func strokeCount(n int, share models.Measure) string {
	if !share.Known {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d (%.1f%%)", n, share.Value)
}

func playerLabel(id *models.PlayerID, prefix string) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%sPlayer %d", prefix, *id)
}

func shotPlayer(id models.PlayerID) string {
	if !id.Valid() {
		return UnknownMarker
	}
	return fmt.Sprintf("Player %d", id)
}

func frameRange(r models.Rally) string {
	if r.EndFrame == 0 {
		return fmt.Sprintf("from frame %d", r.StartFrame)
	}
	return fmt.Sprintf("frames %d-%d", r.StartFrame, r.EndFrame)
}
