package models

// PlayerID identifies one of the two players on court.
type PlayerID int

const (
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Valid reports whether id names a player.
func (id PlayerID) Valid() bool {
	return id == Player1 || id == Player2
}

// Measure is a number that may be unknown. An unknown Measure always has a
// zero Value, so renderers never see a missing number.
type Measure struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// Known wraps v as a known measure.
func Known(v float64) Measure {
	return Measure{Value: v, Known: true}
}

// Unknown is the sentinel for a measure absent from the source payload.
var Unknown = Measure{}

// MatchSummary holds whole-match counters.
type MatchSummary struct {
	TotalRallies        int `json:"total_rallies"`
	TotalFramesAnalyzed int `json:"total_frames_analyzed"`
}

// CourtPositioning is the share of frames a player spent in each court zone, in percent.
type CourtPositioning struct {
	LeftCourt  Measure `json:"left_court"`
	RightCourt Measure `json:"right_court"`
	FrontCourt Measure `json:"front_court"`
	BackCourt  Measure `json:"back_court"`
}

// PlayerStatistics is the canonical per-player record. Speeds are in km/h,
// converted from the tracker's pixel velocities during normalization.
type PlayerStatistics struct {
	TotalShots          int              `json:"total_shots"`
	WinRate             Measure          `json:"win_rate"`
	AverageSpeedKmh     Measure          `json:"average_speed_kmh"`
	MaxSpeedKmh         Measure          `json:"max_speed_kmh"`
	TotalDistanceMeters Measure          `json:"total_distance_meters"`
	Serves              int              `json:"serves"`
	EstimatedForehand   int              `json:"estimated_forehand"`
	EstimatedBackhand   int              `json:"estimated_backhand"`
	ForehandPercentage  Measure          `json:"forehand_percentage"`
	BackhandPercentage  Measure          `json:"backhand_percentage"`
	RalliesWon          int              `json:"rallies_won"`
	RalliesLost         int              `json:"rallies_lost"`
	LongestRallyWon     int              `json:"longest_rally_won"`
	CrosscourtShots     int              `json:"crosscourt_shots"`
	DownTheLineShots    int              `json:"down_the_line_shots"`
	CourtPositioning    CourtPositioning `json:"court_positioning"`
}

// StatisticsView is the single normalized shape handed to the presentation
// layer. Players always holds exactly Player1 and Player2.
type StatisticsView struct {
	MatchSummary MatchSummary                  `json:"match_summary"`
	Players      map[PlayerID]PlayerStatistics `json:"players"`
}

// Player returns the record for id, or a zero record for an invalid id.
func (v StatisticsView) Player(id PlayerID) PlayerStatistics {
	return v.Players[id]
}
