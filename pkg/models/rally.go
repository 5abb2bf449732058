package models

// Shot is one strike within a rally. Shots are kept in the order received,
// which is chronological by frame.
type Shot struct {
	Number int `json:"shot_number"`
	// Player is zero when the shot was not attributed to either player.
	Player PlayerID `json:"player"`
	Speed  float64  `json:"shot_speed"`
	Frame  int      `json:"frame"`
}

// Rally is a contiguous sequence of shots. Number is a display ordinal and
// need not match the rally's index in RallyCollection.Rallies.
type Rally struct {
	Number           int       `json:"rally_number"`
	Winner           *PlayerID `json:"winner,omitempty"`
	ServingPlayer    *PlayerID `json:"serving_player,omitempty"`
	TotalShots       int       `json:"total_shots"`
	DurationFrames   int       `json:"duration_frames"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Player1Shots     int       `json:"player_1_shots"`
	Player2Shots     int       `json:"player_2_shots"`
	AverageShotSpeed float64   `json:"average_shot_speed"`
	MaxShotSpeed     float64   `json:"max_shot_speed"`
	MinShotSpeed     float64   `json:"min_shot_speed"`
	Player1Distance  float64   `json:"player_1_distance"`
	Player2Distance  float64   `json:"player_2_distance"`
	StartFrame       int       `json:"start_frame"`
	EndFrame         int       `json:"end_frame"`
	Shots            []Shot    `json:"shots"`
}

// RallyCollection is the rally breakdown of a completed job. It is fetched
// once and never updated.
type RallyCollection struct {
	TotalRallies         int     `json:"total_rallies"`
	AverageRallyLength   float64 `json:"average_rally_length"`
	LongestRally         int     `json:"longest_rally"`
	ShortestRally        int     `json:"shortest_rally"`
	AverageRallyDuration float64 `json:"average_rally_duration"`
	Rallies              []Rally `json:"rallies"`
}
