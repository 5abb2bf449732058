package normalize

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/kiranshivaraju/rallylens/pkg/models"
)

type rawRallyCollection struct {
	TotalRallies         float64    `json:"total_rallies"`
	AverageRallyLength   float64    `json:"average_rally_length"`
	LongestRally         float64    `json:"longest_rally"`
	ShortestRally        float64    `json:"shortest_rally"`
	AverageRallyDuration float64    `json:"average_rally_duration"`
	Rallies              []rawRally `json:"rallies"`
}

type rawRally struct {
	RallyNumber      float64   `json:"rally_number"`
	Winner           any       `json:"winner"`
	ServingPlayer    any       `json:"serving_player"`
	TotalShots       float64   `json:"total_shots"`
	DurationFrames   float64   `json:"duration_frames"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Player1Shots     float64   `json:"player_1_shots"`
	Player2Shots     float64   `json:"player_2_shots"`
	AverageShotSpeed float64   `json:"average_shot_speed"`
	MaxShotSpeed     float64   `json:"max_shot_speed"`
	MinShotSpeed     float64   `json:"min_shot_speed"`
	Player1Distance  float64   `json:"player_1_distance"`
	Player2Distance  float64   `json:"player_2_distance"`
	StartFrame       *float64  `json:"start_frame"`
	EndFrame         *float64  `json:"end_frame"`
	Shots            []rawShot `json:"shots"`
}

type rawShot struct {
	ShotNumber float64 `json:"shot_number"`
	Player     any     `json:"player"`
	ShotSpeed  float64 `json:"shot_speed"`
	Frame      float64 `json:"frame"`
}

// Rallies decodes the rally breakdown. Winner and serving values other than
// 1 or 2 become absent. Rally and shot order is kept exactly as received.
func Rallies(raw []byte) (models.RallyCollection, error) {
	var doc rawRallyCollection
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.RallyCollection{}, fmt.Errorf("decoding rally collection: %w", err)
	}

	out := models.RallyCollection{
		TotalRallies:         toInt(doc.TotalRallies),
		AverageRallyLength:   doc.AverageRallyLength,
		LongestRally:         toInt(doc.LongestRally),
		ShortestRally:        toInt(doc.ShortestRally),
		AverageRallyDuration: doc.AverageRallyDuration,
		Rallies:              make([]models.Rally, 0, len(doc.Rallies)),
	}

	for _, r := range doc.Rallies {
		rally := models.Rally{
			Number:           toInt(r.RallyNumber),
			Winner:           optionalPlayer(r.Winner),
			ServingPlayer:    optionalPlayer(r.ServingPlayer),
			TotalShots:       toInt(r.TotalShots),
			DurationFrames:   toInt(r.DurationFrames),
			DurationSeconds:  r.DurationSeconds,
			Player1Shots:     toInt(r.Player1Shots),
			Player2Shots:     toInt(r.Player2Shots),
			AverageShotSpeed: r.AverageShotSpeed,
			MaxShotSpeed:     r.MaxShotSpeed,
			MinShotSpeed:     r.MinShotSpeed,
			Player1Distance:  r.Player1Distance,
			Player2Distance:  r.Player2Distance,
			Shots:            make([]models.Shot, 0, len(r.Shots)),
		}
		if r.StartFrame != nil {
			rally.StartFrame = toInt(*r.StartFrame)
		}
		// The analyzer writes a null end_frame for a rally still open when the video ended.
		if r.EndFrame != nil {
			rally.EndFrame = toInt(*r.EndFrame)
		}

		for _, s := range r.Shots {
			var player models.PlayerID
			if p := optionalPlayer(s.Player); p != nil {
				player = *p
			}
			rally.Shots = append(rally.Shots, models.Shot{
				Number: toInt(s.ShotNumber),
				Player: player,
				Speed:  s.ShotSpeed,
				Frame:  toInt(s.Frame),
			})
		}

		out.Rallies = append(out.Rallies, rally)
	}

	return out, nil
}

func optionalPlayer(raw any) *models.PlayerID {
	v, ok := number(raw)
	if !ok {
		return nil
	}
	id := models.PlayerID(v)
	if float64(id) != v || !id.Valid() {
		return nil
	}
	return &id
}

func toInt(v float64) int {
	if v < 0 || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}
