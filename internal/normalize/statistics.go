// Package normalize maps raw analyzer payloads onto the canonical view models.
//
// The statistics payload has shipped in two shapes: player records nested
// under "players" with the match summary under "match_statistics", and an
// older flat shape where both sit at the top level. Each block is resolved
// into a Layout once, here; nothing downstream looks at payload shape again.
package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/kiranshivaraju/rallylens/pkg/models"
	"github.com/kiranshivaraju/rallylens/pkg/units"
)

// Layout records where a block was found in the raw payload.
type Layout int

const (
	LayoutAbsent Layout = iota
	LayoutNested
	LayoutFlat
)

func (l Layout) String() string {
	switch l {
	case LayoutNested:
		return "nested"
	case LayoutFlat:
		return "flat"
	default:
		return "absent"
	}
}

// block is one resolved section of the payload.
type block struct {
	layout Layout
	fields map[string]any
}

// Resolution is the tagged-union form of a raw statistics document.
type Resolution struct {
	Summary block
	Players map[models.PlayerID]block
}

// SummaryLayout reports where the match summary was found.
func (r Resolution) SummaryLayout() Layout { return r.Summary.layout }

// PlayerLayout reports where the record for id was found.
func (r Resolution) PlayerLayout(id models.PlayerID) Layout { return r.Players[id].layout }

var summaryFlatKeys = []string{"total_rallies", "total_frames_analyzed", "total_frames"}

// Resolve classifies each block of doc. A nil doc resolves every block to absent.
func Resolve(doc map[string]any) Resolution {
	res := Resolution{Players: make(map[models.PlayerID]block, 2)}

	if nested, ok := doc["match_statistics"].(map[string]any); ok {
		res.Summary = block{layout: LayoutNested, fields: nested}
	} else if hasAny(doc, summaryFlatKeys) {
		res.Summary = block{layout: LayoutFlat, fields: doc}
	}

	players, _ := doc["players"].(map[string]any)
	for _, id := range []models.PlayerID{models.Player1, models.Player2} {
		key := playerKey(id)
		if rec, ok := players[key].(map[string]any); ok {
			res.Players[id] = block{layout: LayoutNested, fields: rec}
			continue
		}
		if rec, ok := doc[key].(map[string]any); ok {
			res.Players[id] = block{layout: LayoutFlat, fields: rec}
			continue
		}
		res.Players[id] = block{layout: LayoutAbsent}
	}

	return res
}

// Statistics decodes raw and normalizes it, converting pixel velocities to
// km/h with cal. It never fails: a payload that is not a JSON object yields a
// view with every field at its default.
func Statistics(raw []byte, cal units.Calibration, logger *slog.Logger) models.StatisticsView {
	if logger == nil {
		logger = slog.Default()
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Warn("statistics payload is not a JSON object; using defaults", "error", err)
		doc = nil
	}
	return StatisticsFromMap(doc, cal, logger)
}

// StatisticsFromMap normalizes an already-decoded payload.
func StatisticsFromMap(doc map[string]any, cal units.Calibration, logger *slog.Logger) models.StatisticsView {
	if logger == nil {
		logger = slog.Default()
	}

	res := Resolve(doc)

	view := models.StatisticsView{
		Players: make(map[models.PlayerID]models.PlayerStatistics, 2),
	}

	if res.Summary.layout == LayoutAbsent {
		logger.Warn("match summary missing from statistics payload")
	}
	view.MatchSummary = matchSummary(res.Summary)

	for _, id := range []models.PlayerID{models.Player1, models.Player2} {
		b := res.Players[id]
		if b.layout == LayoutAbsent {
			logger.Warn("player record missing from statistics payload", "player", int(id))
		}
		view.Players[id] = playerStatistics(b, cal)
	}

	return view
}

func matchSummary(b block) models.MatchSummary {
	frames := counter(b.fields, "total_frames_analyzed")
	if _, ok := b.fields["total_frames_analyzed"]; !ok {
		frames = counter(b.fields, "total_frames")
	}
	return models.MatchSummary{
		TotalRallies:        counter(b.fields, "total_rallies"),
		TotalFramesAnalyzed: frames,
	}
}

func playerStatistics(b block, cal units.Calibration) models.PlayerStatistics {
	f := b.fields
	stats := models.PlayerStatistics{
		TotalShots:          counter(f, "total_shots"),
		WinRate:             winRate(f["win_rate"]),
		AverageSpeedKmh:     speedKmh(f["average_speed_pixels_per_sec"], cal),
		MaxSpeedKmh:         speedKmh(f["max_speed_pixels_per_sec"], cal),
		TotalDistanceMeters: nonNegative(f["total_distance_meters"]),
		Serves:              counter(f, "serves"),
		EstimatedForehand:   counter(f, "estimated_forehand"),
		EstimatedBackhand:   counter(f, "estimated_backhand"),
		ForehandPercentage:  percentage(f["forehand_percentage"]),
		BackhandPercentage:  percentage(f["backhand_percentage"]),
		RalliesWon:          counter(f, "rallies_won"),
		RalliesLost:         counter(f, "rallies_lost"),
		LongestRallyWon:     counter(f, "longest_rally_won"),
		CrosscourtShots:     counter(f, "crosscourt_shots"),
		DownTheLineShots:    counter(f, "down_the_line_shots"),
	}

	if pos, ok := f["court_positioning"].(map[string]any); ok {
		stats.CourtPositioning = models.CourtPositioning{
			LeftCourt:  percentage(pos["left_court"]),
			RightCourt: percentage(pos["right_court"]),
			FrontCourt: percentage(pos["front_court"]),
			BackCourt:  percentage(pos["back_court"]),
		}
	}

	return stats
}

// counter reads a non-negative integer field. Anything else reads as 0.
func counter(fields map[string]any, key string) int {
	v, ok := number(fields[key])
	if !ok || v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}

func nonNegative(raw any) models.Measure {
	v, ok := number(raw)
	if !ok || v < 0 {
		return models.Unknown
	}
	return models.Known(v)
}

func percentage(raw any) models.Measure {
	v, ok := number(raw)
	if !ok || v < 0 || v > 100 {
		return models.Unknown
	}
	return models.Known(v)
}

// speedKmh converts a non-negative pixel velocity. Invalid calibrations
// leave the speed unknown.
func speedKmh(raw any, cal units.Calibration) models.Measure {
	m := nonNegative(raw)
	if !m.Known || !(cal.PixelsPerMeter > 0) || math.IsInf(cal.PixelsPerMeter, 0) {
		return models.Unknown
	}
	return models.Known(cal.SpeedKmh(m.Value))
}

// winRate reads the analyzer's percentage in [0,100] and returns it as a
// fraction in [0,1].
func winRate(raw any) models.Measure {
	v, ok := number(raw)
	if !ok || v < 0 || v > 100 {
		return models.Unknown
	}
	return models.Known(v / 100)
}

// number extracts a finite float from a decoded JSON value.
func number(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func hasAny(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func playerKey(id models.PlayerID) string {
	return fmt.Sprintf("player_%d", id)
}
