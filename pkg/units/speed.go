// Package units converts tracked pixel velocities into physical speeds.
package units

const (
	// DefaultPixelsPerMeter is the typical scale of an HD broadcast of a
	// tennis court: roughly 30 pixels per meter.
	DefaultPixelsPerMeter = 30.0

	// DefaultCourtPixelHeight and DefaultCourtLengthMeters describe a full
	// 720p frame covering a regulation court (23.77 m baseline to baseline).
	DefaultCourtPixelHeight  = 720.0
	DefaultCourtLengthMeters = 23.77

	metersPerSecondToKmh = 3.6
)

// Calibration maps image distances to meters.
type Calibration struct {
	PixelsPerMeter float64
}

// Fixed returns the calibration backed by DefaultPixelsPerMeter.
func Fixed() Calibration {
	return Calibration{PixelsPerMeter: DefaultPixelsPerMeter}
}

// FromCourt derives the ratio from the court's height in pixels and its
// real length in meters.
func FromCourt(courtPixelHeight, courtLengthMeters float64) Calibration {
	return Calibration{PixelsPerMeter: courtPixelHeight / courtLengthMeters}
}

// SpeedKmh converts a velocity in pixels per second to km/h.
// Callers must pass a non-negative, finite value.
func (c Calibration) SpeedKmh(pixelsPerSecond float64) float64 {
	metersPerSecond := pixelsPerSecond / c.PixelsPerMeter
	return metersPerSecond * metersPerSecondToKmh
}

// EstimateSpeedKmh converts using the fixed 30 px/m scale.
func EstimateSpeedKmh(pixelsPerSecond float64) float64 {
	return Fixed().SpeedKmh(pixelsPerSecond)
}

// ConvertPixelsPerSecToKmh converts using a ratio derived from explicit court
// dimensions.
func ConvertPixelsPerSecToKmh(pixelsPerSecond, courtPixelHeight, courtLengthMeters float64) float64 {
	return FromCourt(courtPixelHeight, courtLengthMeters).SpeedKmh(pixelsPerSecond)
}
