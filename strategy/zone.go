package strategy

import "github.com/rustyeddy/gridtrader/config"

// Zone is the market regime derived from BIAS(20).
type Zone string

const (
	DeepDip     Zone = "DEEP_DIP"
	GoldZone    Zone = "GOLD_ZONE"
	Oscillation Zone = "OSCILLATION"
	ReduceZone  Zone = "REDUCE_ZONE"
	EscapeZone  Zone = "ESCAPE_ZONE"

	// EscapeHigh is not reachable from classification alone; the engine
	// assigns it when bias exceeds the escape-top boundary.
	EscapeHigh Zone = "ESCAPE_HIGH"
)

// classifyBias maps a bias value onto the half-open threshold intervals.
func classifyBias(bias float64, t config.Thresholds) Zone {
	switch {
	case bias < t.DeepDip:
		return DeepDip
	case bias < t.GoldZoneUpper:
		return GoldZone
	case bias < t.OscillationUpper:
		return Oscillation
	case bias < t.ReduceZoneUpper:
		return ReduceZone
	default:
		return EscapeZone
	}
}

// Classify returns the zone for the current bias, applying the
// trend-reversal override: when bias crosses down through the reversal
// boundary from above, the regime snaps back to OSCILLATION immediately
// instead of waiting for the next interval crossing, so accumulation
// resumes right after a sharp pullback. switched reports the override.
func Classify(bias, prevBias float64, t config.Thresholds) (zone Zone, switched bool) {
	zone = classifyBias(bias, t)

	crossedDown := prevBias > t.TrendReversal && bias <= t.TrendReversal
	if crossedDown && zone != DeepDip {
		return Oscillation, true
	}
	return zone, false
}
