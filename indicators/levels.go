package indicators

import (
	"math"

	"github.com/rustyeddy/gridtrader/market"
)

// SupportResistance returns the minimum low and maximum high over the last
// lookback candles. Shorter histories fall back to the full series.
func SupportResistance(candles []market.Candle, lookback int) (support, resistance float64) {
	if len(candles) == 0 {
		return 0, 0
	}
	if lookback <= 0 || lookback > len(candles) {
		lookback = len(candles)
	}

	support, resistance = windowLowHigh(candles[len(candles)-lookback:])
	return support, resistance
}

// RecentHigh returns the trailing maximum high over exactly lookback candles,
// or NaN when the history is shorter. The trailing stop must not fire off a
// partial window.
func RecentHigh(candles []market.Candle, lookback int) float64 {
	if lookback <= 0 || len(candles) < lookback {
		return math.NaN()
	}
	_, hi := windowLowHigh(candles[len(candles)-lookback:])
	return hi
}
