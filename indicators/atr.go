package indicators

import (
	"math"

	"github.com/rustyeddy/gridtrader/market"
)

// TrueRange computes the true range of current given the previous candle:
// max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(current, previous market.Candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}

// ATR computes the average true range as a simple moving average of TR over
// period candles. Not Wilder-smoothed; the plain average is what the grid
// sizing is calibrated against. Output[i] is NaN until i >= period.
func ATR(candles []market.Candle, period int) []float64 {
	out := nans(len(candles))
	if period <= 0 || len(candles) < period+1 {
		return out
	}

	tr := nans(len(candles))
	for i := 1; i < len(candles); i++ {
		tr[i] = TrueRange(candles[i], candles[i-1])
	}

	sum := 0.0
	for i := 1; i < len(candles); i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			out[i] = sum / float64(period)
		}
	}
	return out
}
