package indicators

import (
	"math"

	"github.com/rustyeddy/gridtrader/market"
)

// KDJ computes the K, D and J stochastic series with the classic (9,3,3)
// recurrence:
//
//	RSV = (close - min(low,n)) / (max(high,n) - min(low,n)) * 100
//	K   = 2/3*prevK + 1/3*RSV
//	D   = 2/3*prevD + 1/3*K
//	J   = 3K - 2D
//
// K and D seed from the first defined RSV/K. When the n-period high equals
// the low, RSV is undefined for that period and the smoothed values hold.
func KDJ(candles []market.Candle, n int) (k, d, j []float64) {
	k = nans(len(candles))
	d = nans(len(candles))
	j = nans(len(candles))
	if n <= 0 || len(candles) < n {
		return k, d, j
	}

	prevK := math.NaN()
	prevD := math.NaN()

	for i := n - 1; i < len(candles); i++ {
		lo, hi := windowLowHigh(candles[i+1-n : i+1])

		rsv := math.NaN()
		if hi > lo {
			rsv = (candles[i].Close - lo) / (hi - lo) * 100
		}

		if Defined(rsv) {
			if Defined(prevK) {
				prevK = prevK*2/3 + rsv/3
			} else {
				prevK = rsv
			}
		}
		if Defined(prevK) {
			if Defined(prevD) {
				prevD = prevD*2/3 + prevK/3
			} else {
				prevD = prevK
			}
		}

		k[i] = prevK
		d[i] = prevD
		if Defined(prevK) && Defined(prevD) {
			j[i] = 3*prevK - 2*prevD
		}
	}
	return k, d, j
}

func windowLowHigh(candles []market.Candle) (lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, c := range candles {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}
	return lo, hi
}
