package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/gridtrader/market"
)

func candlesFromCloses(closes []float64, halfRange float64) []market.Candle {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Open:   c,
			High:   c + halfRange,
			Low:    c - halfRange,
			Close:  c,
			Volume: 1000,
			Time:   start.AddDate(0, 0, i),
		}
	}
	return out
}

func TestSMAWarmupAndValues(t *testing.T) {
	t.Parallel()

	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMATooShort(t *testing.T) {
	t.Parallel()

	for _, v := range SMA([]float64{1, 2}, 5) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestBias(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 10}
	ma := []float64{math.NaN(), 10.5}

	out := Bias(closes, ma)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, -4.7619, out[1], 1e-3)
}

func TestTrueRange(t *testing.T) {
	t.Parallel()

	prev := market.Candle{High: 10.2, Low: 9.8, Close: 10.0}

	// Plain range dominates.
	cur := market.Candle{High: 10.3, Low: 9.9, Close: 10.1}
	assert.InDelta(t, 0.4, TrueRange(cur, prev), 1e-9)

	// Gap up: high-prevClose dominates.
	cur = market.Candle{High: 10.8, Low: 10.6, Close: 10.7}
	assert.InDelta(t, 0.8, TrueRange(cur, prev), 1e-9)

	// Gap down: low-prevClose dominates.
	cur = market.Candle{High: 9.4, Low: 9.2, Close: 9.3}
	assert.InDelta(t, 0.8, TrueRange(cur, prev), 1e-9)
}

func TestATRWarmupAndValue(t *testing.T) {
	t.Parallel()

	// Constant close, constant range: every TR equals the range.
	candles := candlesFromCloses([]float64{10, 10, 10, 10, 10, 10}, 0.1)

	out := ATR(candles, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 0.2, out[3], 1e-9)
	assert.InDelta(t, 0.2, out[5], 1e-9)
}

func TestRSIAllGainsIs100(t *testing.T) {
	t.Parallel()

	out := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 100, out[3], 1e-9)
	assert.InDelta(t, 100, out[5], 1e-9)
}

func TestRSIMixed(t *testing.T) {
	t.Parallel()

	out := RSI([]float64{1, 2, 1.5, 1.5, 2.5}, 3)

	// Window at index 3: gains {1,0,0}, losses {0,0.5,0} -> RS=2 -> 66.67
	assert.InDelta(t, 66.6667, out[3], 1e-3)
	// Window at index 4: gains {0,0,1}, losses {0.5,0,0} -> RS=2 -> 66.67
	assert.InDelta(t, 66.6667, out[4], 1e-3)
}

func TestRSIFlatIs100(t *testing.T) {
	t.Parallel()

	// No movement at all: average loss is zero, defined as 100.
	out := RSI([]float64{5, 5, 5, 5, 5}, 3)
	assert.InDelta(t, 100, out[4], 1e-9)
}

func TestKDJSeedsFromFirstRSV(t *testing.T) {
	t.Parallel()

	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	candles := candlesFromCloses(closes, 0.5)

	k, d, j := KDJ(candles, 9)

	assert.True(t, math.IsNaN(k[7]))

	// Window 0..8: low = 0.5, high = 9.5, close = 9.
	rsv := (9.0 - 0.5) / (9.5 - 0.5) * 100
	assert.InDelta(t, rsv, k[8], 1e-9)
	assert.InDelta(t, rsv, d[8], 1e-9)
	assert.InDelta(t, rsv, j[8], 1e-9)

	// Window 1..9: low = 1.5, high = 10.5, close = 10.
	rsv2 := (10.0 - 1.5) / (10.5 - 1.5) * 100
	wantK := k[8]*2/3 + rsv2/3
	assert.InDelta(t, wantK, k[9], 1e-9)
	wantD := d[8]*2/3 + wantK/3
	assert.InDelta(t, wantD, d[9], 1e-9)
	assert.InDelta(t, 3*wantK-2*wantD, j[9], 1e-9)
}

func TestKDJUndefinedWhenFlat(t *testing.T) {
	t.Parallel()

	// Zero range: 9-period high equals low, RSV undefined throughout.
	candles := candlesFromCloses([]float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, 0)

	k, _, _ := KDJ(candles, 9)
	for _, v := range k {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSupportResistance(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses([]float64{10, 12, 8, 11}, 0.5)

	sup, res := SupportResistance(candles, 20)
	assert.InDelta(t, 7.5, sup, 1e-9)
	assert.InDelta(t, 12.5, res, 1e-9)

	// Lookback excludes the early extremes.
	sup, res = SupportResistance(candles, 1)
	assert.InDelta(t, 10.5, sup, 1e-9)
	assert.InDelta(t, 11.5, res, 1e-9)
}

func TestRecentHighNeedsFullWindow(t *testing.T) {
	t.Parallel()

	candles := candlesFromCloses([]float64{10, 12, 11}, 0.5)

	assert.True(t, math.IsNaN(RecentHigh(candles, 4)))
	assert.InDelta(t, 12.5, RecentHigh(candles, 3), 1e-9)
	assert.InDelta(t, 11.5, RecentHigh(candles, 1), 1e-9)
}

func TestComputeWarmupBoundaries(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10 + 0.01*float64(i)
	}
	f := Compute(candlesFromCloses(closes, 0.1))

	assert.Equal(t, 25, f.Len())

	assert.False(t, Defined(f.MA5[3]))
	assert.True(t, Defined(f.MA5[4]))

	assert.False(t, Defined(f.MA20[18]))
	assert.True(t, Defined(f.MA20[19]))
	assert.False(t, Defined(f.Bias20[18]))
	assert.True(t, Defined(f.Bias20[19]))

	assert.False(t, Defined(f.ATR14[13]))
	assert.True(t, Defined(f.ATR14[14]))

	assert.False(t, Defined(f.RSI14[13]))
	assert.True(t, Defined(f.RSI14[14]))

	assert.False(t, Defined(f.KDJK[7]))
	assert.True(t, Defined(f.KDJK[8]))
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	f := Compute(nil)
	assert.Equal(t, 0, f.Len())
}
