// Package indicators computes the technical series the grid engine consumes:
// moving averages, BIAS, ATR, RSI and KDJ.
//
// All series use trailing (causal) windows only. A value is NaN until its
// window has filled; the pipeline never returns an error, undefined values
// simply propagate as NaN and are gated downstream.
package indicators

import (
	"math"

	"github.com/rustyeddy/gridtrader/market"
)

// Frame is a candle series enriched with the computed indicator columns.
// Column i corresponds to Candles[i].
type Frame struct {
	Candles []market.Candle

	MA5    []float64
	MA20   []float64
	Bias20 []float64
	ATR14  []float64
	RSI14  []float64
	KDJK   []float64
	KDJD   []float64
	KDJJ   []float64
}

// Len returns the number of periods in the frame.
func (f *Frame) Len() int { return len(f.Candles) }

// Compute derives the full indicator frame from an ascending-time candle
// sequence. An empty input yields an empty frame.
func Compute(candles []market.Candle) *Frame {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	f := &Frame{
		Candles: candles,
		MA5:     SMA(closes, 5),
		MA20:    SMA(closes, 20),
		ATR14:   ATR(candles, 14),
		RSI14:   RSI(closes, 14),
	}
	f.Bias20 = Bias(closes, f.MA20)
	f.KDJK, f.KDJD, f.KDJJ = KDJ(candles, 9)
	return f
}

// nan-filled slice helper used by every column builder.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether v is a usable indicator value.
func Defined(v float64) bool { return !math.IsNaN(v) }
