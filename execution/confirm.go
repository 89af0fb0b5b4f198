// Package execution records confirmed fills against the ledger: every fill
// appends to the trade history, a buy opens a grid pair with its sell
// target, and a sell retires the pair it satisfied. The engine itself only
// proposes orders; this is the collaborator that reacts to real executions.
package execution

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/gridtrader/ledger"
	"github.com/rustyeddy/gridtrader/market"
)

const (
	// pairTargetATRMultiple sets a fresh pair's sell target above its buy
	// price; fallbackTargetPct applies when no ATR reading is available.
	pairTargetATRMultiple = 2.0
	fallbackTargetPct     = 1.03

	// pairCloseTolerance matches a sell fill to a pair whose target it
	// reached, allowing slight slippage below the target.
	pairCloseTolerance = 0.99
)

// FillLedger is the slice of the ledger the recorder mutates.
type FillLedger interface {
	AddTradeRecord(code string, direction market.Direction, price float64, volume int64, realizedPnL float64)
	AddGridPair(code string, buyPrice float64, buyAmount int64, targetSellPrice float64) string
	ActivePairs(code string) []ledger.GridPair
	ClosePair(id string)
	RealizedPnL(since time.Time) float64
}

// Fill is one confirmed execution reported by the order-placement
// collaborator. AvgCost is the holding's average cost before the fill;
// ATR is the instrument's latest ATR(14) reading, zero when unknown.
type Fill struct {
	Code      string
	Direction market.Direction
	Price     float64
	Volume    int64
	AvgCost   float64
	ATR       float64
}

// Recorder applies confirmed fills to the ledger.
type Recorder struct {
	ledger FillLedger
	log    *zap.Logger
}

// NewRecorder builds a recorder over the ledger.
func NewRecorder(l FillLedger, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{ledger: l, log: log}
}

// Confirm records a fill. Buys realize no P&L and open a pair targeting
// price + 2*ATR (a flat 3% when ATR is unknown). Sells realize
// (price - avgCost) * volume and close the first open pair whose target the
// fill reached; one fill retires at most one pair.
func (r *Recorder) Confirm(f Fill) {
	realized := 0.0
	if f.Direction == market.Sell && f.AvgCost > 0 {
		realized = (f.Price - f.AvgCost) * float64(f.Volume)
	}
	r.ledger.AddTradeRecord(f.Code, f.Direction, f.Price, f.Volume, realized)

	switch f.Direction {
	case market.Buy:
		target := f.Price * fallbackTargetPct
		if f.ATR > 0 {
			target = f.Price + pairTargetATRMultiple*f.ATR
		}
		pairID := r.ledger.AddGridPair(f.Code, f.Price, f.Volume, target)
		r.log.Info("fill confirmed: pair opened",
			zap.String("code", f.Code),
			zap.String("pair_id", pairID),
			zap.Float64("buy_price", f.Price),
			zap.Float64("target", target))

	case market.Sell:
		for _, p := range r.ledger.ActivePairs(f.Code) {
			if f.Price >= p.TargetSellPrice*pairCloseTolerance {
				r.ledger.ClosePair(p.ID)
				r.log.Info("fill confirmed: pair closed",
					zap.String("code", f.Code),
					zap.String("pair_id", p.ID),
					zap.Float64("realized_pnl", realized))
				break
			}
		}
	}
}

// RealizedPnL reports the realized P&L total, optionally from a date.
func (r *Recorder) RealizedPnL(since time.Time) float64 {
	return r.ledger.RealizedPnL(since)
}
