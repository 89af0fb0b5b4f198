package strategy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/gridtrader/config"
	"github.com/rustyeddy/gridtrader/indicators"
	"github.com/rustyeddy/gridtrader/ledger"
	"github.com/rustyeddy/gridtrader/market"
)

type fakePairs struct {
	pairs []ledger.GridPair
}

func (f fakePairs) ActivePairs(code string) []ledger.GridPair { return f.pairs }

func buildCandles(closes []float64, halfRange float64) []market.Candle {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Open:   c,
			High:   c + halfRange,
			Low:    c - halfRange,
			Close:  c,
			Volume: 10000,
			Time:   start.AddDate(0, 0, i),
		}
	}
	return out
}

// goldSeries ends at close 10.0 with MA5 = 10.1, MA20 = 10.5 and therefore
// bias = -4.76%: the gold zone.
func goldSeries() []market.Candle {
	closes := make([]float64, 0, 25)
	for i := 0; i < 5; i++ {
		closes = append(closes, 10.7)
	}
	for i := 0; i < 14; i++ {
		closes = append(closes, 10.65)
	}
	closes = append(closes, 10.4, 10.2, 10.15, 10.1, 10.05, 10.0)
	return buildCandles(closes, 0.15)
}

func assertLotMultiples(t *testing.T, plan *TradePlan, lot int64) {
	t.Helper()
	for _, o := range plan.Orders {
		assert.Zerof(t, o.Amount%lot, "order %q amount %d not a lot multiple", o.Desc, o.Amount)
		assert.Positive(t, o.Amount)
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	t.Parallel()

	e := New(config.Default(), nil, nil)

	plan := e.Analyze("sh510050", nil, market.Holding{})
	assert.Equal(t, StatusInsufficientData, plan.Status)
	assert.Empty(t, plan.Orders)

	plan = e.Analyze("sh510050", goldSeries()[:3], market.Holding{})
	assert.Equal(t, StatusInsufficientData, plan.Status)
	assert.Empty(t, plan.Orders)
}

func TestAnalyzeInsufficientIndicators(t *testing.T) {
	t.Parallel()

	e := New(config.Default(), nil, nil)

	// Enough candles to evaluate, not enough for the BIAS(20) window.
	plan := e.Analyze("sh510050", goldSeries()[:10], market.Holding{})
	assert.Equal(t, StatusInsufficientIndicators, plan.Status)
	assert.Empty(t, plan.Orders)
	assert.Positive(t, plan.CurrentPrice)
}

func TestAnalyzeGoldZoneGrid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	e := New(cfg, nil, nil)
	candles := goldSeries()

	// Position exactly on target: no rebalance, plain grid.
	holding := market.Holding{Volume: 3000, Available: 3000, AvgCost: 10.0}
	plan := e.Analyze("sh510050", candles, holding)

	assert.Equal(t, GoldZone, plan.Zone)
	assert.Equal(t, string(GoldZone), plan.Status)
	assert.InDelta(t, -4.76, plan.CurrentBias, 0.01)
	assert.InDelta(t, 0.75, plan.TargetPositionPct, 1e-9)
	assert.False(t, plan.RiskTriggered)

	frame := indicators.Compute(candles)
	last := frame.Len() - 1
	anchor := AnchorPrice(GoldZone, 10.0, frame.MA5[last])
	step := GridStep(frame.ATR14[last], 10.0, GoldZone, cfg)
	assert.InDelta(t, 10.1, anchor, 1e-9)

	assert.Len(t, plan.Orders, 2)

	buy := plan.Orders[0]
	assert.Equal(t, market.Buy, buy.Direction)
	assert.Equal(t, market.Limit, buy.Type)
	assert.Equal(t, int64(100), buy.Amount)
	assert.InDelta(t, anchor-step, buy.Price, 1e-9)

	sell := plan.Orders[1]
	assert.Equal(t, market.Sell, sell.Direction)
	assert.Equal(t, market.Limit, sell.Type)
	assert.Equal(t, int64(100), sell.Amount)
	assert.InDelta(t, anchor+step, sell.Price, 1e-9)

	// Support/resistance over the trailing window.
	assert.InDelta(t, 10.0-0.15, plan.Support, 1e-9)
	assert.InDelta(t, 10.65+0.15, plan.Resistance, 1e-9)

	assertLotMultiples(t, plan, cfg.LotSize)
}

func TestAnalyzeTrailingStop(t *testing.T) {
	t.Parallel()

	// Spike to 12 then a fall back to 10.5: retracement 1.5 clears 3*ATR.
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10.5
	}
	closes[18] = 11.8
	closes[19] = 11.2
	candles := buildCandles(closes, 0.1)
	candles[18].High = 12.0

	cfg := config.Default()
	e := New(cfg, nil, nil)
	holding := market.Holding{Volume: 1000, Available: 1000, AvgCost: 10.0}

	plan := e.Analyze("sh510050", candles, holding)

	assert.True(t, plan.RiskTriggered)
	assert.Len(t, plan.Orders, 1)

	stop := plan.Orders[0]
	assert.Equal(t, market.Sell, stop.Direction)
	assert.Equal(t, market.Market, stop.Type)
	assert.Equal(t, int64(500), stop.Amount)
	assert.InDelta(t, 10.5, stop.Price, 1e-9)
	assert.Equal(t, "ATR trailing stop", stop.Desc)

	assertLotMultiples(t, plan, cfg.LotSize)
}

func TestAnalyzeRebalance(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	e := New(cfg, nil, nil)

	// Flat position in the gold zone: deviation 0.75 forces a damped
	// market top-up of half the gap: 40000*0.375/10 = 1500 shares.
	plan := e.Analyze("sh510050", goldSeries(), market.Holding{})

	assert.False(t, plan.RiskTriggered)
	assert.Len(t, plan.Orders, 1)

	buy := plan.Orders[0]
	assert.Equal(t, market.Buy, buy.Direction)
	assert.Equal(t, market.Market, buy.Type)
	assert.Equal(t, int64(1500), buy.Amount)
	assert.InDelta(t, 10.0, buy.Price, 1e-9)
	assert.Contains(t, buy.Desc, "rebalance")

	assertLotMultiples(t, plan, cfg.LotSize)
}

func TestAnalyzeDrawdownBreakerPausesBuys(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	e := New(cfg, nil, nil)

	// On-target position but 23% underwater: breaker trips, the grid
	// buy stands down, the grid sell survives.
	holding := market.Holding{Volume: 3000, Available: 3000, AvgCost: 13.0}
	plan := e.Analyze("sh510050", goldSeries(), holding)

	assert.True(t, plan.RiskTriggered)
	assert.Len(t, plan.Orders, 1)
	assert.Equal(t, market.Sell, plan.Orders[0].Direction)

	found := false
	for _, w := range plan.Warnings {
		if strings.Contains(w, "circuit breaker") {
			found = true
		}
	}
	assert.True(t, found, "expected a circuit breaker warning, got %v", plan.Warnings)
}

func TestAnalyzeDeepDipBuysDespiteBreaker(t *testing.T) {
	t.Parallel()

	// Gentle plateau then an 8% gap below the average: deep dip. The
	// breaker trips on the underwater cost basis, yet the deep dip keeps
	// accumulating; only an overbought RSI stands it down.
	closes := make([]float64, 0, 25)
	for i := 0; i < 19; i++ {
		closes = append(closes, 11.0)
	}
	closes = append(closes, 10.8, 10.8, 10.8, 10.8, 10.8, 10.0)
	candles := buildCandles(closes, 0.3)

	cfg := config.Default()
	e := New(cfg, nil, nil)
	// Near the 95% deep dip target already, so no rebalance outranks the
	// grid, but 23% underwater so the breaker trips.
	holding := market.Holding{Volume: 3200, Available: 3200, AvgCost: 13.0}

	plan := e.Analyze("sh510050", candles, holding)

	assert.Equal(t, DeepDip, plan.Zone)
	assert.True(t, plan.RiskTriggered)

	frame := indicators.Compute(candles)
	last := frame.Len() - 1
	step := GridStep(frame.ATR14[last], 10.0, DeepDip, cfg)

	// Two heavy limit buys below the close-anchored grid.
	assert.Len(t, plan.Orders, 2)
	for i, o := range plan.Orders {
		assert.Equal(t, market.Buy, o.Direction)
		assert.Equal(t, market.Limit, o.Type)
		assert.Equal(t, int64(300), o.Amount)
		assert.InDelta(t, 10.0-float64(i+1)*step, o.Price, 1e-9)
	}

	assertLotMultiples(t, plan, cfg.LotSize)
}

func TestAnalyzePairExit(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	pairs := fakePairs{pairs: []ledger.GridPair{
		{ID: "P1", Code: "sh510050", BuyPrice: 9.7, BuyAmount: 500, TargetSellPrice: 9.9, Status: ledger.PairOpen},
		{ID: "P2", Code: "sh510050", BuyPrice: 9.9, BuyAmount: 500, TargetSellPrice: 10.2, Status: ledger.PairOpen},
		{ID: "P3", Code: "sh510050", BuyPrice: 9.5, BuyAmount: 2600, TargetSellPrice: 9.8, Status: ledger.PairOpen},
	}}
	e := New(cfg, pairs, nil)

	holding := market.Holding{Volume: 3000, Available: 3000, AvgCost: 10.0}
	plan := e.Analyze("sh510050", goldSeries(), holding)

	// P1 fires (10 >= 9.9*0.995), P2's target is out of reach, P3 fires
	// on price but the remaining availability cannot cover it.
	var pairSells []GridOrder
	for _, o := range plan.Orders {
		if o.Type == market.Limit && o.Direction == market.Sell && strings.Contains(o.Desc, "pair take-profit") {
			pairSells = append(pairSells, o)
		}
	}
	assert.Len(t, pairSells, 1)
	assert.Contains(t, pairSells[0].Desc, "P1")
	assert.Equal(t, int64(500), pairSells[0].Amount)
	// Price improves to the current price when above the target.
	assert.InDelta(t, 10.0, pairSells[0].Price, 1e-9)

	// The normal grid still generates behind the pair exits.
	assert.Greater(t, len(plan.Orders), 1)
	assertLotMultiples(t, plan, cfg.LotSize)
}

func TestAnalyzeEscapeHigh(t *testing.T) {
	t.Parallel()

	// Price rips 22% above the 20-day average: escape-high status, zero
	// target, sell side only.
	closes := make([]float64, 0, 25)
	for i := 0; i < 19; i++ {
		closes = append(closes, 10.0)
	}
	closes = append(closes, 10.5, 10.5, 10.5, 10.5, 10.5, 12.5)
	candles := buildCandles(closes, 0.1)

	cfg := config.Default()
	e := New(cfg, nil, nil)
	holding := market.Holding{Volume: 1000, Available: 1000, AvgCost: 10.0}

	plan := e.Analyze("sh510050", candles, holding)

	assert.Equal(t, StatusEscapeHigh, plan.Status)
	assert.Equal(t, EscapeHigh, plan.Zone)
	assert.Zero(t, plan.TargetPositionPct)

	assert.Len(t, plan.Orders, 1)
	sell := plan.Orders[0]
	assert.Equal(t, market.Sell, sell.Direction)
	assert.Equal(t, market.Limit, sell.Type)

	assertLotMultiples(t, plan, cfg.LotSize)
}

func TestAnalyzeUptrendLockPausesBuys(t *testing.T) {
	t.Parallel()

	// Bias climbs more than 2 points on each of the last three days while
	// staying inside the oscillation band: buys pause, sells continue.
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10.0
	}
	closes[12] = 9.9
	closes[21] = 9.75
	closes[22] = 10.0
	closes[23] = 10.25
	closes[24] = 10.5
	candles := buildCandles(closes, 0.1)

	cfg := config.Default()
	e := New(cfg, nil, nil)
	holding := market.Holding{Volume: 2000, Available: 2000, AvgCost: 10.0}

	plan := e.Analyze("sh510050", candles, holding)

	assert.Equal(t, Oscillation, plan.Zone)
	assert.False(t, plan.RiskTriggered)

	for _, o := range plan.Orders {
		assert.NotEqual(t, market.Buy, o.Direction, "uptrend lock must pause buys")
	}
	assert.Len(t, plan.Orders, 1)
	assert.Equal(t, market.Sell, plan.Orders[0].Direction)

	found := false
	for _, w := range plan.Warnings {
		if strings.Contains(w, "uptrend") {
			found = true
		}
	}
	assert.True(t, found, "expected an uptrend warning, got %v", plan.Warnings)
}

func TestDetectTrend(t *testing.T) {
	t.Parallel()

	cfg := config.TrendTracking{LookbackDays: 3, Threshold: 2.0}

	up, down, desc := DetectTrend([]float64{0, 2.5, 5.1, 7.8}, cfg)
	assert.True(t, up)
	assert.False(t, down)
	assert.NotEmpty(t, desc)

	up, down, desc = DetectTrend([]float64{0, -2.5, -5.1, -7.8}, cfg)
	assert.False(t, up)
	assert.True(t, down)
	assert.NotEmpty(t, desc)

	// One flat day breaks the streak.
	up, down, _ = DetectTrend([]float64{0, 2.5, 3.0, 5.5}, cfg)
	assert.False(t, up)
	assert.False(t, down)

	// Too little history.
	up, down, _ = DetectTrend([]float64{0, 2.5}, cfg)
	assert.False(t, up)
	assert.False(t, down)
}
