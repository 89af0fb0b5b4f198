package strategy

import (
	"fmt"
	"math"

	"github.com/rustyeddy/gridtrader/config"
	"github.com/rustyeddy/gridtrader/indicators"
	"github.com/rustyeddy/gridtrader/ledger"
	"github.com/rustyeddy/gridtrader/market"
)

const (
	// recentHighLookback is the trailing window for the stop's reference
	// high; supportResistanceLookback bounds the reported levels.
	recentHighLookback        = 20
	supportResistanceLookback = 20

	// trailingStopATRMultiple: retracement beyond this many ATRs from the
	// recent high forces liquidation of half the position.
	trailingStopATRMultiple = 3.0

	// rebalanceThreshold is the target/current position deviation that
	// triggers a forced top-up; rebalanceDamping closes only half the gap
	// to avoid a one-shot market impact.
	rebalanceThreshold = 0.15
	rebalanceDamping   = 0.5

	// pairExitTolerance lets a pair exit fire slightly below its target
	// so the limit order rests before the level trades through.
	pairExitTolerance = 0.995

	kdjOversold = 10.0
)

// evalContext is the per-evaluation state threaded through the risk rules
// and grid generation. avail is a local counter so multiple pair exits
// cannot double-book the same shares.
type evalContext struct {
	cfg  *config.Config
	plan *TradePlan

	frame  *indicators.Frame
	zone   Zone
	price  float64
	atr    float64
	rsi    float64
	anchor float64

	holding market.Holding
	avail   int64

	uptrend   bool
	downtrend bool

	pairs []ledger.GridPair
}

// riskRule evaluates one stage of the pipeline. Returning true is terminal:
// the plan is finished and every later stage, including grid generation,
// is skipped for this call.
type riskRule func(*evalContext) bool

// riskPipeline is the strict priority order of the risk controls. The
// trailing stop outranks the rebalance; the pair exits, circuit breaker and
// trend lock are advisory and never terminate on their own.
var riskPipeline = []riskRule{
	trailingStop,
	rebalance,
	pairExit,
	drawdownBreaker,
	trendLock,
}

// trailingStop forces a market sell of half the position when price has
// retraced more than 3 ATRs from the 20-period high. Terminal only when the
// sell is actually emitted; with nothing available the risk flag is still
// raised so later buy decisions stand down.
func trailingStop(ctx *evalContext) bool {
	recentHigh := indicators.RecentHigh(ctx.frame.Candles, recentHighLookback)
	if !indicators.Defined(recentHigh) {
		return false
	}

	retracement := recentHigh - ctx.price
	if retracement <= trailingStopATRMultiple*ctx.atr || ctx.holding.Volume <= 0 {
		return false
	}

	ctx.plan.warn(fmt.Sprintf("ATR trailing stop: retracement %.3f > %.0f*ATR %.3f",
		retracement, trailingStopATRMultiple, trailingStopATRMultiple*ctx.atr))
	ctx.plan.RiskTriggered = true

	sellVol := ctx.holding.Volume / 2
	if sellVol < ctx.cfg.LotSize {
		sellVol = ctx.cfg.LotSize
	}
	sellVol = market.RoundToLot(sellVol, ctx.cfg.LotSize)
	if sellVol <= 0 || ctx.avail <= 0 {
		return false
	}

	amount := sellVol
	if ctx.avail < amount {
		amount = ctx.avail
	}
	amount = market.RoundToLot(amount, ctx.cfg.LotSize)
	if amount <= 0 {
		return false
	}

	ctx.plan.Orders = append(ctx.plan.Orders, GridOrder{
		Direction: market.Sell,
		Price:     ctx.price,
		Amount:    amount,
		Type:      market.Market,
		Desc:      "ATR trailing stop",
	})
	return true
}

// rebalance issues a damped market buy when the position sits far below its
// zone target. Only accumulation zones qualify, and a raised risk flag
// (a trailing stop that could not fill, a tripped breaker) blocks it.
func rebalance(ctx *evalContext) bool {
	if ctx.plan.RiskTriggered {
		return false
	}
	if ctx.zone != DeepDip && ctx.zone != GoldZone {
		return false
	}

	capital := ctx.cfg.CapitalPerInstrument
	if capital <= 0 || ctx.price <= 0 {
		return false
	}

	currentPct := ctx.price * float64(ctx.holding.Volume) / capital
	deviation := ctx.plan.TargetPositionPct - currentPct
	if deviation <= rebalanceThreshold {
		return false
	}

	amount := market.RoundToLot(int64(capital*deviation*rebalanceDamping/ctx.price), ctx.cfg.LotSize)
	if amount <= 0 {
		return false
	}

	ctx.plan.Orders = append(ctx.plan.Orders, GridOrder{
		Direction: market.Buy,
		Price:     ctx.price,
		Amount:    amount,
		Type:      market.Market,
		Desc: fmt.Sprintf("rebalance top-up: deviation %.1f%% > %.0f%%",
			deviation*100, rebalanceThreshold*100),
	})
	ctx.plan.warn("rebalance: position far below target, market buy takes priority")
	return true
}

// pairExit proposes the matched sell for every open pair whose target is
// within tolerance. Pairs stay open here; closing is driven by execution
// confirmation. The local available counter prevents two pairs from
// claiming the same shares.
func pairExit(ctx *evalContext) bool {
	for _, p := range ctx.pairs {
		if p.BuyAmount <= 0 || ctx.price < p.TargetSellPrice*pairExitTolerance {
			continue
		}
		if ctx.avail < p.BuyAmount {
			continue
		}

		ctx.plan.Orders = append(ctx.plan.Orders, GridOrder{
			Direction: market.Sell,
			Price:     math.Max(ctx.price, p.TargetSellPrice),
			Amount:    p.BuyAmount,
			Type:      market.Limit,
			Desc:      fmt.Sprintf("pair take-profit (id %s)", p.ID),
		})
		ctx.avail -= p.BuyAmount
		ctx.plan.warn(fmt.Sprintf("pair take-profit triggered: id %s target %.3f", p.ID, p.TargetSellPrice))
	}
	return false
}

// drawdownBreaker pauses new buying when the unrealized loss breaches the
// configured limit. Advisory: the flag and warning are consumed downstream.
func drawdownBreaker(ctx *evalContext) bool {
	if ctx.holding.Volume <= 0 || ctx.holding.AvgCost <= 0 {
		return false
	}

	pnlPct := (ctx.price - ctx.holding.AvgCost) / ctx.holding.AvgCost
	if pnlPct < ctx.cfg.MaxDrawdownLimit {
		ctx.plan.warn(fmt.Sprintf("drawdown circuit breaker: unrealized %.2f%% below limit %.2f%%; new buys paused",
			pnlPct*100, ctx.cfg.MaxDrawdownLimit*100))
		ctx.plan.RiskTriggered = true
	}
	return false
}

// trendLock suppresses buys in a sustained bias uptrend and sells in a
// sustained downtrend. Advisory.
func trendLock(ctx *evalContext) bool {
	up, down, desc := DetectTrend(ctx.frame.Bias20, ctx.cfg.Trend)
	ctx.uptrend, ctx.downtrend = up, down

	if up {
		ctx.plan.warn(desc + "; new buys paused")
	}
	if down {
		ctx.plan.warn(desc + "; new sells paused")
	}
	return false
}

// DetectTrend reports a sustained trend when the bias change on each of the
// last LookbackDays days clears the threshold in the same direction.
// Undefined bias values fail both comparisons, so partial warm-up windows
// never declare a trend.
func DetectTrend(bias []float64, cfg config.TrendTracking) (up, down bool, desc string) {
	days := cfg.LookbackDays
	if days <= 0 || len(bias) < days+1 {
		return false, false, ""
	}

	recent := bias[len(bias)-(days+1):]
	up, down = true, true
	for i := 0; i < days; i++ {
		change := recent[i+1] - recent[i]
		if !(change > cfg.Threshold) {
			up = false
		}
		if !(change < -cfg.Threshold) {
			down = false
		}
	}

	switch {
	case up:
		desc = fmt.Sprintf("%d-day uptrend (daily bias change > +%.1f)", days, cfg.Threshold)
	case down:
		desc = fmt.Sprintf("%d-day downtrend (daily bias change < -%.1f)", days, cfg.Threshold)
	}
	return up, down, desc
}
