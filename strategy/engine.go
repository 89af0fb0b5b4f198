package strategy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/gridtrader/config"
	"github.com/rustyeddy/gridtrader/indicators"
	"github.com/rustyeddy/gridtrader/ledger"
	"github.com/rustyeddy/gridtrader/market"
)

// minHistory is the least candle history worth evaluating at all.
const minHistory = 5

// PairSource supplies the open grid pairs for an instrument. The SQLite
// ledger satisfies it; tests substitute fixtures.
type PairSource interface {
	ActivePairs(code string) []ledger.GridPair
}

// Engine is the per-instrument decision engine. It is stateless between
// calls apart from the injected pair source; concurrent evaluations of
// different instrument codes are safe, callers must serialize evaluations
// of the same code.
type Engine struct {
	cfg   *config.Config
	pairs PairSource
	log   *zap.Logger
}

// New constructs an engine over an immutable configuration. pairs may be
// nil, in which case no pair exits are ever proposed.
func New(cfg *config.Config, pairs PairSource, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, pairs: pairs, log: log}
}

// Analyze evaluates one instrument and returns its trade plan. It never
// returns an error: insufficient history or indicators surface as sentinel
// statuses with an empty order list.
func (e *Engine) Analyze(code string, candles []market.Candle, holding market.Holding) *TradePlan {
	plan := &TradePlan{Code: code}

	if len(candles) < minHistory {
		plan.Status = StatusInsufficientData
		plan.warn("not enough candle history")
		return plan
	}

	frame := indicators.Compute(candles)
	last := frame.Len() - 1
	price := frame.Candles[last].Close
	plan.CurrentPrice = price

	bias := frame.Bias20[last]
	atr := frame.ATR14[last]
	if !indicators.Defined(bias) || !indicators.Defined(atr) {
		plan.Status = StatusInsufficientIndicators
		return plan
	}

	prevBias := frame.Bias20[last-1]
	rsi := frame.RSI14[last]
	kdjJ := frame.KDJJ[last]
	plan.CurrentBias = bias

	zone, switched := Classify(bias, prevBias, e.cfg.Thresholds)
	plan.Zone = zone
	plan.Status = string(zone)
	if switched {
		plan.Status = StatusOscillationSwitch
	}
	plan.TargetPositionPct = e.cfg.TargetPosition[string(zone)]
	plan.Support, plan.Resistance = indicators.SupportResistance(candles, supportResistanceLookback)

	if indicators.Defined(rsi) && rsi > e.cfg.RSI.Overbought {
		plan.warn(fmt.Sprintf("RSI overbought (%.1f > %.0f); new buys paused", rsi, e.cfg.RSI.Overbought))
	}
	if zone == DeepDip && indicators.Defined(kdjJ) && kdjJ < kdjOversold {
		plan.warn(fmt.Sprintf("KDJ oversold (J=%.1f); possible bottoming signal", kdjJ))
	}

	// Escape top: above this boundary the target collapses to zero and
	// only the sell side of the grid remains reachable.
	if bias > e.cfg.Thresholds.EscapeTopHigh {
		zone = EscapeHigh
		plan.Zone = EscapeHigh
		plan.Status = StatusEscapeHigh
		plan.TargetPositionPct = 0
	}

	ctx := &evalContext{
		cfg:     e.cfg,
		plan:    plan,
		frame:   frame,
		zone:    zone,
		price:   price,
		atr:     atr,
		rsi:     rsi,
		anchor:  AnchorPrice(zone, price, frame.MA5[last]),
		holding: holding,
		avail:   holding.Available,
		pairs:   e.activePairs(code),
	}

	for _, rule := range riskPipeline {
		if rule(ctx) {
			e.log.Debug("risk rule terminated evaluation",
				zap.String("code", code),
				zap.String("status", plan.Status),
				zap.Int("orders", len(plan.Orders)))
			return plan
		}
	}

	e.generateGrid(ctx)

	e.log.Debug("plan built",
		zap.String("code", code),
		zap.String("status", plan.Status),
		zap.Float64("bias", bias),
		zap.Int("orders", len(plan.Orders)))
	return plan
}

func (e *Engine) activePairs(code string) []ledger.GridPair {
	if e.pairs == nil {
		return nil
	}
	return e.pairs.ActivePairs(code)
}

// generateGrid emits the standard grid orders for the zone. Reached only
// when no terminal risk rule fired.
func (e *Engine) generateGrid(ctx *evalContext) {
	step := GridStep(ctx.atr, ctx.price, ctx.zone, e.cfg)
	lot := LotAmount(ctx.anchor, e.cfg)
	heavyLot := market.RoundToLot(lot*3/2, e.cfg.LotSize)

	switch {
	case ctx.zone == DeepDip:
		// Aggressive accumulation. Deliberately ignores the risk flag
		// and the trend lock; only an overbought RSI stands down.
		if ctx.rsi > e.cfg.RSI.Overbought {
			return
		}
		ctx.plan.Orders = append(ctx.plan.Orders,
			GridOrder{
				Direction: market.Buy,
				Price:     ctx.anchor - step,
				Amount:    heavyLot,
				Type:      market.Limit,
				Desc:      "deep dip grid buy 1",
			},
			GridOrder{
				Direction: market.Buy,
				Price:     ctx.anchor - 2*step,
				Amount:    heavyLot,
				Type:      market.Limit,
				Desc:      "deep dip grid buy 2",
			},
		)

	case ctx.zone == ReduceZone || ctx.zone == EscapeZone || ctx.zone == EscapeHigh:
		if ctx.avail > 0 && !ctx.downtrend {
			amount := heavyLot
			if ctx.avail < amount {
				amount = market.RoundToLot(ctx.avail, e.cfg.LotSize)
			}
			if amount > 0 {
				ctx.plan.Orders = append(ctx.plan.Orders, GridOrder{
					Direction: market.Sell,
					Price:     ctx.anchor + step,
					Amount:    amount,
					Type:      market.Limit,
					Desc:      "reduce grid sell 1",
				})
			}
		}

	default: // OSCILLATION / GOLD_ZONE
		if !ctx.plan.RiskTriggered && !ctx.uptrend && ctx.rsi < e.cfg.RSI.Overbought {
			ctx.plan.Orders = append(ctx.plan.Orders, GridOrder{
				Direction: market.Buy,
				Price:     ctx.anchor - step,
				Amount:    lot,
				Type:      market.Limit,
				Desc:      "grid buy 1",
			})
		}
		if ctx.avail > 0 && !ctx.downtrend {
			amount := lot
			if ctx.avail < amount {
				amount = market.RoundToLot(ctx.avail, e.cfg.LotSize)
			}
			if amount > 0 {
				ctx.plan.Orders = append(ctx.plan.Orders, GridOrder{
					Direction: market.Sell,
					Price:     ctx.anchor + step,
					Amount:    amount,
					Type:      market.Limit,
					Desc:      "grid sell 1",
				})
			}
		}
	}
}
