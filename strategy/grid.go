package strategy

import (
	"github.com/rustyeddy/gridtrader/config"
	"github.com/rustyeddy/gridtrader/indicators"
	"github.com/rustyeddy/gridtrader/market"
)

// lotCapitalFraction is the slice of the instrument's capital pool one grid
// lot represents.
const lotCapitalFraction = 0.05

// AnchorPrice picks the reference price grid levels are offset from. In a
// deep dip the 5-period average lags a falling market badly, so the anchor
// tracks the current close; everywhere else it is MA5 when defined.
func AnchorPrice(zone Zone, price, ma5 float64) float64 {
	if zone == DeepDip {
		return price
	}
	if !indicators.Defined(ma5) {
		return price
	}
	return ma5
}

// GridStep computes the volatility-adaptive grid spacing.
//
// The base step is ATR scaled by the zone coefficient, widened or narrowed
// with the ATR/price ratio, and floored at price times the minimum profit
// fraction for the applicable volatility bucket so every grid spacing
// recovers at least the target edge.
func GridStep(atr, price float64, zone Zone, cfg *config.Config) float64 {
	coef, ok := cfg.GridCoefficient[string(zone)]
	if !ok {
		coef = 1.0
	}
	step := atr * coef

	atrPct := 0.0
	if price > 0 {
		atrPct = atr / price
	}

	dg := cfg.DynamicGrid
	switch {
	case atrPct < dg.LowVolatilityATR:
		step *= dg.LowVolMultiplier
	case atrPct > dg.HighVolatilityATR:
		step *= dg.HighVolMultiplier
	}

	minStep := price * minProfitPct(atrPct, cfg.ProfitTargets)
	if step < minStep {
		step = minStep
	}
	return step
}

// minProfitPct selects the minimum profit fraction for the volatility
// bucket: higher volatility demands a higher profit target.
func minProfitPct(atrPct float64, pt config.ProfitTargets) float64 {
	switch {
	case atrPct > pt.HighVolatilityPct:
		return pt.HighTarget
	case atrPct < pt.LowVolatilityPct:
		return pt.LowTarget
	default:
		return pt.NormalTarget
	}
}

// LotAmount sizes the base grid lot: 5% of the capital pool at the anchor
// price, rounded down to a lot multiple and never below one lot.
func LotAmount(anchor float64, cfg *config.Config) int64 {
	if anchor <= 0 {
		return cfg.LotSize
	}
	amount := market.RoundToLot(int64(cfg.CapitalPerInstrument*lotCapitalFraction/anchor), cfg.LotSize)
	if amount < cfg.LotSize {
		amount = cfg.LotSize
	}
	return amount
}
