// Package strategy implements the grid decision engine: zone
// classification from BIAS(20), volatility-adaptive grid sizing, the
// ordered risk-control pipeline, and assembly of the final trade plan.
package strategy

import "github.com/rustyeddy/gridtrader/market"

// Statuses reported on a TradePlan besides the five zone names.
const (
	// StatusInsufficientData is returned when the candle history is too
	// short to evaluate at all.
	StatusInsufficientData = "INSUFFICIENT_DATA"

	// StatusInsufficientIndicators is returned when the history exists
	// but the BIAS/ATR windows have not filled yet.
	StatusInsufficientIndicators = "INSUFFICIENT_INDICATORS"

	// StatusOscillationSwitch marks the trend-reversal override that
	// forces the oscillation regime after a sharp pullback.
	StatusOscillationSwitch = "OSCILLATION (SWITCH)"

	// StatusEscapeHigh marks bias above the escape-top boundary; the
	// position target collapses to zero.
	StatusEscapeHigh = "ESCAPE_HIGH"
)

// GridOrder is one proposed order. It is a suggestion only; execution and
// fills belong to external collaborators.
type GridOrder struct {
	Direction market.Direction `json:"direction"`
	Price     float64          `json:"price"`
	Amount    int64            `json:"amount"`
	Type      market.OrderType `json:"type"`
	Desc      string           `json:"desc"`
}

// TradePlan is the full output of one evaluation. It is always returned,
// never an error: data problems surface through Status and Warnings so
// callers can render the same shape in every case.
type TradePlan struct {
	Code         string  `json:"code"`
	CurrentPrice float64 `json:"current_price"`
	CurrentBias  float64 `json:"current_bias"`

	Zone   Zone   `json:"zone"`
	Status string `json:"status"`

	TargetPositionPct float64 `json:"target_position_pct"`

	Orders   []GridOrder `json:"orders"`
	Warnings []string    `json:"warnings"`

	// RiskTriggered is set by the trailing stop and the drawdown circuit
	// breaker; buy generation consults it.
	RiskTriggered bool `json:"risk_triggered"`

	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

func (p *TradePlan) warn(msg string) {
	p.Warnings = append(p.Warnings, msg)
}
