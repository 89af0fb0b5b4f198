// Package market holds the shared vocabulary of the engine: candles,
// holdings, and order primitives exchanged with external collaborators.
package market

import "time"

// Candle represents OHLCV (Open, High, Low, Close, Volume) candlestick data
// for one trading period.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	time.Time
}

// Holding is the current position in a single instrument, supplied by an
// external holdings collaborator. Available may be lower than Volume when
// part of the position is locked (T+1 settlement, open orders).
type Holding struct {
	Volume    int64   `json:"volume" yaml:"volume"`
	Available int64   `json:"available" yaml:"available"`
	AvgCost   float64 `json:"avg_cost" yaml:"avg_cost"`
}
