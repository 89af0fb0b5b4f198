// Package ledger persists the cross-call grid state: open buy/sell pairs,
// per-day trigger marks, and executed trades with realized P&L.
//
// The store is deliberately forgiving: a storage failure is logged and the
// operation degrades to a no-op (writes) or an empty result (reads). One
// instrument's broken ledger row must never abort the evaluation batch.
package ledger

import (
	"database/sql"
	"time"

	"github.com/rustyeddy/gridtrader/market"
)

const (
	// PairOpen marks a buy lot still awaiting its matched sell.
	PairOpen = "OPEN"
	// PairClosed marks a pair whose matched sell has executed.
	PairClosed = "CLOSED"
)

// GridPair is an open buy lot and the sell target that will retire it.
type GridPair struct {
	ID              string
	Code            string
	BuyPrice        float64
	BuyAmount       int64
	TargetSellPrice float64
	Status          string
	CreatedAt       time.Time
	ClosedAt        sql.NullTime
}

// TradeRecord is one executed trade with its realized P&L contribution.
type TradeRecord struct {
	ID          int64
	Code        string
	Direction   market.Direction
	Price       float64
	Volume      int64
	RealizedPnL float64
	Timestamp   time.Time
}

// Ledger is the persistence contract the engine and its collaborators
// depend on. None of the methods report storage errors; see the package
// comment for the degradation policy.
type Ledger interface {
	// IsTriggered reports whether the (date, code, price, direction) grid
	// level has already been signaled. Price matches within an absolute
	// tolerance.
	IsTriggered(date, code string, price float64, direction market.Direction) bool

	// MarkTriggered records the grid level as signaled for the day.
	// Marking an already-marked level is a no-op.
	MarkTriggered(date, code string, price float64, direction market.Direction)

	// AddGridPair opens a new pair and returns its id.
	AddGridPair(code string, buyPrice float64, buyAmount int64, targetSellPrice float64) string

	// ActivePairs returns all OPEN pairs for the code, highest buy price
	// first.
	ActivePairs(code string) []GridPair

	// ClosePair marks the pair CLOSED.
	ClosePair(id string)

	// AddTradeRecord appends an executed trade.
	AddTradeRecord(code string, direction market.Direction, price float64, volume int64, realizedPnL float64)

	// RealizedPnL sums realized P&L over the trade history, restricted to
	// trades at or after since when since is non-zero.
	RealizedPnL(since time.Time) float64
}

// DateKey formats t as the calendar-day key used for trigger dedup.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
