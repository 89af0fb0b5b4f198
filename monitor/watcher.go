// Package monitor matches live prices against a plan's pending grid orders
// and guarantees each grid level signals at most once per calendar day.
package monitor

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/gridtrader/config"
	"github.com/rustyeddy/gridtrader/ledger"
	"github.com/rustyeddy/gridtrader/market"
	"github.com/rustyeddy/gridtrader/strategy"
)

// TriggerLedger is the slice of the ledger the watcher needs for day-scoped
// dedup.
type TriggerLedger interface {
	IsTriggered(date, code string, price float64, direction market.Direction) bool
	MarkTriggered(date, code string, price float64, direction market.Direction)
}

// Signal is a grid order whose price level has been touched.
type Signal struct {
	Code         string
	Order        strategy.GridOrder
	CurrentPrice float64
}

// Watcher tracks each instrument's pending plan orders between refreshes.
// Safe for concurrent Track/CheckTriggers calls.
type Watcher struct {
	cfg    *config.Config
	ledger TriggerLedger
	log    *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string][]strategy.GridOrder
}

// New builds a watcher over the trigger ledger.
func New(cfg *config.Config, l TriggerLedger, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		cfg:     cfg,
		ledger:  l,
		log:     log,
		now:     time.Now,
		pending: make(map[string][]strategy.GridOrder),
	}
}

// Track replaces the pending orders for the plan's instrument. A plan with
// no orders clears the watch.
func (w *Watcher) Track(plan *strategy.TradePlan) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(plan.Orders) == 0 {
		delete(w.pending, plan.Code)
		return
	}
	w.pending[plan.Code] = append([]strategy.GridOrder(nil), plan.Orders...)
}

// CheckTriggers compares the latest prices against every pending order. An
// order fires when price is within the alert distance of its level and the
// (day, code, price, direction) key has not fired today; firing marks the
// key so repeated refreshes stay quiet.
func (w *Watcher) CheckTriggers(prices map[string]float64) []Signal {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := ledger.DateKey(w.now())
	var fired []Signal

	for code, orders := range w.pending {
		price, ok := prices[code]
		if !ok || price <= 0 {
			continue
		}

		for _, order := range orders {
			if order.Price <= 0 {
				continue
			}
			if w.ledger.IsTriggered(date, code, order.Price, order.Direction) {
				continue
			}

			deviation := math.Abs(price-order.Price) / order.Price
			if deviation > w.cfg.Monitor.AlertPct {
				continue
			}

			w.ledger.MarkTriggered(date, code, order.Price, order.Direction)
			fired = append(fired, Signal{Code: code, Order: order, CurrentPrice: price})

			w.log.Info("grid level touched",
				zap.String("code", code),
				zap.String("direction", string(order.Direction)),
				zap.Float64("level", order.Price),
				zap.Float64("price", price),
				zap.String("desc", order.Desc))
		}
	}
	return fired
}
