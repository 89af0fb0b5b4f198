package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rustyeddy/gridtrader/market"
	"github.com/rustyeddy/gridtrader/pkg/id"
)

// priceTolerance is the absolute tolerance for trigger price equality.
// It is fixed, not relative to the instrument's price scale.
const priceTolerance = 1e-4

// Store is the SQLite-backed Ledger. A single pooled *sql.DB is shared by
// all operations; each operation is its own short-lived implicit
// transaction, idempotency comes from the trigger primary key rather than
// locking.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

var _ Ledger = (*Store)(nil)

// Open opens (creating if necessary) the ledger database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	return &Store{db: db, log: log, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) IsTriggered(date, code string, price float64, direction market.Direction) bool {
	row := s.db.QueryRow(`
		SELECT 1 FROM triggered_grids
		WHERE date = ? AND code = ? AND ABS(price - ?) < ? AND direction = ?`,
		date, code, price, priceTolerance, direction,
	)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		s.log.Error("ledger: trigger lookup failed",
			zap.String("code", code), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) MarkTriggered(date, code string, price float64, direction market.Direction) {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO triggered_grids (date, code, price, direction, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		date, code, price, direction, s.now().UTC(),
	)
	if err != nil {
		s.log.Error("ledger: mark trigger failed",
			zap.String("code", code), zap.Float64("price", price), zap.Error(err))
	}
}

func (s *Store) AddGridPair(code string, buyPrice float64, buyAmount int64, targetSellPrice float64) string {
	pairID := id.New()
	_, err := s.db.Exec(`
		INSERT INTO grid_pairs (id, code, buy_price, buy_amount, target_sell_price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pairID, code, buyPrice, buyAmount, targetSellPrice, PairOpen, s.now().UTC(),
	)
	if err != nil {
		s.log.Error("ledger: add grid pair failed",
			zap.String("code", code), zap.Float64("buy_price", buyPrice), zap.Error(err))
		return ""
	}

	s.log.Info("ledger: grid pair opened",
		zap.String("id", pairID),
		zap.String("code", code),
		zap.Float64("buy_price", buyPrice),
		zap.Float64("target_sell_price", targetSellPrice))
	return pairID
}

func (s *Store) ActivePairs(code string) []GridPair {
	rows, err := s.db.Query(`
		SELECT id, code, buy_price, buy_amount, target_sell_price, status, created_at, closed_at
		FROM grid_pairs
		WHERE code = ? AND status = ?
		ORDER BY buy_price DESC`,
		code, PairOpen,
	)
	if err != nil {
		s.log.Error("ledger: active pairs query failed",
			zap.String("code", code), zap.Error(err))
		return nil
	}
	defer rows.Close()

	var pairs []GridPair
	for rows.Next() {
		var p GridPair
		if err := rows.Scan(
			&p.ID, &p.Code, &p.BuyPrice, &p.BuyAmount,
			&p.TargetSellPrice, &p.Status, &p.CreatedAt, &p.ClosedAt,
		); err != nil {
			s.log.Error("ledger: active pairs scan failed",
				zap.String("code", code), zap.Error(err))
			return nil
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("ledger: active pairs iteration failed",
			zap.String("code", code), zap.Error(err))
		return nil
	}
	return pairs
}

func (s *Store) ClosePair(pairID string) {
	_, err := s.db.Exec(`
		UPDATE grid_pairs SET status = ?, closed_at = ? WHERE id = ?`,
		PairClosed, s.now().UTC(), pairID,
	)
	if err != nil {
		s.log.Error("ledger: close pair failed",
			zap.String("id", pairID), zap.Error(err))
		return
	}
	s.log.Info("ledger: grid pair closed", zap.String("id", pairID))
}

func (s *Store) AddTradeRecord(code string, direction market.Direction, price float64, volume int64, realizedPnL float64) {
	_, err := s.db.Exec(`
		INSERT INTO trade_history (code, direction, price, volume, realized_pnl, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		code, direction, price, volume, realizedPnL, s.now().UTC(),
	)
	if err != nil {
		s.log.Error("ledger: add trade record failed",
			zap.String("code", code), zap.Error(err))
	}
}

func (s *Store) RealizedPnL(since time.Time) float64 {
	var (
		row *sql.Row
	)
	if since.IsZero() {
		row = s.db.QueryRow(`SELECT COALESCE(SUM(realized_pnl), 0) FROM trade_history`)
	} else {
		row = s.db.QueryRow(`
			SELECT COALESCE(SUM(realized_pnl), 0) FROM trade_history
			WHERE timestamp >= ?`, since.UTC())
	}

	var total float64
	if err := row.Scan(&total); err != nil {
		s.log.Error("ledger: realized pnl query failed", zap.Error(err))
		return 0
	}
	return total
}

// ListTrades returns the trade history for a code in chronological order,
// restricted to trades at or after since when since is non-zero.
func (s *Store) ListTrades(code string, since time.Time) []TradeRecord {
	rows, err := s.db.Query(`
		SELECT id, code, direction, price, volume, realized_pnl, timestamp
		FROM trade_history
		WHERE code = ? AND (? OR timestamp >= ?)
		ORDER BY timestamp ASC`,
		code, since.IsZero(), since.UTC(),
	)
	if err != nil {
		s.log.Error("ledger: trade history query failed",
			zap.String("code", code), zap.Error(err))
		return nil
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.ID, &rec.Code, &rec.Direction, &rec.Price,
			&rec.Volume, &rec.RealizedPnL, &rec.Timestamp,
		); err != nil {
			s.log.Error("ledger: trade history scan failed",
				zap.String("code", code), zap.Error(err))
			return nil
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("ledger: trade history iteration failed",
			zap.String("code", code), zap.Error(err))
		return nil
	}
	return out
}
