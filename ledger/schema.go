package ledger

const schema = `
CREATE TABLE IF NOT EXISTS triggered_grids (
	date TEXT NOT NULL,
	code TEXT NOT NULL,
	price REAL NOT NULL,
	direction TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	PRIMARY KEY (date, code, price, direction)
);

CREATE TABLE IF NOT EXISTS grid_pairs (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	buy_price REAL NOT NULL,
	buy_amount INTEGER NOT NULL,
	target_sell_price REAL NOT NULL,
	status TEXT NOT NULL DEFAULT 'OPEN',
	created_at DATETIME NOT NULL,
	closed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_grid_pairs_code_status ON grid_pairs(code, status);

CREATE TABLE IF NOT EXISTS trade_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL,
	direction TEXT NOT NULL,
	price REAL NOT NULL,
	volume INTEGER NOT NULL,
	realized_pnl REAL NOT NULL DEFAULT 0,
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_history_timestamp ON trade_history(timestamp);
`
