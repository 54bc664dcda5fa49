package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/models"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS completed_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		open_date TEXT NOT NULL,
		close_date TEXT NOT NULL,
		quantity REAL NOT NULL,
		buy_price REAL,
		sell_price REAL,
		strike_price REAL,
		expiration TEXT,
		holding_days INTEGER,
		trade_type TEXT NOT NULL,
		pnl REAL NOT NULL,
		status TEXT NOT NULL,
		source_file TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_completed_trades_symbol ON completed_trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_completed_trades_close_date ON completed_trades(close_date);`

	if _, err := DB.Exec(createTableStatement); err != nil {
		stdlog.Fatalf("failed to create tables: %v", err)
	}

	if logger.L != nil {
		logger.L.Info("Database schema ready", "databasePath", databasePath)
	}
}

// SaveTradeSnapshot replaces the persisted trade journal with the outcome of
// the latest processing run. Full rewrite, not incremental: the run itself is
// always recomputed from the raw files, so the table is just a snapshot.
func SaveTradeSnapshot(trades []models.CompletedTrade) error {
	dbTx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning snapshot transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM completed_trades`); err != nil {
		return fmt.Errorf("error clearing previous snapshot: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO completed_trades
		(symbol, open_date, close_date, quantity, buy_price, sell_price, strike_price, expiration, holding_days, trade_type, pnl, status, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.Exec(t.Symbol, t.OpenDate, t.CloseDate, t.Quantity, t.BuyPrice, t.SellPrice,
			t.StrikePrice, t.Expiration, t.HoldingDays, t.TradeType, t.PnL, t.Status, t.SourceFile); err != nil {
			return fmt.Errorf("error inserting trade (%s %s): %w", t.Symbol, t.CloseDate, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing snapshot: %w", err)
	}
	return nil
}

// LoadTradeSnapshot reads back the last persisted trade journal.
func LoadTradeSnapshot() ([]models.CompletedTrade, error) {
	rows, err := DB.Query(`SELECT symbol, open_date, close_date, quantity, buy_price, sell_price, strike_price, expiration, holding_days, trade_type, pnl, status, source_file
		FROM completed_trades ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying trade snapshot: %w", err)
	}
	defer rows.Close()

	var trades []models.CompletedTrade
	for rows.Next() {
		var t models.CompletedTrade
		if err := rows.Scan(&t.Symbol, &t.OpenDate, &t.CloseDate, &t.Quantity, &t.BuyPrice, &t.SellPrice,
			&t.StrikePrice, &t.Expiration, &t.HoldingDays, &t.TradeType, &t.PnL, &t.Status, &t.SourceFile); err != nil {
			return nil, fmt.Errorf("error scanning trade row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}
