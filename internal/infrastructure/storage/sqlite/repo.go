package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS transactions (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  trade_date TEXT NOT NULL,
  stock_code TEXT NOT NULL,
  stock_name TEXT NOT NULL,
  side TEXT NOT NULL CHECK (side IN ('Buy', 'Sell')),
  quantity REAL NOT NULL,
  price REAL NOT NULL,
  fee REAL NOT NULL DEFAULT 0,
  tax REAL NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_code ON transactions(stock_code);
`)
	return err
}

func (r *Repo) List(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT trade_date, stock_code, stock_name, side, quantity, price, fee, tax
FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]model.Transaction, 0)
	for rows.Next() {
		var tx model.Transaction
		var side string
		if err := rows.Scan(&tx.Date, &tx.InstrumentID, &tx.DisplayName, &side, &tx.Quantity, &tx.UnitPrice, &tx.Fee, &tx.Tax); err != nil {
			return nil, err
		}
		tx.Side = model.Side(side)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *Repo) Append(ctx context.Context, txs ...model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertAll(ctx, tx, txs); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Repo) Replace(ctx context.Context, txs []model.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertAll(ctx, tx, txs); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertAll(ctx context.Context, tx *sql.Tx, txs []model.Transaction) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO transactions(trade_date, stock_code, stock_name, side, quantity, price, fee, tax, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx, t.Date, t.InstrumentID, t.DisplayName, string(t.Side), t.Quantity, t.UnitPrice, t.Fee, t.Tax, now); err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}
	return nil
}

var _ port.TransactionRepository = (*Repo)(nil)
