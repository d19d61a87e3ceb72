package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"folio/internal/application/port"
	"folio/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS transactions (
  seq BIGSERIAL PRIMARY KEY,
  trade_date TEXT NOT NULL,
  stock_code TEXT NOT NULL,
  stock_name TEXT NOT NULL,
  side TEXT NOT NULL CHECK (side IN ('Buy', 'Sell')),
  quantity DOUBLE PRECISION NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  fee DOUBLE PRECISION NOT NULL DEFAULT 0,
  tax DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return insertAll(ctx, tx, txs)
	})
}

func (r *Repo) Replace(ctx context.Context, txs []model.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return err
		}
		return insertAll(ctx, tx, txs)
	})
}

func (r *Repo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertAll(ctx context.Context, tx *sql.Tx, txs []model.Transaction) error {
	for i, t := range txs {
		_, err := tx.ExecContext(ctx, `
INSERT INTO transactions(trade_date, stock_code, stock_name, side, quantity, price, fee, tax)
VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.Date, t.InstrumentID, t.DisplayName, string(t.Side), t.Quantity, t.UnitPrice, t.Fee, t.Tax)
		if err != nil {
			return fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}
	return nil
}

var _ port.TransactionRepository = (*Repo)(nil)
