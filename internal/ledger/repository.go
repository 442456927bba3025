package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists accounts and transactions in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by services in other
// modules (journals, purchases, sales) that post ledger movements.
type TxRepository interface {
	InsertTransaction(ctx context.Context, txn Transaction) (int64, error)
	DeleteTransactionsByRef(ctx context.Context, refModule string, refID string) error
	RecalculateBalance(ctx context.Context, accountID int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ListAccounts returns every chart-of-accounts account.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, account_number, head_group, head_value, opening_balance, current_balance, created_at, updated_at
FROM accounts ORDER BY account_number ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := []Account{}
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.AccountNumber, &acc.Head.Group, &acc.Head.Value, &acc.OpeningBalance, &acc.CurrentBalance, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// GetAccount loads a single account.
func (r *Repository) GetAccount(ctx context.Context, id int64) (Account, error) {
	var acc Account
	err := r.pool.QueryRow(ctx, `SELECT id, name, account_number, head_group, head_value, opening_balance, current_balance, created_at, updated_at
FROM accounts WHERE id=$1`, id).
		Scan(&acc.ID, &acc.Name, &acc.AccountNumber, &acc.Head.Group, &acc.Head.Value, &acc.OpeningBalance, &acc.CurrentBalance, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return acc, err
}

// ListTransactions returns the movements for an account dated on or before asOf,
// oldest first.
func (r *Repository) ListTransactions(ctx context.Context, accountID int64, asOf time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, account_id, date, debit, credit, tx_type, head_group, head_value, ref_module, ref_id, is_capital, created_at
FROM transactions WHERE account_id=$1 AND date <= $2 ORDER BY date ASC, id ASC`, accountID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Date, &t.Debit, &t.Credit, &t.Type, &t.AccountHead.Group, &t.AccountHead.Value, &t.RefModule, &t.RefID, &t.IsCapitalTransaction, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *txRepository) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, date, debit, credit, tx_type, head_group, head_value, ref_module, ref_id, is_capital, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW()) RETURNING id`,
		txn.AccountID, txn.Date, txn.Debit, txn.Credit, txn.Type, txn.AccountHead.Group, txn.AccountHead.Value, txn.RefModule, txn.RefID, txn.IsCapitalTransaction).Scan(&id)
	return id, err
}

func (r *txRepository) DeleteTransactionsByRef(ctx context.Context, refModule string, refID string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE ref_module=$1 AND ref_id=$2`, refModule, refID)
	return err
}

// RecalculateBalance rewrites current_balance from the opening balance plus
// the full transaction history, honouring the capital summation rule.
func (r *txRepository) RecalculateBalance(ctx context.Context, accountID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = opening_balance + COALESCE((
SELECT SUM(CASE WHEN is_capital THEN debit + credit ELSE debit - credit END)
FROM transactions WHERE account_id=$1), 0), updated_at = NOW()
WHERE id=$1`, accountID)
	return err
}
