package journals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

// Repository persists journals in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository groups the writes that must commit atomically with the
// derived ledger transactions.
type TxRepository interface {
	InsertJournal(ctx context.Context, j Journal) (int64, error)
	UpdateJournal(ctx context.Context, j Journal) error
	DeleteJournal(ctx context.Context, id int64) error
	InsertItems(ctx context.Context, journalID int64, items []Item) error
	DeleteItems(ctx context.Context, journalID int64) error
	Ledger() ledger.TxRepository
}

type txRepository struct {
	tx pgx.Tx
	lg ledger.TxRepository
}

type ledgerTxAdapter struct {
	tx pgx.Tx
}

func (a *ledgerTxAdapter) InsertTransaction(ctx context.Context, txn ledger.Transaction) (int64, error) {
	var id int64
	err := a.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, date, debit, credit, tx_type, head_group, head_value, ref_module, ref_id, is_capital, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW()) RETURNING id`,
		txn.AccountID, txn.Date, txn.Debit, txn.Credit, txn.Type, txn.AccountHead.Group, txn.AccountHead.Value, txn.RefModule, txn.RefID, txn.IsCapitalTransaction).Scan(&id)
	return id, err
}

func (a *ledgerTxAdapter) DeleteTransactionsByRef(ctx context.Context, refModule string, refID string) error {
	_, err := a.tx.Exec(ctx, `DELETE FROM transactions WHERE ref_module=$1 AND ref_id=$2`, refModule, refID)
	return err
}

func (a *ledgerTxAdapter) RecalculateBalance(ctx context.Context, accountID int64) error {
	_, err := a.tx.Exec(ctx, `UPDATE accounts SET current_balance = opening_balance + COALESCE((
SELECT SUM(CASE WHEN is_capital THEN debit + credit ELSE debit - credit END)
FROM transactions WHERE account_id=$1), 0), updated_at = NOW()
WHERE id=$1`, accountID)
	return err
}

// WithTx runs fn inside one repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("journals repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, lg: &ledgerTxAdapter{tx: tx}}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Get loads one journal with its items.
func (r *Repository) Get(ctx context.Context, id int64) (Journal, error) {
	var j Journal
	err := r.pool.QueryRow(ctx, `SELECT id, doc_id, date, reference, description, is_capital, created_at, updated_at
FROM journals WHERE id=$1`, id).
		Scan(&j.ID, &j.DocID, &j.Date, &j.Reference, &j.Description, &j.IsCapitalTransaction, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Journal{}, ErrNotFound
	}
	if err != nil {
		return Journal{}, err
	}
	items, err := r.itemsFor(ctx, j.ID)
	if err != nil {
		return Journal{}, err
	}
	j.Items = items
	return j, nil
}

// ListInRange returns journals dated inside the period, items included.
func (r *Repository) ListInRange(ctx context.Context, from, to time.Time) ([]Journal, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, doc_id, date, reference, description, is_capital, created_at, updated_at
FROM journals WHERE date BETWEEN $1 AND $2 ORDER BY date ASC, id ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	journals := []Journal{}
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.ID, &j.DocID, &j.Date, &j.Reference, &j.Description, &j.IsCapitalTransaction, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		journals = append(journals, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range journals {
		items, err := r.itemsFor(ctx, journals[i].ID)
		if err != nil {
			return nil, err
		}
		journals[i].Items = items
	}
	return journals, nil
}

func (r *Repository) itemsFor(ctx context.Context, journalID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, journal_id, account_id, account_type, head_group, head_value, debit, credit
FROM journal_items WHERE journal_id=$1 ORDER BY id ASC`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.JournalID, &it.AccountID, &it.AccountType, &it.AccountHead.Group, &it.AccountHead.Value, &it.Debit, &it.Credit); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *txRepository) InsertJournal(ctx context.Context, j Journal) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journals (doc_id, date, reference, description, is_capital, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING id`,
		j.DocID, j.Date, j.Reference, j.Description, j.IsCapitalTransaction).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_journals_reference" {
			return 0, ErrDuplicateReference
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) UpdateJournal(ctx context.Context, j Journal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE journals SET date=$2, reference=$3, description=$4, is_capital=$5, updated_at=NOW() WHERE id=$1`,
		j.ID, j.Date, j.Reference, j.Description, j.IsCapitalTransaction)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteJournal(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM journals WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertItems(ctx context.Context, journalID int64, items []Item) error {
	for _, it := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_items (journal_id, account_id, account_type, head_group, head_value, debit, credit)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, journalID, it.AccountID, it.AccountType, it.AccountHead.Group, it.AccountHead.Value, it.Debit, it.Credit); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteItems(ctx context.Context, journalID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_items WHERE journal_id=$1`, journalID)
	return err
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return r.lg
}
