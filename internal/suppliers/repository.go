package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns every supplier with its running balance.
func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, gstin, phone, balance, created_at, updated_at
FROM suppliers ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.GSTIN, &s.Phone, &s.Balance, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get loads one supplier.
func (r *Repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, name, gstin, phone, balance, created_at, updated_at
FROM suppliers WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.GSTIN, &s.Phone, &s.Balance, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

// AdjustBalance applies a relative delta atomically. Callers inside a
// purchase transaction pass their own pgx.Tx so the balance change commits
// with the document write.
func AdjustBalance(ctx context.Context, tx pgx.Tx, supplierID int64, delta float64) error {
	tag, err := tx.Exec(ctx, `UPDATE suppliers SET balance = balance + $2, updated_at = NOW() WHERE id=$1`, supplierID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
