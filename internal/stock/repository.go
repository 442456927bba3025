package stock

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads daily snapshots and live stock from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SnapshotsOn lists all snapshots taken for a day.
func (r *Repository) SnapshotsOn(ctx context.Context, day time.Time) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, location_id, snapshot_date, opening_stock, closing_stock, total_received, total_issued
FROM daily_stock_snapshots WHERE snapshot_date = $1`, day)
	if err != nil {
		return nil, err
	}
	return scanSnapshots(rows)
}

// LatestSnapshotsBefore returns, per product/location, the most recent
// snapshot strictly before the day, within the lookback window.
func (r *Repository) LatestSnapshotsBefore(ctx context.Context, day time.Time, lookback time.Duration) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ON (product_id, location_id)
product_id, location_id, snapshot_date, opening_stock, closing_stock, total_received, total_issued
FROM daily_stock_snapshots
WHERE snapshot_date < $1 AND snapshot_date >= $2
ORDER BY product_id, location_id, snapshot_date DESC`, day, day.Add(-lookback))
	if err != nil {
		return nil, err
	}
	return scanSnapshots(rows)
}

func scanSnapshots(rows pgx.Rows) ([]Snapshot, error) {
	defer rows.Close()
	out := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ProductID, &snap.LocationID, &snap.Date, &snap.OpeningStock, &snap.ClosingStock,
			&snap.TotalReceived, &snap.TotalIssued); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ProductCosts maps product id to its current default purchase price before tax.
func (r *Repository) ProductCosts(ctx context.Context) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, default_purchase_price_exc_tax FROM products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	costs := map[int64]float64{}
	for rows.Next() {
		var id int64
		var cost float64
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, err
		}
		costs[id] = cost
	}
	return costs, rows.Err()
}

// ListLiveStock lists current on-hand quantities across all locations.
func (r *Repository) ListLiveStock(ctx context.Context) ([]LiveStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, location_id, quantity FROM product_stock`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LiveStock{}
	for rows.Next() {
		var item LiveStock
		if err := rows.Scan(&item.ProductID, &item.LocationID, &item.Quantity); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// InsertSnapshots writes snapshot rows in one batch. Conflicting rows are
// left untouched so concurrent initialization stays idempotent.
func (r *Repository) InsertSnapshots(ctx context.Context, snapshots []Snapshot) error {
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`INSERT INTO daily_stock_snapshots (product_id, location_id, snapshot_date, opening_stock, closing_stock, total_received, total_issued)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (product_id, location_id, snapshot_date) DO NOTHING`,
			snap.ProductID, snap.LocationID, snap.Date, snap.OpeningStock, snap.ClosingStock, snap.TotalReceived, snap.TotalIssued)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range snapshots {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
