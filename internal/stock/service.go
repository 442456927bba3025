package stock

import (
	"context"
	"fmt"
	"time"
)

// RepositoryPort describes the snapshot and product reads the valuation needs.
type RepositoryPort interface {
	SnapshotsOn(ctx context.Context, day time.Time) ([]Snapshot, error)
	LatestSnapshotsBefore(ctx context.Context, day time.Time, lookback time.Duration) ([]Snapshot, error)
	ProductCosts(ctx context.Context) (map[int64]float64, error)
	ListLiveStock(ctx context.Context) ([]LiveStock, error)
	InsertSnapshots(ctx context.Context, snapshots []Snapshot) error
}

// Service values inventory from daily snapshots.
type Service struct {
	repo RepositoryPort

	// how far back to look for a prior snapshot when a day has none
	lookback time.Duration
}

// NewService constructs the stock valuation service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, lookback: 90 * 24 * time.Hour}
}

// StockValueForDate values inventory on a day. Each product/location uses its
// same-day snapshot when one exists. Opening valuations fall back to the most
// recent prior snapshot's closing stock; closing valuations do not, so a
// snapshot-gap day values its closing stock at zero. Quantities are priced at
// the product's current default purchase cost, so historical valuations drift
// when costs change.
func (s *Service) StockValueForDate(ctx context.Context, day time.Time, kind ValuationKind) (float64, error) {
	if kind != ValuationOpening && kind != ValuationClosing {
		return 0, ErrInvalidKind
	}
	costs, err := s.repo.ProductCosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("stock: load costs: %w", err)
	}
	sameDay, err := s.repo.SnapshotsOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("stock: load snapshots: %w", err)
	}

	type key struct{ productID, locationID int64 }
	quantities := make(map[key]float64, len(sameDay))
	if kind == ValuationOpening {
		prior, err := s.repo.LatestSnapshotsBefore(ctx, day, s.lookback)
		if err != nil {
			return 0, fmt.Errorf("stock: load prior snapshots: %w", err)
		}
		for _, snap := range prior {
			quantities[key{snap.ProductID, snap.LocationID}] = snap.ClosingStock
		}
	}
	for _, snap := range sameDay {
		qty := snap.ClosingStock
		if kind == ValuationOpening {
			qty = snap.OpeningStock
		}
		quantities[key{snap.ProductID, snap.LocationID}] = qty
	}

	var total float64
	for k, qty := range quantities {
		total += qty * costs[k.productID]
	}
	return total, nil
}

// InitializeDailySnapshotsIfNeeded creates the day's snapshot rows from live
// stock when none exist yet. Returns the number of rows created; calling it
// again for the same day is a no-op.
func (s *Service) InitializeDailySnapshotsIfNeeded(ctx context.Context, day time.Time) (int, error) {
	existing, err := s.repo.SnapshotsOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("stock: check snapshots: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	live, err := s.repo.ListLiveStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("stock: load live stock: %w", err)
	}
	if len(live) == 0 {
		return 0, nil
	}
	snapshots := make([]Snapshot, 0, len(live))
	for _, item := range live {
		snapshots = append(snapshots, Snapshot{
			ProductID:    item.ProductID,
			LocationID:   item.LocationID,
			Date:         day,
			OpeningStock: item.Quantity,
			ClosingStock: item.Quantity,
		})
	}
	if err := s.repo.InsertSnapshots(ctx, snapshots); err != nil {
		return 0, fmt.Errorf("stock: insert snapshots: %w", err)
	}
	return len(snapshots), nil
}
