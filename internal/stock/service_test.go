package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	snapshots []Snapshot
	costs     map[int64]float64
	live      []LiveStock
	inserted  int
}

func (f *fakeRepo) SnapshotsOn(ctx context.Context, day time.Time) ([]Snapshot, error) {
	var out []Snapshot
	for _, snap := range f.snapshots {
		if snap.Date.Equal(day) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (f *fakeRepo) LatestSnapshotsBefore(ctx context.Context, day time.Time, lookback time.Duration) ([]Snapshot, error) {
	type key struct{ p, l int64 }
	latest := map[key]Snapshot{}
	for _, snap := range f.snapshots {
		if !snap.Date.Before(day) || snap.Date.Before(day.Add(-lookback)) {
			continue
		}
		k := key{snap.ProductID, snap.LocationID}
		if cur, ok := latest[k]; !ok || snap.Date.After(cur.Date) {
			latest[k] = snap
		}
	}
	var out []Snapshot
	for _, snap := range latest {
		out = append(out, snap)
	}
	return out, nil
}

func (f *fakeRepo) ProductCosts(ctx context.Context) (map[int64]float64, error) {
	return f.costs, nil
}

func (f *fakeRepo) ListLiveStock(ctx context.Context) ([]LiveStock, error) {
	return f.live, nil
}

func (f *fakeRepo) InsertSnapshots(ctx context.Context, snapshots []Snapshot) error {
	f.snapshots = append(f.snapshots, snapshots...)
	f.inserted += len(snapshots)
	return nil
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestStockValueSameDaySnapshot(t *testing.T) {
	repo := &fakeRepo{
		costs: map[int64]float64{1: 50, 2: 200},
		snapshots: []Snapshot{
			{ProductID: 1, LocationID: 1, Date: day(10), OpeningStock: 20, ClosingStock: 15},
			{ProductID: 2, LocationID: 1, Date: day(10), OpeningStock: 5, ClosingStock: 8},
		},
	}
	svc := NewService(repo)

	opening, err := svc.StockValueForDate(context.Background(), day(10), ValuationOpening)
	require.NoError(t, err)
	assert.InDelta(t, 20*50.0+5*200.0, opening, 1e-9)

	closing, err := svc.StockValueForDate(context.Background(), day(10), ValuationClosing)
	require.NoError(t, err)
	assert.InDelta(t, 15*50.0+8*200.0, closing, 1e-9)
}

func TestStockValueFallsBackToPriorClosing(t *testing.T) {
	repo := &fakeRepo{
		costs: map[int64]float64{1: 50},
		snapshots: []Snapshot{
			{ProductID: 1, LocationID: 1, Date: day(3), OpeningStock: 30, ClosingStock: 25},
			{ProductID: 1, LocationID: 1, Date: day(7), OpeningStock: 25, ClosingStock: 12},
		},
	}
	svc := NewService(repo)

	// no snapshot on the 10th: the 7th's closing stock carries forward
	value, err := svc.StockValueForDate(context.Background(), day(10), ValuationOpening)
	require.NoError(t, err)
	assert.InDelta(t, 12*50.0, value, 1e-9)
}

func TestStockValueClosingOnGapDayIsZero(t *testing.T) {
	repo := &fakeRepo{
		costs: map[int64]float64{1: 50},
		snapshots: []Snapshot{
			{ProductID: 1, LocationID: 1, Date: day(7), OpeningStock: 25, ClosingStock: 12},
		},
	}
	svc := NewService(repo)

	// only opening valuations carry a prior snapshot forward
	closing, err := svc.StockValueForDate(context.Background(), day(10), ValuationClosing)
	require.NoError(t, err)
	assert.Zero(t, closing)

	opening, err := svc.StockValueForDate(context.Background(), day(10), ValuationOpening)
	require.NoError(t, err)
	assert.InDelta(t, 12*50.0, opening, 1e-9)
}

func TestStockValueUsesCurrentCost(t *testing.T) {
	repo := &fakeRepo{
		costs: map[int64]float64{1: 80},
		snapshots: []Snapshot{
			{ProductID: 1, LocationID: 1, Date: day(10), ClosingStock: 10},
		},
	}
	svc := NewService(repo)

	value, err := svc.StockValueForDate(context.Background(), day(10), ValuationClosing)
	require.NoError(t, err)
	assert.InDelta(t, 800.0, value, 1e-9)

	// a later cost change shifts the valuation of the same historic day
	repo.costs[1] = 100
	value, err = svc.StockValueForDate(context.Background(), day(10), ValuationClosing)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, value, 1e-9)
}

func TestStockValueRejectsUnknownKind(t *testing.T) {
	svc := NewService(&fakeRepo{})
	_, err := svc.StockValueForDate(context.Background(), day(10), ValuationKind("midday"))
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestInitializeDailySnapshotsIdempotent(t *testing.T) {
	repo := &fakeRepo{
		live: []LiveStock{
			{ProductID: 1, LocationID: 1, Quantity: 40},
			{ProductID: 2, LocationID: 1, Quantity: 7},
		},
	}
	svc := NewService(repo)

	created, err := svc.InitializeDailySnapshotsIfNeeded(context.Background(), day(11))
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = svc.InitializeDailySnapshotsIfNeeded(context.Background(), day(11))
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 2, repo.inserted)

	// the new snapshots open and close at the live quantity
	snaps, err := repo.SnapshotsOn(context.Background(), day(11))
	require.NoError(t, err)
	for _, snap := range snaps {
		assert.InDelta(t, snap.OpeningStock, snap.ClosingStock, 1e-9)
	}
}
