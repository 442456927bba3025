package stock

import (
	"errors"
	"time"
)

// ValuationKind selects which side of a day's snapshot is valued.
type ValuationKind string

const (
	ValuationOpening ValuationKind = "opening"
	ValuationClosing ValuationKind = "closing"
)

// Snapshot is one product/location/day inventory record. ClosingStock is
// overwritten as movements occur during the day.
type Snapshot struct {
	ProductID     int64
	LocationID    int64
	Date          time.Time
	OpeningStock  float64
	ClosingStock  float64
	TotalReceived float64
	TotalIssued   float64
}

// LiveStock is the current on-hand quantity of a product at a location.
type LiveStock struct {
	ProductID  int64
	LocationID int64
	Quantity   float64
}

var (
	// ErrInvalidKind indicates an unknown valuation kind.
	ErrInvalidKind = errors.New("stock: invalid valuation kind")
)
