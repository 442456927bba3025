package suppliers

import (
	"errors"
	"time"
)

// Supplier carries a running balance. Positive means the business owes the
// supplier; negative means the supplier was overpaid and holds an advance.
type Supplier struct {
	ID        int64
	Name      string
	GSTIN     string
	Phone     string
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotFound indicates a missing supplier.
var ErrNotFound = errors.New("suppliers: not found")
