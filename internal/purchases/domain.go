package purchases

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks how much of a purchase has been settled.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusPartial PaymentStatus = "Partial"
	PaymentStatusUnpaid  PaymentStatus = "Unpaid"
)

// Product is one line of a purchase document.
type Product struct {
	ProductID         int64
	Name              string
	Quantity          float64
	UnitCostBeforeTax float64
	DiscountPercent   float64
	TaxRate           float64
	TaxAmount         float64
	LineTotal         float64
	ReturnedQuantity  float64
	LocationID        int64
}

// Purchase is an inbound goods document.
type Purchase struct {
	ID                       int64
	DocID                    uuid.UUID
	SupplierID               int64
	ReferenceNo              string
	PurchaseDate             time.Time
	Products                 []Product
	GrandTotal               float64
	RoundedTotal             float64
	PaymentAmount            float64
	PaymentDue               float64
	PaymentStatus            PaymentStatus
	ShippingChargesBeforeTax float64
	ShippingTaxAmount        float64
	TotalReturned            float64
	TotalTaxReturned         float64
	IsUsedForGoods           bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// TotalTax sums the line tax plus shipping tax.
func (p Purchase) TotalTax() float64 {
	tax := p.ShippingTaxAmount
	for _, line := range p.Products {
		tax += line.TaxAmount
	}
	return tax
}

// Due recomputes the outstanding amount from the stored fields.
func (p Purchase) Due() float64 {
	due := p.GrandTotal - p.PaymentAmount - p.TotalReturned
	if due < 0 {
		return 0
	}
	return due
}

// DerivePaymentStatus maps amounts onto the status enum.
func DerivePaymentStatus(grandTotal, paymentAmount float64) PaymentStatus {
	switch {
	case paymentAmount <= 0:
		return PaymentStatusUnpaid
	case paymentAmount+0.005 >= grandTotal:
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// ReturnProduct is one line of a purchase return.
type ReturnProduct struct {
	ProductID      int64
	ReturnQuantity float64
	TaxAmount      float64
	LineTotal      float64
	LocationID     int64
}

// Return is a purchase return document. Shipping charges are refunded only
// on a full return.
type Return struct {
	ID                      int64
	DocID                   uuid.UUID
	ParentPurchaseID        int64
	Products                []ReturnProduct
	GrandTotal              float64
	TotalWithoutTax         float64
	TotalTaxReturned        float64
	ShippingChargesRefunded float64
	ShippingTaxRefunded     float64
	IsFullReturn            bool
	CashRefund              float64
	CreatedAt               time.Time
}

// GRNProduct is a received line on a goods received note.
type GRNProduct struct {
	ProductID        int64
	ReceivedQuantity float64
	UnitPrice        float64
	LocationID       int64
}

// GoodsReceived records physically received stock, optionally linked to a
// formal purchase. Unlinked notes count as standalone GRN purchases in the
// profit and loss report.
type GoodsReceived struct {
	ID                    int64
	DocID                 uuid.UUID
	Products              []GRNProduct
	LinkedPurchaseID      int64
	LinkedPurchaseOrderID int64
	ReceivedAt            time.Time
	CreatedAt             time.Time
}

// Value totals the received lines.
func (g GoodsReceived) Value() float64 {
	var total float64
	for _, line := range g.Products {
		total += line.ReceivedQuantity * line.UnitPrice
	}
	return total
}

// isFullReturn reports whether every purchase line is returned in full,
// counting quantities already returned earlier.
func isFullReturn(purchase Purchase, lines []ReturnProduct) bool {
	returned := make(map[int64]float64, len(lines))
	for _, line := range lines {
		returned[line.ProductID] += line.ReturnQuantity
	}
	for _, line := range purchase.Products {
		if math.Abs(line.Quantity-line.ReturnedQuantity-returned[line.ProductID]) > 1e-9 {
			return false
		}
	}
	return true
}

var (
	// ErrNotFound indicates a missing purchase document.
	ErrNotFound = errors.New("purchases: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("purchases: invalid input")
	// ErrReturnExceedsQuantity indicates a return line larger than what remains.
	ErrReturnExceedsQuantity = errors.New("purchases: return quantity exceeds remaining quantity")
)
