package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of a sale.
type Status string

const (
	StatusCompleted     Status = "Completed"
	StatusPartialReturn Status = "Partial Return"
	StatusReturned      Status = "Returned"
)

// TaxSplit is the GST breakup of one tax amount. Intra-state sales split the
// tax evenly into cgst and sgst; inter-state sales carry the whole amount as
// igst.
type TaxSplit struct {
	CGST float64
	SGST float64
	IGST float64
}

// Total sums the split components back into one tax amount.
func (t TaxSplit) Total() float64 {
	return t.CGST + t.SGST + t.IGST
}

// SplitTax distributes a tax amount per the inter-state flag.
func SplitTax(amount float64, interState bool) TaxSplit {
	if interState {
		return TaxSplit{IGST: amount}
	}
	half := amount / 2
	return TaxSplit{CGST: half, SGST: half}
}

// Product is one line of a sale document.
type Product struct {
	ProductID          int64
	Name               string
	Quantity           float64
	UnitPriceBeforeTax float64
	DiscountPercent    float64
	TaxRate            float64
	Tax                TaxSplit
	LineTotal          float64
	ReturnedQuantity   float64
	LocationID         int64
}

// Sale is an outbound goods document.
type Sale struct {
	ID               int64
	DocID            uuid.UUID
	CustomerName     string
	CustomerGSTIN    string
	InvoiceNo        string
	SaleDate         time.Time
	Products         []Product
	IsInterState     bool
	TotalWithoutTax  float64
	TotalPayable     float64
	PaymentAmount    float64
	PackingCharges   float64
	ShippingCharges  float64
	ServiceCharge    float64
	TotalReturned    float64
	TotalTaxReturned float64
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TotalTax sums the line tax splits.
func (s Sale) TotalTax() float64 {
	var tax float64
	for _, line := range s.Products {
		tax += line.Tax.Total()
	}
	return tax
}

// Receivable is the outstanding amount on the sale, clamped at zero.
func (s Sale) Receivable() float64 {
	due := s.TotalPayable - s.PaymentAmount - s.TotalReturned
	if due < 0 {
		return 0
	}
	return due
}

// DeriveStatus maps the return totals onto the status enum.
func DeriveStatus(totalPayable, totalReturned float64) Status {
	switch {
	case totalReturned <= 0:
		return StatusCompleted
	case totalReturned+0.005 >= totalPayable:
		return StatusReturned
	default:
		return StatusPartialReturn
	}
}

// ReturnProduct is one line of a sale return.
type ReturnProduct struct {
	ProductID      int64
	ReturnQuantity float64
	TaxAmount      float64
	LineTotal      float64
	LocationID     int64
}

// Return is a sale return document. Returned goods go back into stock.
type Return struct {
	ID               int64
	DocID            uuid.UUID
	ParentSaleID     int64
	Products         []ReturnProduct
	GrandTotal       float64
	TotalWithoutTax  float64
	TotalTaxReturned float64
	CashRefund       float64
	CreatedAt        time.Time
}

var (
	// ErrNotFound indicates a missing sale document.
	ErrNotFound = errors.New("sales: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("sales: invalid input")
	// ErrReturnExceedsQuantity indicates a return line larger than what remains.
	ErrReturnExceedsQuantity = errors.New("sales: return quantity exceeds remaining quantity")
)
