package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

const refModule = "sale"

// TxRepository groups the writes of one sale flow so the document, the stock
// movement, and the derived ledger transaction commit together.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	UpdateSale(ctx context.Context, sale Sale) error
	GetSaleForUpdate(ctx context.Context, id int64) (Sale, error)
	InsertReturn(ctx context.Context, ret Return) (int64, error)
	UpdateReturnedQuantities(ctx context.Context, saleID int64, lines []ReturnProduct) error
	IssueProductStock(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error
	RestockProduct(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error
	Ledger() ledger.TxRepository
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Sale, error)
}

// CacheInvalidator lets document writes invalidate cached reports.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates sale and sale return flows.
type Service struct {
	repo              RepositoryPort
	cache             CacheInvalidator
	receiptsAccountID int64
	now               func() time.Time
}

// NewService constructs the sales service. receiptsAccountID is the ledger
// account debited when a sale payment is received.
func NewService(repo RepositoryPort, cache CacheInvalidator, receiptsAccountID int64) *Service {
	return &Service{repo: repo, cache: cache, receiptsAccountID: receiptsAccountID, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput carries a new sale document.
type CreateInput struct {
	CustomerName    string
	CustomerGSTIN   string
	InvoiceNo       string
	SaleDate        time.Time
	Products        []Product
	IsInterState    bool
	PaymentAmount   float64
	PackingCharges  float64
	ShippingCharges float64
	ServiceCharge   float64
}

// CreateSale writes the sale, issues stock for every line, and records the
// received payment as a ledger transaction, all in one database transaction.
func (s *Service) CreateSale(ctx context.Context, input CreateInput) (Sale, error) {
	if len(input.Products) == 0 {
		return Sale{}, ErrValidation
	}
	day := input.SaleDate
	if day.IsZero() {
		day = s.now()
	}
	sale := Sale{
		DocID:           uuid.New(),
		CustomerName:    input.CustomerName,
		CustomerGSTIN:   input.CustomerGSTIN,
		InvoiceNo:       input.InvoiceNo,
		SaleDate:        day,
		Products:        computeLines(input.Products, input.IsInterState),
		IsInterState:    input.IsInterState,
		PaymentAmount:   input.PaymentAmount,
		PackingCharges:  input.PackingCharges,
		ShippingCharges: input.ShippingCharges,
		ServiceCharge:   input.ServiceCharge,
		Status:          StatusCompleted,
	}
	for _, line := range sale.Products {
		sale.TotalWithoutTax += line.LineTotal - line.Tax.Total()
		sale.TotalPayable += line.LineTotal
	}
	sale.TotalPayable += input.PackingCharges + input.ShippingCharges + input.ServiceCharge

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		for _, line := range sale.Products {
			if err := tx.IssueProductStock(ctx, line.ProductID, line.LocationID, line.Quantity, day); err != nil {
				return err
			}
		}
		if input.PaymentAmount > 0 {
			txn := ledger.Transaction{
				AccountID: s.receiptsAccountID,
				Date:      day,
				Debit:     input.PaymentAmount,
				Type:      "sale_payment",
				RefModule: refModule,
				RefID:     sale.DocID,
			}
			if _, err := tx.Ledger().InsertTransaction(ctx, txn); err != nil {
				return err
			}
			if err := tx.Ledger().RecalculateBalance(ctx, s.receiptsAccountID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Sale{}, fmt.Errorf("sales: create: %w", err)
	}
	s.bump(ctx)
	return sale, nil
}

// ReturnInput describes a sale return request.
type ReturnInput struct {
	SaleID   int64
	Products []ReturnProduct
	Date     time.Time
}

// ProcessReturn restocks the returned goods, updates the parent totals and
// status, and records the refund as a ledger credit when the sale had been
// paid.
func (s *Service) ProcessReturn(ctx context.Context, input ReturnInput) (Return, error) {
	if input.SaleID == 0 || len(input.Products) == 0 {
		return Return{}, ErrValidation
	}
	day := input.Date
	if day.IsZero() {
		day = s.now()
	}
	var ret Return
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		parent, err := tx.GetSaleForUpdate(ctx, input.SaleID)
		if err != nil {
			return err
		}
		remaining := make(map[int64]float64, len(parent.Products))
		for _, line := range parent.Products {
			remaining[line.ProductID] = line.Quantity - line.ReturnedQuantity
		}
		for _, line := range input.Products {
			if line.ReturnQuantity <= 0 {
				return ErrValidation
			}
			if line.ReturnQuantity > remaining[line.ProductID]+1e-9 {
				return ErrReturnExceedsQuantity
			}
		}

		ret = Return{
			DocID:        uuid.New(),
			ParentSaleID: parent.ID,
			Products:     input.Products,
		}
		for _, line := range input.Products {
			ret.TotalWithoutTax += line.LineTotal
			ret.TotalTaxReturned += line.TaxAmount
		}
		ret.GrandTotal = ret.TotalWithoutTax + ret.TotalTaxReturned

		// refund only what was actually collected; the rest simply
		// shrinks the receivable
		receivable := parent.Receivable()
		ret.CashRefund = ret.GrandTotal - receivable
		if ret.CashRefund < 0 {
			ret.CashRefund = 0
		}

		if _, err := tx.InsertReturn(ctx, ret); err != nil {
			return err
		}
		for _, line := range input.Products {
			if err := tx.RestockProduct(ctx, line.ProductID, line.LocationID, line.ReturnQuantity, day); err != nil {
				return err
			}
		}
		if err := tx.UpdateReturnedQuantities(ctx, parent.ID, input.Products); err != nil {
			return err
		}
		if ret.CashRefund > 0 {
			txn := ledger.Transaction{
				AccountID: s.receiptsAccountID,
				Date:      day,
				Credit:    ret.CashRefund,
				Type:      "sale_refund",
				RefModule: refModule,
				RefID:     ret.DocID,
			}
			if _, err := tx.Ledger().InsertTransaction(ctx, txn); err != nil {
				return err
			}
			if err := tx.Ledger().RecalculateBalance(ctx, s.receiptsAccountID); err != nil {
				return err
			}
		}

		parent.TotalReturned += ret.GrandTotal
		parent.TotalTaxReturned += ret.TotalTaxReturned
		// the refund hands collected money back, so the stored payment shrinks
		parent.PaymentAmount -= ret.CashRefund
		parent.Status = DeriveStatus(parent.TotalPayable, parent.TotalReturned)
		return tx.UpdateSale(ctx, parent)
	})
	if err != nil {
		return Return{}, fmt.Errorf("sales: process return: %w", err)
	}
	s.bump(ctx)
	return ret, nil
}

// GetSale loads a sale with its lines.
func (s *Service) GetSale(ctx context.Context, id int64) (Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// ListInRange lists sales dated within [from, to].
func (s *Service) ListInRange(ctx context.Context, from, to time.Time) ([]Sale, error) {
	return s.repo.ListInRange(ctx, from, to)
}

func computeLines(lines []Product, interState bool) []Product {
	out := make([]Product, len(lines))
	for i, line := range lines {
		discounted := line.UnitPriceBeforeTax * (1 - line.DiscountPercent/100)
		base := discounted * line.Quantity
		line.Tax = SplitTax(base*line.TaxRate/100, interState)
		line.LineTotal = base + line.Tax.Total()
		out[i] = line
	}
	return out
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
