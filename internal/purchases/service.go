package purchases

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

const refModule = "purchase"

// TxRepository groups writes that must commit atomically with the supplier
// balance adjustment, mirroring the store transaction of the original flow.
type TxRepository interface {
	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	UpdatePurchase(ctx context.Context, p Purchase) error
	GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error)
	AdjustSupplierBalance(ctx context.Context, supplierID int64, delta float64) error
	InsertReturn(ctx context.Context, ret Return) (int64, error)
	InsertReturnLog(ctx context.Context, purchaseID, productID int64, qty float64) error
	ReduceProductStock(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error
	UpdateReturnedQuantities(ctx context.Context, purchaseID int64, lines []ReturnProduct) error
	InsertGoodsReceived(ctx context.Context, grn GoodsReceived) (int64, error)
	LinkGoodsReceived(ctx context.Context, grnID, purchaseID int64) error
	Ledger() ledger.TxRepository
}

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Purchase, error)
	ListReturnsFor(ctx context.Context, purchaseID int64) ([]Return, error)
}

// CacheInvalidator lets document writes invalidate cached reports.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates purchase, return, and GRN flows.
type Service struct {
	repo             RepositoryPort
	cache            CacheInvalidator
	paymentAccountID int64
	now              func() time.Time
}

// NewService constructs the purchase service. paymentAccountID is the ledger
// account credited when a purchase payment is recorded at creation time.
func NewService(repo RepositoryPort, cache CacheInvalidator, paymentAccountID int64) *Service {
	return &Service{repo: repo, cache: cache, paymentAccountID: paymentAccountID, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput carries a new purchase document.
type CreateInput struct {
	SupplierID               int64
	ReferenceNo              string
	PurchaseDate             time.Time
	Products                 []Product
	PaymentAmount            float64
	AdvanceUtilized          float64
	ShippingChargesBeforeTax float64
	ShippingTaxAmount        float64
	IsUsedForGoods           bool
}

// CreatePurchase writes the purchase, adjusts the supplier balance by the due
// amount plus any advance utilised, and records the payment as a ledger
// transaction, all in one database transaction.
func (s *Service) CreatePurchase(ctx context.Context, input CreateInput) (Purchase, error) {
	if input.SupplierID == 0 || len(input.Products) == 0 {
		return Purchase{}, ErrValidation
	}
	p := Purchase{
		DocID:                    uuid.New(),
		SupplierID:               input.SupplierID,
		ReferenceNo:              input.ReferenceNo,
		PurchaseDate:             input.PurchaseDate,
		Products:                 computeLines(input.Products),
		PaymentAmount:            input.PaymentAmount + input.AdvanceUtilized,
		ShippingChargesBeforeTax: input.ShippingChargesBeforeTax,
		ShippingTaxAmount:        input.ShippingTaxAmount,
		IsUsedForGoods:           input.IsUsedForGoods,
	}
	for _, line := range p.Products {
		p.GrandTotal += line.LineTotal
	}
	p.GrandTotal += input.ShippingChargesBeforeTax + input.ShippingTaxAmount
	p.RoundedTotal = math.Round(p.GrandTotal)
	p.PaymentDue = p.Due()
	p.PaymentStatus = DerivePaymentStatus(p.GrandTotal, p.PaymentAmount)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertPurchase(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		// the due amount is owed to the supplier; a consumed advance no
		// longer offsets the running balance either
		delta := p.PaymentDue + input.AdvanceUtilized
		if err := tx.AdjustSupplierBalance(ctx, p.SupplierID, delta); err != nil {
			return err
		}
		if input.PaymentAmount > 0 {
			txn := ledger.Transaction{
				AccountID: s.paymentAccountID,
				Date:      p.PurchaseDate,
				Credit:    input.PaymentAmount,
				Type:      "purchase_payment",
				RefModule: refModule,
				RefID:     p.DocID,
			}
			if _, err := tx.Ledger().InsertTransaction(ctx, txn); err != nil {
				return err
			}
			if err := tx.Ledger().RecalculateBalance(ctx, s.paymentAccountID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Purchase{}, fmt.Errorf("purchases: create: %w", err)
	}
	s.bump(ctx)
	return p, nil
}

// UpdateInput carries the editable fields of an existing purchase.
type UpdateInput struct {
	ID                       int64
	ReferenceNo              string
	PurchaseDate             time.Time
	Products                 []Product
	PaymentAmount            float64
	ShippingChargesBeforeTax float64
	ShippingTaxAmount        float64
}

// UpdatePurchase recomputes the due amount and adjusts the supplier balance
// by the delta only, never by the full amount again.
func (s *Service) UpdatePurchase(ctx context.Context, input UpdateInput) (Purchase, error) {
	if input.ID == 0 {
		return Purchase{}, ErrValidation
	}
	var updated Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPurchaseForUpdate(ctx, input.ID)
		if err != nil {
			return err
		}
		next := current
		next.ReferenceNo = input.ReferenceNo
		if !input.PurchaseDate.IsZero() {
			next.PurchaseDate = input.PurchaseDate
		}
		if len(input.Products) > 0 {
			next.Products = computeLines(input.Products)
		}
		next.PaymentAmount = input.PaymentAmount
		next.ShippingChargesBeforeTax = input.ShippingChargesBeforeTax
		next.ShippingTaxAmount = input.ShippingTaxAmount
		next.GrandTotal = 0
		for _, line := range next.Products {
			next.GrandTotal += line.LineTotal
		}
		next.GrandTotal += next.ShippingChargesBeforeTax + next.ShippingTaxAmount
		next.RoundedTotal = math.Round(next.GrandTotal)
		next.PaymentDue = next.Due()
		next.PaymentStatus = DerivePaymentStatus(next.GrandTotal, next.PaymentAmount)

		if err := tx.UpdatePurchase(ctx, next); err != nil {
			return err
		}
		delta := next.PaymentDue - current.PaymentDue
		if delta != 0 {
			if err := tx.AdjustSupplierBalance(ctx, next.SupplierID, delta); err != nil {
				return err
			}
		}
		updated = next
		return nil
	})
	if err != nil {
		return Purchase{}, fmt.Errorf("purchases: update: %w", err)
	}
	s.bump(ctx)
	return updated, nil
}

// ReturnInput describes a purchase return request.
type ReturnInput struct {
	PurchaseID int64
	Products   []ReturnProduct
	Date       time.Time
}

// ProcessReturnWithStock reduces product stock, logs the returned quantities,
// reduces the supplier liability (issuing a cash refund for any part the
// liability cannot absorb), and updates the parent purchase totals. A full
// return also refunds shipping charges and shipping tax; a partial return
// excludes shipping.
func (s *Service) ProcessReturnWithStock(ctx context.Context, input ReturnInput) (Return, error) {
	if input.PurchaseID == 0 || len(input.Products) == 0 {
		return Return{}, ErrValidation
	}
	day := input.Date
	if day.IsZero() {
		day = s.now()
	}
	var ret Return
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		parent, err := tx.GetPurchaseForUpdate(ctx, input.PurchaseID)
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
			DocID:            uuid.New(),
			ParentPurchaseID: parent.ID,
			Products:         input.Products,
			IsFullReturn:     isFullReturn(parent, input.Products),
		}
		for _, line := range input.Products {
			ret.TotalWithoutTax += line.LineTotal
			ret.TotalTaxReturned += line.TaxAmount
		}
		ret.GrandTotal = ret.TotalWithoutTax + ret.TotalTaxReturned
		if ret.IsFullReturn {
			ret.ShippingChargesRefunded = parent.ShippingChargesBeforeTax
			ret.ShippingTaxRefunded = parent.ShippingTaxAmount
			ret.GrandTotal += ret.ShippingChargesRefunded + ret.ShippingTaxRefunded
		}

		liabilityReduction := math.Min(parent.PaymentDue, ret.GrandTotal)
		ret.CashRefund = ret.GrandTotal - liabilityReduction

		if _, err := tx.InsertReturn(ctx, ret); err != nil {
			return err
		}
		for _, line := range input.Products {
			if err := tx.ReduceProductStock(ctx, line.ProductID, line.LocationID, line.ReturnQuantity, day); err != nil {
				return err
			}
			if err := tx.InsertReturnLog(ctx, parent.ID, line.ProductID, line.ReturnQuantity); err != nil {
				return err
			}
		}
		if err := tx.UpdateReturnedQuantities(ctx, parent.ID, input.Products); err != nil {
			return err
		}
		if liabilityReduction > 0 {
			if err := tx.AdjustSupplierBalance(ctx, parent.SupplierID, -liabilityReduction); err != nil {
				return err
			}
		}

		parent.TotalReturned += ret.GrandTotal
		parent.TotalTaxReturned += ret.TotalTaxReturned + ret.ShippingTaxRefunded
		parent.PaymentDue = parent.Due()
		return tx.UpdatePurchase(ctx, parent)
	})
	if err != nil {
		return Return{}, fmt.Errorf("purchases: process return: %w", err)
	}
	s.bump(ctx)
	return ret, nil
}

// CreateGoodsReceived records a GRN, optionally linked to a purchase.
func (s *Service) CreateGoodsReceived(ctx context.Context, grn GoodsReceived) (GoodsReceived, error) {
	if len(grn.Products) == 0 {
		return GoodsReceived{}, ErrValidation
	}
	if grn.DocID == uuid.Nil {
		grn.DocID = uuid.New()
	}
	if grn.ReceivedAt.IsZero() {
		grn.ReceivedAt = s.now()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertGoodsReceived(ctx, grn)
		if err != nil {
			return err
		}
		grn.ID = id
		return nil
	})
	if err != nil {
		return GoodsReceived{}, fmt.Errorf("purchases: create grn: %w", err)
	}
	s.bump(ctx)
	return grn, nil
}

// LinkGoodsReceived attaches an unlinked GRN to a formal purchase.
func (s *Service) LinkGoodsReceived(ctx context.Context, grnID, purchaseID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.LinkGoodsReceived(ctx, grnID, purchaseID)
	})
	if err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// GetPurchase loads a purchase with its lines.
func (s *Service) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

// ListInRange lists purchases dated within [from, to].
func (s *Service) ListInRange(ctx context.Context, from, to time.Time) ([]Purchase, error) {
	return s.repo.ListInRange(ctx, from, to)
}

func computeLines(lines []Product) []Product {
	out := make([]Product, len(lines))
	for i, line := range lines {
		discounted := line.UnitCostBeforeTax * (1 - line.DiscountPercent/100)
		base := discounted * line.Quantity
		line.TaxAmount = base * line.TaxRate / 100
		line.LineTotal = base + line.TaxAmount
		out[i] = line
	}
	return out
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
