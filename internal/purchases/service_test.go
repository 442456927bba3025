package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

type fakeLedgerTx struct {
	inserted []ledger.Transaction
}

func (f *fakeLedgerTx) InsertTransaction(ctx context.Context, txn ledger.Transaction) (int64, error) {
	f.inserted = append(f.inserted, txn)
	return int64(len(f.inserted)), nil
}

func (f *fakeLedgerTx) DeleteTransactionsByRef(ctx context.Context, refModule, refID string) error {
	return nil
}

func (f *fakeLedgerTx) RecalculateBalance(ctx context.Context, accountID int64) error {
	return nil
}

type fakeTx struct {
	lg               *fakeLedgerTx
	purchases        map[int64]Purchase
	returns          []Return
	returnLog        map[int64]float64
	stockReductions  map[int64]float64
	supplierBalances map[int64]float64
	grns             map[int64]GoodsReceived
	nextID           int64
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		lg:               &fakeLedgerTx{},
		purchases:        map[int64]Purchase{},
		returnLog:        map[int64]float64{},
		stockReductions:  map[int64]float64{},
		supplierBalances: map[int64]float64{},
		grns:             map[int64]GoodsReceived{},
	}
}

func (f *fakeTx) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	f.nextID++
	p.ID = f.nextID
	f.purchases[p.ID] = p
	return p.ID, nil
}

func (f *fakeTx) UpdatePurchase(ctx context.Context, p Purchase) error {
	if _, ok := f.purchases[p.ID]; !ok {
		return ErrNotFound
	}
	f.purchases[p.ID] = p
	return nil
}

func (f *fakeTx) GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error) {
	p, ok := f.purchases[id]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeTx) AdjustSupplierBalance(ctx context.Context, supplierID int64, delta float64) error {
	f.supplierBalances[supplierID] += delta
	return nil
}

func (f *fakeTx) InsertReturn(ctx context.Context, ret Return) (int64, error) {
	f.returns = append(f.returns, ret)
	return int64(len(f.returns)), nil
}

func (f *fakeTx) InsertReturnLog(ctx context.Context, purchaseID, productID int64, qty float64) error {
	f.returnLog[productID] += qty
	return nil
}

func (f *fakeTx) ReduceProductStock(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error {
	f.stockReductions[productID] += qty
	return nil
}

func (f *fakeTx) UpdateReturnedQuantities(ctx context.Context, purchaseID int64, lines []ReturnProduct) error {
	p := f.purchases[purchaseID]
	for i := range p.Products {
		for _, line := range lines {
			if p.Products[i].ProductID == line.ProductID {
				p.Products[i].ReturnedQuantity += line.ReturnQuantity
			}
		}
	}
	f.purchases[purchaseID] = p
	return nil
}

func (f *fakeTx) InsertGoodsReceived(ctx context.Context, grn GoodsReceived) (int64, error) {
	f.nextID++
	grn.ID = f.nextID
	f.grns[grn.ID] = grn
	return grn.ID, nil
}

func (f *fakeTx) LinkGoodsReceived(ctx context.Context, grnID, purchaseID int64) error {
	grn, ok := f.grns[grnID]
	if !ok {
		return ErrNotFound
	}
	grn.LinkedPurchaseID = purchaseID
	f.grns[grnID] = grn
	return nil
}

func (f *fakeTx) Ledger() ledger.TxRepository { return f.lg }

type fakeRepo struct {
	tx *fakeTx
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f.tx)
}

func (f *fakeRepo) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	return f.tx.GetPurchaseForUpdate(ctx, id)
}

func (f *fakeRepo) ListInRange(ctx context.Context, from, to time.Time) ([]Purchase, error) {
	var out []Purchase
	for _, p := range f.tx.purchases {
		if !p.PurchaseDate.Before(from) && !p.PurchaseDate.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListReturnsFor(ctx context.Context, purchaseID int64) ([]Return, error) {
	var out []Return
	for _, ret := range f.tx.returns {
		if ret.ParentPurchaseID == purchaseID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func tenThousandInput() CreateInput {
	return CreateInput{
		SupplierID:   5,
		ReferenceNo:  "PUR-100",
		PurchaseDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Products: []Product{
			{ProductID: 1, Quantity: 100, UnitCostBeforeTax: 100, LocationID: 1},
		},
		PaymentAmount: 4000,
	}
}

func TestCreatePurchasePartialPayment(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)

	p, err := svc.CreatePurchase(context.Background(), tenThousandInput())
	require.NoError(t, err)

	assert.InDelta(t, 10000.0, p.GrandTotal, 1e-9)
	assert.InDelta(t, 6000.0, p.PaymentDue, 1e-9)
	assert.Equal(t, PaymentStatusPartial, p.PaymentStatus)
	assert.InDelta(t, 6000.0, repo.tx.supplierBalances[5], 1e-9)

	// the payment is recorded as a ledger movement against the cash account
	require.Len(t, repo.tx.lg.inserted, 1)
	assert.InDelta(t, 4000.0, repo.tx.lg.inserted[0].Credit, 1e-9)
	assert.Equal(t, int64(99), repo.tx.lg.inserted[0].AccountID)
}

func TestCreatePurchaseWithAdvanceUtilised(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	repo.tx.supplierBalances[5] = -3000 // pre-existing advance
	svc := NewService(repo, nil, 99)

	input := tenThousandInput()
	input.PaymentAmount = 7000
	input.AdvanceUtilized = 3000
	p, err := svc.CreatePurchase(context.Background(), input)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, p.PaymentDue, 1e-9)
	assert.Equal(t, PaymentStatusPaid, p.PaymentStatus)
	// due 0 + advance utilised 3000 cancels the advance exactly
	assert.InDelta(t, 0.0, repo.tx.supplierBalances[5], 1e-9)
}

func TestUpdatePurchaseAdjustsBalanceByDueDelta(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)

	p, err := svc.CreatePurchase(context.Background(), tenThousandInput())
	require.NoError(t, err)
	require.InDelta(t, 6000.0, repo.tx.supplierBalances[5], 1e-9)

	updated, err := svc.UpdatePurchase(context.Background(), UpdateInput{
		ID:            p.ID,
		ReferenceNo:   p.ReferenceNo,
		PurchaseDate:  p.PurchaseDate,
		PaymentAmount: 9000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, updated.PaymentDue, 1e-9)
	// the balance moved by the due delta only, not by the full due again
	assert.InDelta(t, 1000.0, repo.tx.supplierBalances[5], 1e-9)
}

func shippedPurchase(t *testing.T, svc *Service, paymentAmount float64) Purchase {
	t.Helper()
	input := CreateInput{
		SupplierID:   5,
		PurchaseDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Products: []Product{
			{ProductID: 1, Quantity: 10, UnitCostBeforeTax: 100, TaxRate: 18, LocationID: 1},
			{ProductID: 2, Quantity: 5, UnitCostBeforeTax: 200, TaxRate: 18, LocationID: 1},
		},
		PaymentAmount:            paymentAmount,
		ShippingChargesBeforeTax: 500,
		ShippingTaxAmount:        90,
	}
	p, err := svc.CreatePurchase(context.Background(), input)
	require.NoError(t, err)
	return p
}

func TestFullReturnRefundsShipping(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)

	// lines: 1000+180 tax, 1000+180 tax, shipping 500+90 → grand 2950, fully paid
	p := shippedPurchase(t, svc, 2950)
	require.Equal(t, PaymentStatusPaid, p.PaymentStatus)

	ret, err := svc.ProcessReturnWithStock(context.Background(), ReturnInput{
		PurchaseID: p.ID,
		Products: []ReturnProduct{
			{ProductID: 1, ReturnQuantity: 10, TaxAmount: 180, LineTotal: 1000, LocationID: 1},
			{ProductID: 2, ReturnQuantity: 5, TaxAmount: 180, LineTotal: 1000, LocationID: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, ret.IsFullReturn)
	assert.InDelta(t, 500.0, ret.ShippingChargesRefunded, 1e-9)
	assert.InDelta(t, 90.0, ret.ShippingTaxRefunded, 1e-9)
	assert.InDelta(t, 2950.0, ret.GrandTotal, 1e-9)
	// nothing was owed, so the whole refund is cash
	assert.InDelta(t, 2950.0, ret.CashRefund, 1e-9)
	assert.InDelta(t, 10.0, repo.tx.stockReductions[1], 1e-9)
	assert.InDelta(t, 5.0, repo.tx.stockReductions[2], 1e-9)
}

func TestPartialReturnExcludesShipping(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)

	p := shippedPurchase(t, svc, 2950)

	ret, err := svc.ProcessReturnWithStock(context.Background(), ReturnInput{
		PurchaseID: p.ID,
		Products: []ReturnProduct{
			{ProductID: 1, ReturnQuantity: 4, TaxAmount: 72, LineTotal: 400, LocationID: 1},
		},
	})
	require.NoError(t, err)

	assert.False(t, ret.IsFullReturn)
	assert.Zero(t, ret.ShippingChargesRefunded)
	assert.Zero(t, ret.ShippingTaxRefunded)
	assert.InDelta(t, 472.0, ret.GrandTotal, 1e-9)
}

func TestReturnReducesSupplierLiabilityBeforeCash(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)

	p := shippedPurchase(t, svc, 2500) // due 450
	require.InDelta(t, 450.0, repo.tx.supplierBalances[5], 1e-9)

	ret, err := svc.ProcessReturnWithStock(context.Background(), ReturnInput{
		PurchaseID: p.ID,
		Products: []ReturnProduct{
			{ProductID: 1, ReturnQuantity: 5, TaxAmount: 90, LineTotal: 500, LocationID: 1},
		},
	})
	require.NoError(t, err)

	// 590 refund: 450 absorbed by the liability, 140 as cash
	assert.InDelta(t, 0.0, repo.tx.supplierBalances[5], 1e-9)
	assert.InDelta(t, 140.0, ret.CashRefund, 1e-9)

	parent := repo.tx.purchases[p.ID]
	assert.InDelta(t, 590.0, parent.TotalReturned, 1e-9)
	assert.InDelta(t, 0.0, parent.PaymentDue, 1e-9)
}

func TestReturnRejectsExcessQuantity(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)
	p := shippedPurchase(t, svc, 0)

	_, err := svc.ProcessReturnWithStock(context.Background(), ReturnInput{
		PurchaseID: p.ID,
		Products:   []ReturnProduct{{ProductID: 1, ReturnQuantity: 11, LineTotal: 1100, LocationID: 1}},
	})
	assert.ErrorIs(t, err, ErrReturnExceedsQuantity)
}

func TestGoodsReceivedValueAndLinking(t *testing.T) {
	repo := &fakeRepo{tx: newFakeTx()}
	svc := NewService(repo, nil, 99)

	grn, err := svc.CreateGoodsReceived(context.Background(), GoodsReceived{
		Products: []GRNProduct{
			{ProductID: 1, ReceivedQuantity: 10, UnitPrice: 50},
			{ProductID: 2, ReceivedQuantity: 2, UnitPrice: 250},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, grn.Value(), 1e-9)
	assert.Zero(t, grn.LinkedPurchaseID)

	require.NoError(t, svc.LinkGoodsReceived(context.Background(), grn.ID, 42))
	assert.Equal(t, int64(42), repo.tx.grns[grn.ID].LinkedPurchaseID)
}
