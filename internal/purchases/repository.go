package purchases

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
	"github.com/ayurbooks/ayurbooks/internal/suppliers"
)

// Repository persists purchases, returns, and goods received notes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
	lg ledger.TxRepository
}

type ledgerTxAdapter struct {
	tx pgx.Tx
}

func (a *ledgerTxAdapter) InsertTransaction(ctx context.Context, txn ledger.Transaction) (int64, error) {
	var id int64
	err := a.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, date, debit, credit, tx_type, head_group, head_value, ref_module, ref_id, is_capital, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW()) RETURNING id`,
		txn.AccountID, txn.Date, txn.Debit, txn.Credit, txn.Type, txn.AccountHead.Group, txn.AccountHead.Value, txn.RefModule, txn.RefID, txn.IsCapitalTransaction).Scan(&id)
	return id, err
}

func (a *ledgerTxAdapter) DeleteTransactionsByRef(ctx context.Context, refModule, refID string) error {
	_, err := a.tx.Exec(ctx, `DELETE FROM transactions WHERE ref_module=$1 AND ref_id=$2`, refModule, refID)
	return err
}

func (a *ledgerTxAdapter) RecalculateBalance(ctx context.Context, accountID int64) error {
	_, err := a.tx.Exec(ctx, `UPDATE accounts SET current_balance = opening_balance + COALESCE((
SELECT SUM(CASE WHEN is_capital THEN debit + credit ELSE debit - credit END)
FROM transactions WHERE account_id=$1), 0), updated_at = NOW()
WHERE id=$1`, accountID)
	return err
}

// WithTx runs fn inside one repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("purchases repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, lg: &ledgerTxAdapter{tx: tx}}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetPurchase loads a purchase with its lines.
func (r *Repository) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	return scanPurchase(ctx, r.pool, id, false)
}

// ListInRange lists purchases dated within [from, to] with their lines.
func (r *Repository) ListInRange(ctx context.Context, from, to time.Time) ([]Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM purchases WHERE purchase_date >= $1 AND purchase_date <= $2 ORDER BY purchase_date ASC, id ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Purchase, 0, len(ids))
	for _, id := range ids {
		p, err := scanPurchase(ctx, r.pool, id, false)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ListReturnsFor returns the return documents of a purchase.
func (r *Repository) ListReturnsFor(ctx context.Context, purchaseID int64) ([]Return, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, doc_id, parent_purchase_id, grand_total, total_without_tax, total_tax_returned,
shipping_charges_refunded, shipping_tax_refunded, is_full_return, cash_refund, created_at
FROM purchase_returns WHERE parent_purchase_id=$1 ORDER BY id ASC`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Return{}
	for rows.Next() {
		var ret Return
		if err := rows.Scan(&ret.ID, &ret.DocID, &ret.ParentPurchaseID, &ret.GrandTotal, &ret.TotalWithoutTax, &ret.TotalTaxReturned,
			&ret.ShippingChargesRefunded, &ret.ShippingTaxRefunded, &ret.IsFullReturn, &ret.CashRefund, &ret.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanPurchase(ctx context.Context, q querier, id int64, forUpdate bool) (Purchase, error) {
	query := `SELECT id, doc_id, supplier_id, reference_no, purchase_date, grand_total, rounded_total, payment_amount, payment_due,
payment_status, shipping_charges, shipping_tax, total_returned, total_tax_returned, is_used_for_goods, created_at, updated_at
FROM purchases WHERE id=$1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var p Purchase
	err := q.QueryRow(ctx, query, id).Scan(&p.ID, &p.DocID, &p.SupplierID, &p.ReferenceNo, &p.PurchaseDate, &p.GrandTotal, &p.RoundedTotal,
		&p.PaymentAmount, &p.PaymentDue, &p.PaymentStatus, &p.ShippingChargesBeforeTax, &p.ShippingTaxAmount, &p.TotalReturned,
		&p.TotalTaxReturned, &p.IsUsedForGoods, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, ErrNotFound
	}
	if err != nil {
		return Purchase{}, err
	}
	rows, err := q.Query(ctx, `SELECT product_id, name, quantity, unit_cost, discount_percent, tax_rate, tax_amount, line_total, returned_quantity, location_id
FROM purchase_products WHERE purchase_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Purchase{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Product
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Quantity, &line.UnitCostBeforeTax, &line.DiscountPercent,
			&line.TaxRate, &line.TaxAmount, &line.LineTotal, &line.ReturnedQuantity, &line.LocationID); err != nil {
			return Purchase{}, err
		}
		p.Products = append(p.Products, line)
	}
	return p, rows.Err()
}

func (r *txRepository) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchases (doc_id, supplier_id, reference_no, purchase_date, grand_total, rounded_total,
payment_amount, payment_due, payment_status, shipping_charges, shipping_tax, total_returned, total_tax_returned, is_used_for_goods, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW()) RETURNING id`,
		p.DocID, p.SupplierID, p.ReferenceNo, p.PurchaseDate, p.GrandTotal, p.RoundedTotal, p.PaymentAmount, p.PaymentDue,
		p.PaymentStatus, p.ShippingChargesBeforeTax, p.ShippingTaxAmount, p.TotalReturned, p.TotalTaxReturned, p.IsUsedForGoods).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range p.Products {
		if _, err := r.tx.Exec(ctx, `INSERT INTO purchase_products (purchase_id, product_id, name, quantity, unit_cost, discount_percent, tax_rate, tax_amount, line_total, returned_quantity, location_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			id, line.ProductID, line.Name, line.Quantity, line.UnitCostBeforeTax, line.DiscountPercent, line.TaxRate, line.TaxAmount, line.LineTotal, line.ReturnedQuantity, line.LocationID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) UpdatePurchase(ctx context.Context, p Purchase) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchases SET reference_no=$2, purchase_date=$3, grand_total=$4, rounded_total=$5, payment_amount=$6,
payment_due=$7, payment_status=$8, shipping_charges=$9, shipping_tax=$10, total_returned=$11, total_tax_returned=$12, updated_at=NOW()
WHERE id=$1`,
		p.ID, p.ReferenceNo, p.PurchaseDate, p.GrandTotal, p.RoundedTotal, p.PaymentAmount, p.PaymentDue, p.PaymentStatus,
		p.ShippingChargesBeforeTax, p.ShippingTaxAmount, p.TotalReturned, p.TotalTaxReturned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error) {
	return scanPurchase(ctx, r.tx, id, true)
}

func (r *txRepository) AdjustSupplierBalance(ctx context.Context, supplierID int64, delta float64) error {
	return suppliers.AdjustBalance(ctx, r.tx, supplierID, delta)
}

func (r *txRepository) InsertReturn(ctx context.Context, ret Return) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_returns (doc_id, parent_purchase_id, grand_total, total_without_tax, total_tax_returned,
shipping_charges_refunded, shipping_tax_refunded, is_full_return, cash_refund, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id`,
		ret.DocID, ret.ParentPurchaseID, ret.GrandTotal, ret.TotalWithoutTax, ret.TotalTaxReturned,
		ret.ShippingChargesRefunded, ret.ShippingTaxRefunded, ret.IsFullReturn, ret.CashRefund).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range ret.Products {
		if _, err := r.tx.Exec(ctx, `INSERT INTO purchase_return_products (return_id, product_id, return_quantity, tax_amount, line_total, location_id)
VALUES ($1,$2,$3,$4,$5,$6)`, id, line.ProductID, line.ReturnQuantity, line.TaxAmount, line.LineTotal, line.LocationID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) InsertReturnLog(ctx context.Context, purchaseID, productID int64, qty float64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO purchase_return_log (purchase_id, product_id, quantity, created_at) VALUES ($1,$2,$3,NOW())`,
		purchaseID, productID, qty)
	return err
}

// ReduceProductStock lowers live stock and folds the movement into the day's
// snapshot so closing stock reflects the return immediately.
func (r *txRepository) ReduceProductStock(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error {
	if _, err := r.tx.Exec(ctx, `UPDATE product_stock SET quantity = quantity - $3, updated_at = NOW()
WHERE product_id=$1 AND location_id=$2`, productID, locationID, qty); err != nil {
		return err
	}
	_, err := r.tx.Exec(ctx, `UPDATE daily_stock_snapshots SET total_issued = total_issued + $4, closing_stock = closing_stock - $4
WHERE product_id=$1 AND location_id=$2 AND snapshot_date=$3`, productID, locationID, day, qty)
	return err
}

func (r *txRepository) UpdateReturnedQuantities(ctx context.Context, purchaseID int64, lines []ReturnProduct) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `UPDATE purchase_products SET returned_quantity = returned_quantity + $3
WHERE purchase_id=$1 AND product_id=$2`, purchaseID, line.ProductID, line.ReturnQuantity); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertGoodsReceived(ctx context.Context, grn GoodsReceived) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO goods_received (doc_id, linked_purchase_id, linked_purchase_order_id, received_at, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`, grn.DocID, grn.LinkedPurchaseID, grn.LinkedPurchaseOrderID, grn.ReceivedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range grn.Products {
		if _, err := r.tx.Exec(ctx, `INSERT INTO goods_received_products (grn_id, product_id, received_quantity, unit_price, location_id)
VALUES ($1,$2,$3,$4,$5)`, id, line.ProductID, line.ReceivedQuantity, line.UnitPrice, line.LocationID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) LinkGoodsReceived(ctx context.Context, grnID, purchaseID int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE goods_received SET linked_purchase_id=$2 WHERE id=$1`, grnID, purchaseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return r.lg
}
