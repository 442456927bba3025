package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

// Repository persists sales and sale returns.
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
		return errors.New("sales repository not initialised")
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

// GetSale loads a sale with its lines.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	return scanSale(ctx, r.pool, id, false)
}

// ListInRange lists sales dated within [from, to] with their lines.
func (r *Repository) ListInRange(ctx context.Context, from, to time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM sales WHERE sale_date >= $1 AND sale_date <= $2 ORDER BY sale_date ASC, id ASC`, from, to)
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
	out := make([]Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := scanSale(ctx, r.pool, id, false)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanSale(ctx context.Context, q querier, id int64, forUpdate bool) (Sale, error) {
	query := `SELECT id, doc_id, customer_name, customer_gstin, invoice_no, sale_date, is_inter_state, total_without_tax, total_payable,
payment_amount, packing_charges, shipping_charges, service_charge, total_returned, total_tax_returned, status, created_at, updated_at
FROM sales WHERE id=$1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var s Sale
	err := q.QueryRow(ctx, query, id).Scan(&s.ID, &s.DocID, &s.CustomerName, &s.CustomerGSTIN, &s.InvoiceNo, &s.SaleDate, &s.IsInterState,
		&s.TotalWithoutTax, &s.TotalPayable, &s.PaymentAmount, &s.PackingCharges, &s.ShippingCharges, &s.ServiceCharge,
		&s.TotalReturned, &s.TotalTaxReturned, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	rows, err := q.Query(ctx, `SELECT product_id, name, quantity, unit_price, discount_percent, tax_rate, cgst, sgst, igst, line_total, returned_quantity, location_id
FROM sale_products WHERE sale_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Product
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Quantity, &line.UnitPriceBeforeTax, &line.DiscountPercent,
			&line.TaxRate, &line.Tax.CGST, &line.Tax.SGST, &line.Tax.IGST, &line.LineTotal, &line.ReturnedQuantity, &line.LocationID); err != nil {
			return Sale{}, err
		}
		s.Products = append(s.Products, line)
	}
	return s, rows.Err()
}

func (r *txRepository) InsertSale(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (doc_id, customer_name, customer_gstin, invoice_no, sale_date, is_inter_state,
total_without_tax, total_payable, payment_amount, packing_charges, shipping_charges, service_charge, total_returned, total_tax_returned, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW(),NOW()) RETURNING id`,
		s.DocID, s.CustomerName, s.CustomerGSTIN, s.InvoiceNo, s.SaleDate, s.IsInterState, s.TotalWithoutTax, s.TotalPayable,
		s.PaymentAmount, s.PackingCharges, s.ShippingCharges, s.ServiceCharge, s.TotalReturned, s.TotalTaxReturned, s.Status).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range s.Products {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_products (sale_id, product_id, name, quantity, unit_price, discount_percent, tax_rate, cgst, sgst, igst, line_total, returned_quantity, location_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			id, line.ProductID, line.Name, line.Quantity, line.UnitPriceBeforeTax, line.DiscountPercent, line.TaxRate,
			line.Tax.CGST, line.Tax.SGST, line.Tax.IGST, line.LineTotal, line.ReturnedQuantity, line.LocationID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) UpdateSale(ctx context.Context, s Sale) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales SET customer_name=$2, invoice_no=$3, sale_date=$4, total_without_tax=$5, total_payable=$6,
payment_amount=$7, packing_charges=$8, shipping_charges=$9, service_charge=$10, total_returned=$11, total_tax_returned=$12, status=$13, updated_at=NOW()
WHERE id=$1`,
		s.ID, s.CustomerName, s.InvoiceNo, s.SaleDate, s.TotalWithoutTax, s.TotalPayable, s.PaymentAmount,
		s.PackingCharges, s.ShippingCharges, s.ServiceCharge, s.TotalReturned, s.TotalTaxReturned, s.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) GetSaleForUpdate(ctx context.Context, id int64) (Sale, error) {
	return scanSale(ctx, r.tx, id, true)
}

func (r *txRepository) InsertReturn(ctx context.Context, ret Return) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sale_returns (doc_id, parent_sale_id, grand_total, total_without_tax, total_tax_returned, cash_refund, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		ret.DocID, ret.ParentSaleID, ret.GrandTotal, ret.TotalWithoutTax, ret.TotalTaxReturned, ret.CashRefund).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, line := range ret.Products {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_return_products (return_id, product_id, return_quantity, tax_amount, line_total, location_id)
VALUES ($1,$2,$3,$4,$5,$6)`, id, line.ProductID, line.ReturnQuantity, line.TaxAmount, line.LineTotal, line.LocationID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepository) UpdateReturnedQuantities(ctx context.Context, saleID int64, lines []ReturnProduct) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `UPDATE sale_products SET returned_quantity = returned_quantity + $3
WHERE sale_id=$1 AND product_id=$2`, saleID, line.ProductID, line.ReturnQuantity); err != nil {
			return err
		}
	}
	return nil
}

// IssueProductStock lowers live stock for a sold line and folds the movement
// into the day's snapshot.
func (r *txRepository) IssueProductStock(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error {
	if _, err := r.tx.Exec(ctx, `UPDATE product_stock SET quantity = quantity - $3, updated_at = NOW()
WHERE product_id=$1 AND location_id=$2`, productID, locationID, qty); err != nil {
		return err
	}
	_, err := r.tx.Exec(ctx, `UPDATE daily_stock_snapshots SET total_issued = total_issued + $4, closing_stock = closing_stock - $4
WHERE product_id=$1 AND location_id=$2 AND snapshot_date=$3`, productID, locationID, day, qty)
	return err
}

// RestockProduct raises live stock for a returned line and folds the movement
// into the day's snapshot.
func (r *txRepository) RestockProduct(ctx context.Context, productID, locationID int64, qty float64, day time.Time) error {
	if _, err := r.tx.Exec(ctx, `UPDATE product_stock SET quantity = quantity + $3, updated_at = NOW()
WHERE product_id=$1 AND location_id=$2`, productID, locationID, qty); err != nil {
		return err
	}
	_, err := r.tx.Exec(ctx, `UPDATE daily_stock_snapshots SET total_received = total_received + $4, closing_stock = closing_stock + $4
WHERE product_id=$1 AND location_id=$2 AND snapshot_date=$3`, productID, locationID, day, qty)
	return err
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return r.lg
}
