package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate SQL reads behind the report calculators.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) scalar(ctx context.Context, query string, args ...any) (float64, error) {
	var value float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&value)
	return value, err
}

// TaxTotals sums document taxes over a period. Line tax and shipping tax on
// purchases count as input tax; return taxes and refunded shipping tax are
// netted off separately by the calculator.
func (r *Repository) TaxTotals(ctx context.Context, from, to time.Time) (TaxTotals, error) {
	var totals TaxTotals
	err := r.pool.QueryRow(ctx, `SELECT
COALESCE((SELECT SUM(pp.tax_amount) FROM purchase_products pp JOIN purchases p ON p.id = pp.purchase_id
	WHERE p.purchase_date >= $1 AND p.purchase_date <= $2), 0)
+ COALESCE((SELECT SUM(shipping_tax) FROM purchases WHERE purchase_date >= $1 AND purchase_date <= $2), 0),
COALESCE((SELECT SUM(total_tax_returned) FROM purchase_returns WHERE created_at >= $1 AND created_at <= $2), 0),
COALESCE((SELECT SUM(shipping_tax_refunded) FROM purchase_returns WHERE created_at >= $1 AND created_at <= $2), 0),
COALESCE((SELECT SUM(sp.cgst + sp.sgst + sp.igst) FROM sale_products sp JOIN sales s ON s.id = sp.sale_id
	WHERE s.sale_date >= $1 AND s.sale_date <= $2), 0),
COALESCE((SELECT SUM(total_tax_returned) FROM sale_returns WHERE created_at >= $1 AND created_at <= $2), 0)`,
		from, to).Scan(&totals.PurchaseTax, &totals.PurchaseReturnTax, &totals.RefundedShippingTax, &totals.SalesTax, &totals.SalesReturnTax)
	return totals, err
}

// JournalTaxEntries returns, per journal in the period, its tax_rate item
// total and which category item kinds co-occur with it.
func (r *Repository) JournalTaxEntries(ctx context.Context, from, to time.Time) ([]JournalTaxEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT
COALESCE(SUM(CASE WHEN i.account_type = 'tax_rate' THEN i.debit + i.credit ELSE 0 END), 0) AS tax_total,
BOOL_OR(i.account_type = 'expense_category') AS has_expense,
BOOL_OR(i.account_type = 'income_category') AS has_income
FROM journals j JOIN journal_items i ON i.journal_id = j.id
WHERE j.date >= $1 AND j.date <= $2
GROUP BY j.id
HAVING SUM(CASE WHEN i.account_type = 'tax_rate' THEN i.debit + i.credit ELSE 0 END) <> 0`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []JournalTaxEntry{}
	for rows.Next() {
		var entry JournalTaxEntry
		if err := rows.Scan(&entry.Amount, &entry.HasExpenseItem, &entry.HasIncomeItem); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// SupplierBalances lists the stored running balance of every supplier.
func (r *Repository) SupplierBalances(ctx context.Context) ([]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT balance FROM suppliers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []float64{}
	for rows.Next() {
		var balance float64
		if err := rows.Scan(&balance); err != nil {
			return nil, err
		}
		out = append(out, balance)
	}
	return out, rows.Err()
}

// SaleDues lists the receivable view of every sale.
func (r *Repository) SaleDues(ctx context.Context) ([]SaleDue, error) {
	rows, err := r.pool.Query(ctx, `SELECT total_payable, payment_amount, total_returned, status FROM sales`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SaleDue{}
	for rows.Next() {
		var due SaleDue
		if err := rows.Scan(&due.TotalPayable, &due.PaymentAmount, &due.TotalReturned, &due.Status); err != nil {
			return nil, err
		}
		out = append(out, due)
	}
	return out, rows.Err()
}

// UnpaidIncomeTotal sums the outstanding balance of income records that are
// not fully received.
func (r *Repository) UnpaidIncomeTotal(ctx context.Context) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(balance_amount), 0) FROM incomes
WHERE payment_status IN ('Partial','Due','Unpaid')`)
}

// ExpenseDuesTotal sums the outstanding balance of unpaid expense records.
func (r *Repository) ExpenseDuesTotal(ctx context.Context) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(balance_amount), 0) FROM expenses
WHERE payment_status IN ('Partial','Due','Unpaid')`)
}

// NetSalesWithoutTax sums sale totals before tax, net of returns.
func (r *Repository) NetSalesWithoutTax(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT
COALESCE((SELECT SUM(total_without_tax) FROM sales WHERE sale_date >= $1 AND sale_date <= $2), 0)
- COALESCE((SELECT SUM(total_without_tax) FROM sale_returns WHERE created_at >= $1 AND created_at <= $2), 0)`, from, to)
}

// PurchasesWithoutTax sums formal purchase totals before tax, shipping
// charges included.
func (r *Repository) PurchasesWithoutTax(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT
COALESCE((SELECT SUM(pp.line_total - pp.tax_amount) FROM purchase_products pp JOIN purchases p ON p.id = pp.purchase_id
	WHERE p.purchase_date >= $1 AND p.purchase_date <= $2), 0)
+ COALESCE((SELECT SUM(shipping_charges) FROM purchases WHERE purchase_date >= $1 AND purchase_date <= $2), 0)`, from, to)
}

// StandaloneGRNValue sums received value on notes never linked to a formal
// purchase; linked notes are already counted through their purchase.
func (r *Repository) StandaloneGRNValue(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(gp.received_quantity * gp.unit_price), 0)
FROM goods_received_products gp JOIN goods_received g ON g.id = gp.grn_id
WHERE g.linked_purchase_id = 0 AND g.received_at >= $1 AND g.received_at <= $2`, from, to)
}

// PurchaseReturnsWithoutTax sums purchase return totals before tax.
func (r *Repository) PurchaseReturnsWithoutTax(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(total_without_tax), 0) FROM purchase_returns
WHERE created_at >= $1 AND created_at <= $2`, from, to)
}

// CategoryRecords unions the journal category lines with the expense and
// income registers for a period. Journal expense amounts are debit-positive,
// income amounts credit-positive.
func (r *Repository) CategoryRecords(ctx context.Context, from, to time.Time) ([]CategoryRecord, error) {
	rows, err := r.pool.Query(ctx, `
SELECT c.name, c.head, c.nature, i.debit - i.credit, FALSE
FROM journal_items i
JOIN journals j ON j.id = i.journal_id
JOIN expense_categories c ON c.id = i.account_id
WHERE i.account_type = 'expense_category' AND j.date >= $1 AND j.date <= $2
UNION ALL
SELECT c.name, c.head, c.nature, i.credit - i.debit, TRUE
FROM journal_items i
JOIN journals j ON j.id = i.journal_id
JOIN income_categories c ON c.id = i.account_id
WHERE i.account_type = 'income_category' AND j.date >= $1 AND j.date <= $2
UNION ALL
SELECT c.name, c.head, c.nature, e.amount, FALSE
FROM expenses e JOIN expense_categories c ON c.id = e.category_id
WHERE e.expense_date >= $1 AND e.expense_date <= $2
UNION ALL
SELECT c.name, c.head, c.nature, n.amount, TRUE
FROM incomes n JOIN income_categories c ON c.id = n.category_id
WHERE n.income_date >= $1 AND n.income_date <= $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CategoryRecord{}
	for rows.Next() {
		var rec CategoryRecord
		var nature string
		if err := rows.Scan(&rec.Name, &rec.Head, &nature, &rec.Amount, &rec.IsIncome); err != nil {
			return nil, err
		}
		rec.Nature = CategoryNature(nature)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PackingCharges sums packing charges collected on sales in the period.
func (r *Repository) PackingCharges(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(packing_charges), 0) FROM sales
WHERE sale_date >= $1 AND sale_date <= $2`, from, to)
}

// NetShippingIncome nets shipping collected on sales against shipping paid
// on purchases.
func (r *Repository) NetShippingIncome(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT
COALESCE((SELECT SUM(shipping_charges) FROM sales WHERE sale_date >= $1 AND sale_date <= $2), 0)
- COALESCE((SELECT SUM(shipping_charges) FROM purchases WHERE purchase_date >= $1 AND purchase_date <= $2), 0)`, from, to)
}

// ServiceChargeIncome sums service charges collected on sales in the period.
func (r *Repository) ServiceChargeIncome(ctx context.Context, from, to time.Time) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(service_charge), 0) FROM sales
WHERE sale_date >= $1 AND sale_date <= $2`, from, to)
}

// PendingSaleLiability sums customer money collected beyond what the sale
// finally charges, which the business owes back.
func (r *Repository) PendingSaleLiability(ctx context.Context) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(GREATEST(payment_amount - total_payable, 0)), 0)
FROM sales WHERE total_returned = 0`)
}

// PendingRefunds sums over-collections still held on returned sales.
func (r *Repository) PendingRefunds(ctx context.Context) (float64, error) {
	return r.scalar(ctx, `SELECT COALESCE(SUM(GREATEST(payment_amount + total_returned - total_payable, 0)), 0)
FROM sales WHERE total_returned > 0`)
}
