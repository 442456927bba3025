package reports

// SaleDue is the receivable view of one sale document.
type SaleDue struct {
	TotalPayable  float64
	PaymentAmount float64
	TotalReturned float64
	Status        string
}

// Receivable clamps the outstanding amount at zero.
func (s SaleDue) Receivable() float64 {
	due := s.TotalPayable - s.PaymentAmount - s.TotalReturned
	if due < 0 {
		return 0
	}
	return due
}

// debtorStatuses are the sale statuses that still owe money.
var debtorStatuses = map[string]bool{
	"Completed":      true,
	"Partial Return": true,
}

// tradeDeadband absorbs float noise in supplier running balances: anything
// within one unit of zero counts as settled.
const tradeDeadband = 1.0

// ComputeTradeBalances buckets supplier running balances into sundry
// creditors and advances, sums sale receivables and unpaid incomes into
// sundry debtors, and carries expense dues through. Supplier balances are
// read as stored, not recomputed from transactions.
func ComputeTradeBalances(supplierBalances []float64, saleDues []SaleDue, unpaidIncomes, expenseDues float64) TradeBalances {
	var tb TradeBalances
	for _, balance := range supplierBalances {
		switch {
		case balance > tradeDeadband:
			tb.SundryCreditors += balance
		case balance < -tradeDeadband:
			tb.SupplierAdvances += -balance
		}
	}
	for _, sale := range saleDues {
		if !debtorStatuses[sale.Status] {
			continue
		}
		tb.SundryDebtors += sale.Receivable()
	}
	tb.SundryDebtors += unpaidIncomes
	tb.ExpenseDues = expenseDues
	return tb
}
