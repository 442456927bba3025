package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeBalancesDeadband(t *testing.T) {
	balances := []float64{1500, 0.8, -0.9, -2500}
	tb := ComputeTradeBalances(balances, nil, 0, 0)

	// balances within one unit of zero are treated as settled
	assert.InDelta(t, 1500.0, tb.SundryCreditors, 1e-9)
	assert.InDelta(t, 2500.0, tb.SupplierAdvances, 1e-9)
}

func TestSundryDebtorsFromSaleReceivables(t *testing.T) {
	dues := []SaleDue{
		{TotalPayable: 1000, PaymentAmount: 400, Status: "Completed"},
		{TotalPayable: 500, PaymentAmount: 100, TotalReturned: 200, Status: "Partial Return"},
		{TotalPayable: 300, Status: "Returned"},                                       // excluded status
		{TotalPayable: 100, PaymentAmount: 80, TotalReturned: 50, Status: "Completed"}, // clamps at 0
	}
	tb := ComputeTradeBalances(nil, dues, 150, 75)

	assert.InDelta(t, 600.0+200.0+150.0, tb.SundryDebtors, 1e-9)
	assert.InDelta(t, 75.0, tb.ExpenseDues, 1e-9)
}
