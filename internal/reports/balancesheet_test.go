package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

var (
	bsFrom = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	bsTo   = time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
)

func findLine(lines []BalanceSheetLine, name string) (BalanceSheetLine, bool) {
	for _, line := range lines {
		if line.Name == name {
			return line, true
		}
	}
	return BalanceSheetLine{}, false
}

func TestBalanceSheetSectionsAndAbsLiabilities(t *testing.T) {
	inputs := BalanceSheetInputs{
		Accounts: []ledger.AccountClosing{
			account("Cash", "Asset", 9000),
			account("Bank Loan", "Liabilities", -4000),
			account("Owner Capital", "Equity", 5000),
		},
	}
	report := BuildBalanceSheet(bsFrom, bsTo, inputs)

	loan, ok := findLine(report.Liabilities, "Bank Loan")
	assert.True(t, ok)
	assert.InDelta(t, 4000.0, loan.Amount, 1e-9)

	_, ok = findLine(report.Assets, "Cash")
	assert.True(t, ok)
	_, ok = findLine(report.Equity, "Owner Capital")
	assert.True(t, ok)
}

func TestBalanceSheetWithinToleranceIsBalanced(t *testing.T) {
	inputs := BalanceSheetInputs{
		Accounts: []ledger.AccountClosing{
			account("Cash", "Asset", 10000.6),
			account("Owner Capital", "Equity", 10000),
		},
	}
	report := BuildBalanceSheet(bsFrom, bsTo, inputs)
	assert.Equal(t, StatusBalanced, report.Status)

	inputs.Accounts[0].Balance = 10500
	report = BuildBalanceSheet(bsFrom, bsTo, inputs)
	assert.Equal(t, StatusUnbalanced, report.Status)
	// the imbalance is reported, not corrected
	assert.InDelta(t, 10500.0, report.TotalAssets, 1e-9)
	assert.InDelta(t, 10000.0, report.TotalEquityAndLiabilities, 1e-9)
}

func TestBalanceSheetPrefersProfitLossClosingStock(t *testing.T) {
	inputs := BalanceSheetInputs{
		ClosingStock: 3000,
		ProfitLoss:   ProfitLossReport{ClosingStock: 3200},
	}
	report := BuildBalanceSheet(bsFrom, bsTo, inputs)
	assert.InDelta(t, 3200.0, report.ClosingStock, 1e-9)

	inputs.ProfitLoss.ClosingStock = 0
	report = BuildBalanceSheet(bsFrom, bsTo, inputs)
	assert.InDelta(t, 3000.0, report.ClosingStock, 1e-9)
}

func TestBalanceSheetNetProfitPatchedWithCharges(t *testing.T) {
	inputs := BalanceSheetInputs{
		ProfitLoss:          ProfitLossReport{NetProfit: 6150},
		NetShippingIncome:   80,
		ServiceChargeIncome: 40,
	}
	report := BuildBalanceSheet(bsFrom, bsTo, inputs)
	assert.InDelta(t, 6270.0, report.NetProfit, 1e-9)

	profit, ok := findLine(report.Equity, "Net Profit")
	assert.True(t, ok)
	assert.InDelta(t, 6270.0, profit.Amount, 1e-9)
}

func TestBalanceSheetPendingLiabilities(t *testing.T) {
	inputs := BalanceSheetInputs{
		PendingSaleLiability: 250,
		PendingRefunds:       90,
	}
	report := BuildBalanceSheet(bsFrom, bsTo, inputs)

	receipts, ok := findLine(report.Liabilities, "Pending Sale Receipts")
	assert.True(t, ok)
	assert.InDelta(t, 250.0, receipts.Amount, 1e-9)
	refunds, ok := findLine(report.Liabilities, "Pending Customer Refunds")
	assert.True(t, ok)
	assert.InDelta(t, 90.0, refunds.Amount, 1e-9)
}
