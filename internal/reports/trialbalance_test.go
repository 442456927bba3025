package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

func account(name, group string, balance float64) ledger.AccountClosing {
	return ledger.AccountClosing{
		Account: ledger.Account{Name: name, Head: ledger.AccountHead{Group: group}},
		Balance: balance,
	}
}

var (
	tbFrom = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	tbTo   = time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
)

func findRow(t *testing.T, rows []TrialBalanceRow, name string) TrialBalanceRow {
	t.Helper()
	for _, row := range rows {
		if row.Name == name {
			return row
		}
	}
	t.Fatalf("row %q not found", name)
	return TrialBalanceRow{}
}

func TestTrialBalanceClassifiesAccounts(t *testing.T) {
	inputs := TrialBalanceInputs{
		Accounts: []ledger.AccountClosing{
			account("Cash", "Asset", 8000),
			account("Bank Loan", "Liabilities", -500),
			account("Owner Capital", "Equity", 10000),
		},
	}
	report := BuildTrialBalance(tbFrom, tbTo, inputs)

	cash := findRow(t, report.Rows, "Cash")
	assert.InDelta(t, 8000.0, cash.Debit, 1e-9)

	// an overpaid liability still lands in the credit column as abs(balance)
	loan := findRow(t, report.Rows, "Bank Loan")
	assert.Zero(t, loan.Debit)
	assert.InDelta(t, 500.0, loan.Credit, 1e-9)

	capital := findRow(t, report.Rows, "Owner Capital")
	assert.InDelta(t, 10000.0, capital.Credit, 1e-9)
}

func TestTrialBalanceInjectsSyntheticRows(t *testing.T) {
	inputs := TrialBalanceInputs{
		Tax:   TaxCreditReport{FinalInputTax: 850, FinalOutputTax: 680},
		Trade: TradeBalances{SundryCreditors: 1500, SundryDebtors: 950},
		ProfitLoss: ProfitLossReport{
			Sales:     20000,
			Purchases: 13000,
			IndirectExpenseItems: []CategoryAmount{
				{Category: "Office Rent", Amount: 2000},
			},
			DirectIncomeItems: []CategoryAmount{
				{Category: "Commission Earned", Amount: 300},
			},
		},
		PackingCharges:    120,
		NetShippingIncome: 80,
	}
	report := BuildTrialBalance(tbFrom, tbTo, inputs)

	assert.InDelta(t, 20000.0, findRow(t, report.Rows, "Net Sales").Credit, 1e-9)
	assert.InDelta(t, 13000.0, findRow(t, report.Rows, "Net Purchases").Debit, 1e-9)
	assert.InDelta(t, 850.0, findRow(t, report.Rows, "Input Tax").Debit, 1e-9)
	assert.InDelta(t, 680.0, findRow(t, report.Rows, "Output Tax").Credit, 1e-9)
	assert.InDelta(t, 2000.0, findRow(t, report.Rows, "Office Rent").Debit, 1e-9)
	assert.InDelta(t, 300.0, findRow(t, report.Rows, "Commission Earned").Credit, 1e-9)
	assert.InDelta(t, 120.0, findRow(t, report.Rows, "Packing Charges").Credit, 1e-9)
	require.True(t, findRow(t, report.Rows, "Net Sales").Synthetic)
}

func TestTrialBalanceSurfacesDifference(t *testing.T) {
	inputs := TrialBalanceInputs{
		Accounts: []ledger.AccountClosing{
			account("Cash", "Asset", 5000),
			account("Owner Capital", "Equity", 4000),
		},
	}
	report := BuildTrialBalance(tbFrom, tbTo, inputs)

	assert.InDelta(t, 5000.0, report.TotalDebit, 1e-9)
	assert.InDelta(t, 4000.0, report.TotalCredit, 1e-9)
	// the gap is reported, never papered over
	assert.InDelta(t, 1000.0, report.Difference, 1e-9)
}
