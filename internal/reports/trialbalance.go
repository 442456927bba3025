package reports

import (
	"time"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

// TrialBalanceInputs collects everything the trial balance injects alongside
// the replayed account balances.
type TrialBalanceInputs struct {
	Accounts          []ledger.AccountClosing
	Tax               TaxCreditReport
	Trade             TradeBalances
	ProfitLoss        ProfitLossReport
	PackingCharges    float64
	NetShippingIncome float64
	Warnings          []string
}

// BuildTrialBalance classifies every account's as-of closing balance into the
// debit or credit column and injects the synthetic document-derived rows. The
// totals are simple sums; a nonzero difference is reported, not corrected.
func BuildTrialBalance(from, to time.Time, inputs TrialBalanceInputs) TrialBalanceReport {
	report := TrialBalanceReport{From: from, To: to, Warnings: inputs.Warnings}

	for _, closing := range inputs.Accounts {
		classified := ledger.ClassifyBalance(closing.Account.Head.Principal(), closing.Balance)
		report.Rows = append(report.Rows, TrialBalanceRow{
			Name:   closing.Account.Name,
			Debit:  classified.Debit,
			Credit: classified.Credit,
		})
	}

	synthetic := func(name string, debit, credit float64) {
		report.Rows = append(report.Rows, TrialBalanceRow{Name: name, Debit: debit, Credit: credit, Synthetic: true})
	}

	synthetic("Net Sales", 0, inputs.ProfitLoss.Sales)
	synthetic("Net Purchases", inputs.ProfitLoss.Purchases, 0)
	synthetic("Output Tax", 0, inputs.Tax.FinalOutputTax)
	synthetic("Input Tax", inputs.Tax.FinalInputTax, 0)
	synthetic("Purchase Dues", 0, inputs.Trade.SundryCreditors)
	synthetic("Sales and Income Dues", inputs.Trade.SundryDebtors, 0)
	if inputs.PackingCharges != 0 {
		synthetic("Packing Charges", 0, inputs.PackingCharges)
	}
	if inputs.NetShippingIncome != 0 {
		synthetic("Net Shipping Income", 0, inputs.NetShippingIncome)
	}
	for _, item := range inputs.ProfitLoss.DirectExpenseItems {
		synthetic(item.Category, item.Amount, 0)
	}
	for _, item := range inputs.ProfitLoss.IndirectExpenseItems {
		synthetic(item.Category, item.Amount, 0)
	}
	for _, item := range inputs.ProfitLoss.OperationalExpenseItems {
		synthetic(item.Category, item.Amount, 0)
	}
	for _, item := range inputs.ProfitLoss.DirectIncomeItems {
		synthetic(item.Category, 0, item.Amount)
	}
	for _, item := range inputs.ProfitLoss.IndirectIncomeItems {
		synthetic(item.Category, 0, item.Amount)
	}

	for _, row := range report.Rows {
		report.TotalDebit += row.Debit
		report.TotalCredit += row.Credit
	}
	report.Difference = report.TotalDebit - report.TotalCredit
	return report
}
