package reports

import (
	"math"
	"time"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
)

// BalanceSheetInputs collects the account balances and derived figures the
// composer folds into the statement.
type BalanceSheetInputs struct {
	Accounts             []ledger.AccountClosing
	Trade                TradeBalances
	Tax                  TaxCreditReport
	ClosingStock         float64
	ProfitLoss           ProfitLossReport
	PendingSaleLiability float64
	PendingRefunds       float64
	NetShippingIncome    float64
	ServiceChargeIncome  float64
	Warnings             []string
}

// balanceTolerance is the acceptable gap between the two sides.
const balanceTolerance = 1.0

// BuildBalanceSheet categorizes accounts by head into equity, liabilities,
// and assets, adds trade, tax, stock, and pending-liability figures, and
// reports whether both sides agree within one unit. Liabilities are shown as
// absolute values regardless of sign.
func BuildBalanceSheet(from, to time.Time, inputs BalanceSheetInputs) BalanceSheetReport {
	report := BalanceSheetReport{From: from, To: to, Warnings: inputs.Warnings}

	for _, closing := range inputs.Accounts {
		line := BalanceSheetLine{Name: closing.Account.Name, Amount: closing.Balance}
		switch closing.Account.Head.Principal() {
		case ledger.PrincipalEquity:
			report.Equity = append(report.Equity, line)
		case ledger.PrincipalLiability:
			line.Amount = math.Abs(line.Amount)
			report.Liabilities = append(report.Liabilities, line)
		default:
			report.Assets = append(report.Assets, line)
		}
	}

	// closing stock: the P&L's own figure wins when it carries one
	report.ClosingStock = inputs.ClosingStock
	if inputs.ProfitLoss.ClosingStock != 0 {
		report.ClosingStock = inputs.ProfitLoss.ClosingStock
	}
	report.Assets = append(report.Assets, BalanceSheetLine{Name: "Closing Stock", Amount: report.ClosingStock})

	if inputs.Trade.SundryDebtors != 0 {
		report.Assets = append(report.Assets, BalanceSheetLine{Name: "Sundry Debtors", Amount: inputs.Trade.SundryDebtors})
	}
	if inputs.Tax.FinalInputTax != 0 {
		report.Assets = append(report.Assets, BalanceSheetLine{Name: "Input Tax Credit", Amount: inputs.Tax.FinalInputTax})
	}
	if inputs.Trade.SupplierAdvances != 0 {
		report.Assets = append(report.Assets, BalanceSheetLine{Name: "Supplier Advances", Amount: inputs.Trade.SupplierAdvances})
	}

	if inputs.Trade.SundryCreditors != 0 {
		report.Liabilities = append(report.Liabilities, BalanceSheetLine{Name: "Sundry Creditors", Amount: inputs.Trade.SundryCreditors})
	}
	if inputs.Trade.ExpenseDues != 0 {
		report.Liabilities = append(report.Liabilities, BalanceSheetLine{Name: "Expense Dues", Amount: inputs.Trade.ExpenseDues})
	}
	if inputs.Tax.FinalOutputTax != 0 {
		report.Liabilities = append(report.Liabilities, BalanceSheetLine{Name: "Output Tax Payable", Amount: inputs.Tax.FinalOutputTax})
	}
	if inputs.PendingSaleLiability != 0 {
		report.Liabilities = append(report.Liabilities, BalanceSheetLine{Name: "Pending Sale Receipts", Amount: inputs.PendingSaleLiability})
	}
	if inputs.PendingRefunds != 0 {
		report.Liabilities = append(report.Liabilities, BalanceSheetLine{Name: "Pending Customer Refunds", Amount: inputs.PendingRefunds})
	}

	// net profit from the P&L, patched with shipping and service-charge
	// income that the statement does not carry on its own
	report.NetProfit = inputs.ProfitLoss.NetProfit + inputs.NetShippingIncome + inputs.ServiceChargeIncome
	report.Equity = append(report.Equity, BalanceSheetLine{Name: "Net Profit", Amount: report.NetProfit})

	for _, line := range report.Equity {
		report.TotalEquityAndLiabilities += line.Amount
	}
	for _, line := range report.Liabilities {
		report.TotalEquityAndLiabilities += line.Amount
	}
	for _, line := range report.Assets {
		report.TotalAssets += line.Amount
	}

	if math.Abs(report.TotalAssets-report.TotalEquityAndLiabilities) <= balanceTolerance {
		report.Status = StatusBalanced
	} else {
		report.Status = StatusUnbalanced
	}
	return report
}
