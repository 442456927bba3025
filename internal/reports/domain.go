package reports

import (
	"strings"
	"time"
)

// CategoryNature tags an expense/income category as direct, indirect, or
// operational. Legacy rows carry no tag and fall back to the head classifier.
type CategoryNature string

const (
	NatureDirect      CategoryNature = "DIRECT"
	NatureIndirect    CategoryNature = "INDIRECT"
	NatureOperational CategoryNature = "OPERATIONAL"
)

// ClassifyNature resolves a category's nature. A stored tag wins; otherwise
// the account head string is matched by substring, defaulting to indirect
// when ambiguous.
func ClassifyNature(tag CategoryNature, head string) CategoryNature {
	switch tag {
	case NatureDirect, NatureIndirect, NatureOperational:
		return tag
	}
	lower := strings.ToLower(head)
	switch {
	case strings.Contains(lower, "direct") && !strings.Contains(lower, "indirect"):
		return NatureDirect
	case strings.Contains(lower, "operational"):
		return NatureOperational
	default:
		return NatureIndirect
	}
}

// CategoryRecord is one expense or income category amount inside a period,
// drawn from journals and the expense/income registers alike.
type CategoryRecord struct {
	Name     string         `json:"name"`
	Head     string         `json:"head"`
	Nature   CategoryNature `json:"nature,omitempty"`
	Amount   float64        `json:"amount"`
	IsIncome bool           `json:"isIncome"`
}

// CategoryAmount is a labelled total in a report breakdown.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// TaxCreditReport nets input tax against output tax over a period.
type TaxCreditReport struct {
	From                time.Time `json:"from"`
	To                  time.Time `json:"to"`
	GrossPurchaseTax    float64   `json:"grossPurchaseTax"`
	PurchaseReturnTax   float64   `json:"purchaseReturnTax"`
	RefundedShippingTax float64   `json:"refundedShippingTax"`
	JournalInputTax     float64   `json:"journalInputTax"`
	GrossOutputTax      float64   `json:"grossOutputTax"`
	SalesReturnTax      float64   `json:"salesReturnTax"`
	JournalOutputTax    float64   `json:"journalOutputTax"`
	FinalInputTax       float64   `json:"finalInputTax"`
	FinalOutputTax      float64   `json:"finalOutputTax"`
}

// TradeBalances groups the derived receivable/payable buckets.
type TradeBalances struct {
	SundryCreditors  float64 `json:"sundryCreditors"`
	SupplierAdvances float64 `json:"supplierAdvances"`
	SundryDebtors    float64 `json:"sundryDebtors"`
	ExpenseDues      float64 `json:"expenseDues"`
}

// Granularity selects the profit and loss breakdown depth. Basic keeps the
// original coarse report (operational folded into indirect, no indirect
// income); Detailed carries all buckets.
type Granularity string

const (
	GranularityBasic    Granularity = "basic"
	GranularityDetailed Granularity = "detailed"
)

// ProfitLossReport is the trading-account plus P&L-account statement.
type ProfitLossReport struct {
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Granularity Granularity `json:"granularity"`

	OpeningStock float64 `json:"openingStock"`
	ClosingStock float64 `json:"closingStock"`
	Sales        float64 `json:"sales"`
	Purchases    float64 `json:"purchases"`

	DirectExpense      float64 `json:"directExpense"`
	DirectIncome       float64 `json:"directIncome"`
	IndirectExpense    float64 `json:"indirectExpense"`
	IndirectIncome     float64 `json:"indirectIncome"`
	OperationalExpense float64 `json:"operationalExpense"`

	DirectExpenseItems      []CategoryAmount `json:"directExpenseItems,omitempty"`
	DirectIncomeItems       []CategoryAmount `json:"directIncomeItems,omitempty"`
	IndirectExpenseItems    []CategoryAmount `json:"indirectExpenseItems,omitempty"`
	IndirectIncomeItems     []CategoryAmount `json:"indirectIncomeItems,omitempty"`
	OperationalExpenseItems []CategoryAmount `json:"operationalExpenseItems,omitempty"`

	GrossProfit float64 `json:"grossProfit"`
	NetProfit   float64 `json:"netProfit"`

	Warnings []string `json:"warnings,omitempty"`
}

// TrialBalanceRow is one line of the trial balance, either a ledger account
// or an injected synthetic figure.
type TrialBalanceRow struct {
	Name      string  `json:"name"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
	Synthetic bool    `json:"synthetic,omitempty"`
}

// TrialBalanceReport lists every row with simple sum totals. A nonzero
// difference is surfaced, never corrected.
type TrialBalanceReport struct {
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  float64           `json:"totalDebit"`
	TotalCredit float64           `json:"totalCredit"`
	Difference  float64           `json:"difference"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// BalanceSheetLine is one named amount in a balance sheet section.
type BalanceSheetLine struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// BalanceSheetReport groups accounts and derived figures into the three
// sections. Status reports whether both sides agree within one unit.
type BalanceSheetReport struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Equity      []BalanceSheetLine `json:"equity"`
	Liabilities []BalanceSheetLine `json:"liabilities"`
	Assets      []BalanceSheetLine `json:"assets"`

	TotalEquityAndLiabilities float64 `json:"totalEquityAndLiabilities"`
	TotalAssets               float64 `json:"totalAssets"`
	NetProfit                 float64 `json:"netProfit"`
	ClosingStock              float64 `json:"closingStock"`

	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
}

// Balance sheet status strings.
const (
	StatusBalanced   = "Balanced"
	StatusUnbalanced = "Unbalanced"
)
