package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxTotals carries the gross document tax sums of a period.
type TaxTotals struct {
	PurchaseTax         float64
	PurchaseReturnTax   float64
	RefundedShippingTax float64
	SalesTax            float64
	SalesReturnTax      float64
}

// JournalTaxEntry is the tax_rate item total of one journal together with the
// item kinds that co-occurred in it.
type JournalTaxEntry struct {
	Amount         float64
	HasExpenseItem bool
	HasIncomeItem  bool
}

// CalculateTaxCredits nets input tax against output tax. Journal tax lines
// are attributed by co-occurrence: an expense_category item in the same
// journal marks the tax as input, an income_category item as output. A
// journal carrying both feeds both buckets; the classification is a
// heuristic, not ledger-enforced.
func CalculateTaxCredits(from, to time.Time, totals TaxTotals, journalTaxes []JournalTaxEntry) TaxCreditReport {
	var journalInput, journalOutput float64
	for _, entry := range journalTaxes {
		if entry.HasExpenseItem {
			journalInput += entry.Amount
		}
		if entry.HasIncomeItem {
			journalOutput += entry.Amount
		}
	}

	report := TaxCreditReport{
		From:                from,
		To:                  to,
		GrossPurchaseTax:    round2(totals.PurchaseTax),
		PurchaseReturnTax:   round2(totals.PurchaseReturnTax),
		RefundedShippingTax: round2(totals.RefundedShippingTax),
		JournalInputTax:     round2(journalInput),
		GrossOutputTax:      round2(totals.SalesTax),
		SalesReturnTax:      round2(totals.SalesReturnTax),
		JournalOutputTax:    round2(journalOutput),
	}

	input := report.GrossPurchaseTax - report.PurchaseReturnTax - report.RefundedShippingTax + report.JournalInputTax
	output := report.GrossOutputTax - report.SalesReturnTax + report.JournalOutputTax
	report.FinalInputTax = clampZero(round2(input))
	report.FinalOutputTax = clampZero(round2(output))
	return report
}

// round2 rounds to 2 decimals. Sub-totals are rounded independently before
// combining, so small drift between the parts and the whole is expected.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
