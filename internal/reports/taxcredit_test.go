package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	taxFrom = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	taxTo   = time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
)

func TestCalculateTaxCreditsNetsBothSides(t *testing.T) {
	totals := TaxTotals{
		PurchaseTax:         1000,
		PurchaseReturnTax:   100,
		RefundedShippingTax: 50,
		SalesTax:            800,
		SalesReturnTax:      120,
	}
	report := CalculateTaxCredits(taxFrom, taxTo, totals, nil)

	assert.InDelta(t, 850.0, report.FinalInputTax, 1e-9)
	assert.InDelta(t, 680.0, report.FinalOutputTax, 1e-9)
}

func TestCalculateTaxCreditsClampsAtZero(t *testing.T) {
	totals := TaxTotals{PurchaseTax: 100, PurchaseReturnTax: 300}
	report := CalculateTaxCredits(taxFrom, taxTo, totals, nil)
	assert.Zero(t, report.FinalInputTax)

	totals = TaxTotals{SalesTax: 50, SalesReturnTax: 200}
	report = CalculateTaxCredits(taxFrom, taxTo, totals, nil)
	assert.Zero(t, report.FinalOutputTax)
}

func TestJournalTaxAttributionByCoOccurrence(t *testing.T) {
	entries := []JournalTaxEntry{
		{Amount: 90, HasExpenseItem: true},
		{Amount: 40, HasIncomeItem: true},
		{Amount: 10, HasExpenseItem: true, HasIncomeItem: true},
		{Amount: 25}, // no category item, attributed nowhere
	}
	report := CalculateTaxCredits(taxFrom, taxTo, TaxTotals{}, entries)

	assert.InDelta(t, 100.0, report.JournalInputTax, 1e-9)
	assert.InDelta(t, 50.0, report.JournalOutputTax, 1e-9)
	assert.InDelta(t, 100.0, report.FinalInputTax, 1e-9)
	assert.InDelta(t, 50.0, report.FinalOutputTax, 1e-9)
}

func TestSubTotalsRoundedIndependently(t *testing.T) {
	totals := TaxTotals{PurchaseTax: 10.004, PurchaseReturnTax: 0.004}
	report := CalculateTaxCredits(taxFrom, taxTo, totals, nil)

	assert.InDelta(t, 10.0, report.GrossPurchaseTax, 1e-9)
	assert.InDelta(t, 0.0, report.PurchaseReturnTax, 1e-9)
	assert.InDelta(t, 10.0, report.FinalInputTax, 1e-9)
}
