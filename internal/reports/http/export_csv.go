package reporthttp

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ayurbooks/ayurbooks/internal/reports"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteTrialBalanceCSV serialises the trial balance rows with totals and the
// surfaced difference.
func WriteTrialBalanceCSV(w io.Writer, report reports.TrialBalanceReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Particulars", "Debit", "Credit"}); err != nil {
		return err
	}
	for _, row := range report.Rows {
		if err := writer.Write([]string{row.Name, formatFloat(row.Debit), formatFloat(row.Credit)}); err != nil {
			return err
		}
	}
	records := [][]string{
		{"Total", formatFloat(report.TotalDebit), formatFloat(report.TotalCredit)},
		{"Difference", formatFloat(report.Difference), ""},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProfitLossCSV emits the statement figures and category breakdowns.
func WriteProfitLossCSV(w io.Writer, report reports.ProfitLossReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Particulars", "Amount"}); err != nil {
		return err
	}
	records := [][]string{
		{"From", shared.FormatDisplay(report.From)},
		{"To", shared.FormatDisplay(report.To)},
		{"Opening Stock", formatFloat(report.OpeningStock)},
		{"Closing Stock", formatFloat(report.ClosingStock)},
		{"Net Sales", formatFloat(report.Sales)},
		{"Net Purchases", formatFloat(report.Purchases)},
		{"Direct Expenses", formatFloat(report.DirectExpense)},
		{"Direct Income", formatFloat(report.DirectIncome)},
		{"Gross Profit", formatFloat(report.GrossProfit)},
		{"Indirect Expenses", formatFloat(report.IndirectExpense)},
		{"Indirect Income", formatFloat(report.IndirectIncome)},
		{"Operational Expenses", formatFloat(report.OperationalExpense)},
		{"Net Profit", formatFloat(report.NetProfit)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	sections := []struct {
		label string
		items []reports.CategoryAmount
	}{
		{"Direct Expense", report.DirectExpenseItems},
		{"Direct Income", report.DirectIncomeItems},
		{"Indirect Expense", report.IndirectExpenseItems},
		{"Indirect Income", report.IndirectIncomeItems},
		{"Operational Expense", report.OperationalExpenseItems},
	}
	for _, section := range sections {
		for _, item := range section.items {
			if err := writer.Write([]string{section.label + ": " + item.Category, formatFloat(item.Amount)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBalanceSheetCSV emits the three sections with totals and status.
func WriteBalanceSheetCSV(w io.Writer, report reports.BalanceSheetReport) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Particulars", "Amount"}); err != nil {
		return err
	}
	sections := []struct {
		label string
		lines []reports.BalanceSheetLine
	}{
		{"Equity", report.Equity},
		{"Liabilities", report.Liabilities},
		{"Assets", report.Assets},
	}
	for _, section := range sections {
		for _, line := range section.lines {
			if err := writer.Write([]string{section.label, line.Name, formatFloat(line.Amount)}); err != nil {
				return err
			}
		}
	}
	records := [][]string{
		{"", "Total Equity and Liabilities", formatFloat(report.TotalEquityAndLiabilities)},
		{"", "Total Assets", formatFloat(report.TotalAssets)},
		{"", "Status", report.Status},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
