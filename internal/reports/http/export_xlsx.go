package reporthttp

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ayurbooks/ayurbooks/internal/reports"
)

// WriteTrialBalanceXLSX renders the trial balance as a spreadsheet.
func WriteTrialBalanceXLSX(w io.Writer, report reports.TrialBalanceReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	headers := []string{"Particulars", "Debit", "Credit"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	row := 2
	for _, line := range report.Rows {
		if err := setRow(f, sheet, row, line.Name, line.Debit, line.Credit); err != nil {
			return err
		}
		row++
	}
	if err := setRow(f, sheet, row, "Total", report.TotalDebit, report.TotalCredit); err != nil {
		return err
	}
	row++
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Difference"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), report.Difference); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteProfitLossXLSX renders the statement as a spreadsheet.
func WriteProfitLossXLSX(w io.Writer, report reports.ProfitLossReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	rows := []struct {
		label string
		value float64
	}{
		{"Opening Stock", report.OpeningStock},
		{"Closing Stock", report.ClosingStock},
		{"Net Sales", report.Sales},
		{"Net Purchases", report.Purchases},
		{"Direct Expenses", report.DirectExpense},
		{"Direct Income", report.DirectIncome},
		{"Gross Profit", report.GrossProfit},
		{"Indirect Expenses", report.IndirectExpense},
		{"Indirect Income", report.IndirectIncome},
		{"Operational Expenses", report.OperationalExpense},
		{"Net Profit", report.NetProfit},
	}
	if err := f.SetCellValue(sheet, "A1", "Particulars"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B1", "Amount"); err != nil {
		return err
	}
	for i, line := range rows {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), line.label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), line.value); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, name string, debit, credit float64) error {
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), name); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), debit); err != nil {
		return err
	}
	return f.SetCellValue(sheet, fmt.Sprintf("C%d", row), credit)
}
