package reporthttp

import (
	"fmt"
	"html"
	"strings"

	"github.com/ayurbooks/ayurbooks/internal/reports"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

func htmlHeader(b *strings.Builder, title string) {
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}td.label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>%s</h1>", html.EscapeString(title)))
}

func amountRow(b *strings.Builder, label string, amount float64) {
	b.WriteString(fmt.Sprintf("<tr><td class=\"label\">%s</td><td>%.2f</td></tr>", html.EscapeString(label), amount))
}

func profitLossHTML(report reports.ProfitLossReport) string {
	var b strings.Builder
	title := fmt.Sprintf("Profit and Loss %s to %s", shared.FormatDisplay(report.From), shared.FormatDisplay(report.To))
	htmlHeader(&b, title)

	b.WriteString("<table><tbody>")
	amountRow(&b, "Opening Stock", report.OpeningStock)
	amountRow(&b, "Closing Stock", report.ClosingStock)
	amountRow(&b, "Net Sales", report.Sales)
	amountRow(&b, "Net Purchases", report.Purchases)
	amountRow(&b, "Direct Expenses", report.DirectExpense)
	amountRow(&b, "Direct Income", report.DirectIncome)
	amountRow(&b, "Gross Profit", report.GrossProfit)
	amountRow(&b, "Indirect Expenses", report.IndirectExpense)
	amountRow(&b, "Indirect Income", report.IndirectIncome)
	amountRow(&b, "Operational Expenses", report.OperationalExpense)
	amountRow(&b, "Net Profit", report.NetProfit)
	b.WriteString("</tbody></table>")

	for _, warning := range report.Warnings {
		b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(warning)))
	}
	b.WriteString("</body></html>")
	return b.String()
}

func balanceSheetHTML(report reports.BalanceSheetReport) string {
	var b strings.Builder
	title := fmt.Sprintf("Balance Sheet as on %s", shared.FormatDisplay(report.To))
	htmlHeader(&b, title)

	section := func(name string, lines []reports.BalanceSheetLine) {
		b.WriteString(fmt.Sprintf("<h2>%s</h2><table><tbody>", html.EscapeString(name)))
		for _, line := range lines {
			amountRow(&b, line.Name, line.Amount)
		}
		b.WriteString("</tbody></table>")
	}
	section("Equity", report.Equity)
	section("Liabilities", report.Liabilities)
	section("Assets", report.Assets)

	b.WriteString("<table><tbody>")
	amountRow(&b, "Total Equity and Liabilities", report.TotalEquityAndLiabilities)
	amountRow(&b, "Total Assets", report.TotalAssets)
	b.WriteString(fmt.Sprintf("<tr><td class=\"label\">Status</td><td>%s</td></tr>", html.EscapeString(report.Status)))
	b.WriteString("</tbody></table>")

	for _, warning := range report.Warnings {
		b.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(warning)))
	}
	b.WriteString("</body></html>")
	return b.String()
}
