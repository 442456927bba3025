package reports

import (
	"sort"
	"time"
)

// ProfitLossInputs are the period aggregates the statement is built from.
type ProfitLossInputs struct {
	OpeningStock              float64
	ClosingStock              float64
	SalesWithoutTax           float64
	PurchasesWithoutTax       float64
	StandaloneGRNValue        float64
	PurchaseReturnsWithoutTax float64
	Categories                []CategoryRecord
	Warnings                  []string
}

// BuildProfitLoss assembles the two-stage trading-account statement.
//
//	grossProfit = (closingStock + sales + directIncome) − (openingStock + purchases + directExpense)
//	netProfit   = (grossProfit + indirectIncome) − (indirectExpense + operationalExpense)
//
// Basic granularity reproduces the coarse statement: operational expenses
// fold into the indirect bucket and indirect income is dropped. Purchases
// combine formal purchases with standalone GRN value, minus purchase returns.
func BuildProfitLoss(from, to time.Time, inputs ProfitLossInputs, granularity Granularity) ProfitLossReport {
	report := ProfitLossReport{
		From:         from,
		To:           to,
		Granularity:  granularity,
		OpeningStock: inputs.OpeningStock,
		ClosingStock: inputs.ClosingStock,
		Sales:        inputs.SalesWithoutTax,
		Purchases:    inputs.PurchasesWithoutTax + inputs.StandaloneGRNValue - inputs.PurchaseReturnsWithoutTax,
		Warnings:     inputs.Warnings,
	}

	// guard against snapshot gaps: a dormant period with no movements and a
	// vanished closing stock keeps the opening figure
	if report.Sales == 0 && report.Purchases == 0 && report.ClosingStock == 0 && report.OpeningStock > 0 {
		report.ClosingStock = report.OpeningStock
	}

	buckets := map[CategoryNature]map[string]float64{
		NatureDirect:      {},
		NatureIndirect:    {},
		NatureOperational: {},
	}
	incomeBuckets := map[CategoryNature]map[string]float64{
		NatureDirect:   {},
		NatureIndirect: {},
	}
	for _, rec := range inputs.Categories {
		nature := ClassifyNature(rec.Nature, rec.Head)
		if rec.IsIncome {
			if nature == NatureOperational {
				nature = NatureIndirect
			}
			incomeBuckets[nature][rec.Name] += rec.Amount
			continue
		}
		buckets[nature][rec.Name] += rec.Amount
	}

	if granularity == GranularityBasic {
		for name, amount := range buckets[NatureOperational] {
			buckets[NatureIndirect][name] += amount
		}
		buckets[NatureOperational] = map[string]float64{}
		incomeBuckets[NatureIndirect] = map[string]float64{}
	}

	report.DirectExpenseItems, report.DirectExpense = flattenBucket(buckets[NatureDirect])
	report.IndirectExpenseItems, report.IndirectExpense = flattenBucket(buckets[NatureIndirect])
	report.OperationalExpenseItems, report.OperationalExpense = flattenBucket(buckets[NatureOperational])
	report.DirectIncomeItems, report.DirectIncome = flattenBucket(incomeBuckets[NatureDirect])
	report.IndirectIncomeItems, report.IndirectIncome = flattenBucket(incomeBuckets[NatureIndirect])

	report.GrossProfit = (report.ClosingStock + report.Sales + report.DirectIncome) -
		(report.OpeningStock + report.Purchases + report.DirectExpense)
	report.NetProfit = (report.GrossProfit + report.IndirectIncome) -
		(report.IndirectExpense + report.OperationalExpense)
	return report
}

func flattenBucket(bucket map[string]float64) ([]CategoryAmount, float64) {
	if len(bucket) == 0 {
		return nil, 0
	}
	items := make([]CategoryAmount, 0, len(bucket))
	var total float64
	for name, amount := range bucket {
		items = append(items, CategoryAmount{Category: name, Amount: amount})
		total += amount
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Category < items[j].Category })
	return items, total
}
