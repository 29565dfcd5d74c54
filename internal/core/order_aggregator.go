package core

import "github.com/shopspring/decimal"

// AggregateOrder sums the cached amounts of items. An empty slice yields zero
// totals. The result depends only on the items, so repeated calls agree.
func AggregateOrder(items []PurchaseOrderItem) OrderTotals {
	totals := OrderTotals{
		TotalHT:  decimal.Zero,
		TotalTVA: decimal.Zero,
		TotalTTC: decimal.Zero,
	}
	for _, it := range items {
		totals.TotalHT = totals.TotalHT.Add(it.TotalHT)
		totals.TotalTVA = totals.TotalTVA.Add(it.TaxAmount)
		totals.TotalTTC = totals.TotalTTC.Add(it.TotalTTC)
	}
	totals.TotalHT = RoundAmount(totals.TotalHT)
	totals.TotalTVA = RoundAmount(totals.TotalTVA)
	totals.TotalTTC = RoundAmount(totals.TotalTTC)
	return totals
}
