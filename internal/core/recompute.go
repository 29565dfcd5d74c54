package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Catalog maps product IDs to the catalog entries items may be priced from.
type Catalog map[int]*Product

// Recompute runs the two-phase pipeline on a persisted order: every item is
// repriced first, then the order totals and withholding fields are rebuilt
// from the fresh item amounts. The first item that fails validation aborts
// the run and leaves the order totals untouched.
func Recompute(order *PurchaseOrder, client *Client, catalog Catalog, table RateTable) (WithholdingDecision, error) {
	if err := recomputeLines(order, catalog); err != nil {
		return WithholdingDecision{}, err
	}
	return RecomputeOrder(order, client, table), nil
}

// RecomputeOrder rebuilds the aggregate totals from the items' cached amounts
// and re-applies withholding. An order without a persisted identity owns no
// stored items, so its totals are reset to zero.
func RecomputeOrder(order *PurchaseOrder, client *Client, table RateTable) WithholdingDecision {
	totals, err := persistedTotals(order)
	if err != nil {
		// Nothing stored yet; a new order starts from zero.
		totals = OrderTotals{TotalHT: decimal.Zero, TotalTVA: decimal.Zero, TotalTTC: decimal.Zero}
	}
	setTotals(order, totals)
	return ApplyWithholding(order, client, table)
}

// Preview runs the same pipeline on an order that is not stored anywhere,
// for quotes. Identity is not required.
func Preview(order *PurchaseOrder, client *Client, catalog Catalog, table RateTable) (WithholdingDecision, error) {
	if err := recomputeLines(order, catalog); err != nil {
		return WithholdingDecision{}, err
	}
	setTotals(order, AggregateOrder(order.Items))
	return ApplyWithholding(order, client, table), nil
}

func recomputeLines(order *PurchaseOrder, catalog Catalog) error {
	for i := range order.Items {
		it := &order.Items[i]
		if err := RecomputeLine(it, catalog[it.ProductID]); err != nil {
			return fmt.Errorf("item %d (product %d): %w", i+1, it.ProductID, err)
		}
	}
	return nil
}

func persistedTotals(order *PurchaseOrder) (OrderTotals, error) {
	if order.ID == 0 {
		return OrderTotals{}, &ConsistencyError{Reason: "order has no persisted identity"}
	}
	return AggregateOrder(order.Items), nil
}

func setTotals(order *PurchaseOrder, t OrderTotals) {
	order.TotalHT = t.TotalHT
	order.TotalTVA = t.TotalTVA
	order.TotalTTC = t.TotalTTC
}
