package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"procurement/internal/core"
)

func TestAggregateOrder_Empty(t *testing.T) {
	totals := core.AggregateOrder(nil)
	assertDec(t, "0", totals.TotalHT)
	assertDec(t, "0", totals.TotalTVA)
	assertDec(t, "0", totals.TotalTTC)
}

func TestAggregateOrder_SumsAndIsIdempotent(t *testing.T) {
	items := []core.PurchaseOrderItem{
		{TotalHT: dec("100.000"), TaxAmount: dec("19.000"), TotalTTC: dec("119.000")},
		{TotalHT: dec("30.000"), TaxAmount: dec("5.700"), TotalTTC: dec("35.700")},
		{TotalHT: dec("9.999"), TaxAmount: dec("1.900"), TotalTTC: dec("11.899")},
	}

	first := core.AggregateOrder(items)
	assertDec(t, "139.999", first.TotalHT)
	assertDec(t, "26.600", first.TotalTVA)
	assertDec(t, "166.599", first.TotalTTC)
	assert.True(t, first.TotalTTC.Equal(first.TotalHT.Add(first.TotalTVA)))

	second := core.AggregateOrder(items)
	assert.True(t, first.TotalHT.Equal(second.TotalHT))
	assert.True(t, first.TotalTVA.Equal(second.TotalTVA))
	assert.True(t, first.TotalTTC.Equal(second.TotalTTC))
}
