package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/core"
)

func TestWithholdingService_TaxTypesSeeded(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)
	svc := core.NewWithholdingService(f.pool, core.NewRuleEngine(f.pool, core.RateOverrides{}), nil)

	types, err := svc.GetTaxTypes(f.ctx)
	require.NoError(t, err)

	codes := make(map[string]string, len(types))
	for _, tt := range types {
		codes[tt.Code] = tt.Rate.String()
	}
	assert.Equal(t, "1.5", codes[core.TaxTypePublicMarkets])
	assert.Equal(t, "2.5", codes[core.TaxTypeFeesReal])
	assert.Equal(t, "10", codes[core.TaxTypeRent])
	assert.Equal(t, "5", codes[core.TaxTypeCommission])
}

func TestWithholdingService_RecordPayment(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)
	svc := core.NewWithholdingService(f.pool, core.NewRuleEngine(f.pool, core.RateOverrides{}), nil)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-WHT",
		ClientID:  f.government.ID,
		Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec("10")}},
	})
	require.NoError(t, err)
	require.True(t, po.WithholdingApplied)

	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	payment, err := svc.RecordPayment(f.ctx, po.ID, date)
	require.NoError(t, err)
	assert.Equal(t, core.TaxTypePublicMarkets, payment.TaxTypeCode)
	assert.Equal(t, "PO-WHT", payment.OrderReference)
	assertDec(t, "17.850", payment.Amount)
	assert.False(t, payment.IsPaidToTreasury)

	again, err := svc.RecordPayment(f.ctx, po.ID, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, payment.ID, again.ID)

	remitted, err := svc.MarkRemitted(f.ctx, payment.ID, "TRS-0042")
	require.NoError(t, err)
	assert.True(t, remitted.IsPaidToTreasury)
	assert.Equal(t, "TRS-0042", remitted.TreasuryPaymentRef)

	payments, err := svc.GetPayments(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestWithholdingService_RecordPaymentExcludedOrder(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)
	svc := core.NewWithholdingService(f.pool, core.NewRuleEngine(f.pool, core.RateOverrides{}), nil)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-SMALL",
		ClientID:  f.government.ID,
		Items:     []core.ItemInput{{ProductID: f.cable.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(f.ctx, po.ID, time.Now())
	assert.ErrorIs(t, err, core.ErrWithholdingNotApplied)

	_, err = svc.MarkRemitted(f.ctx, 424242, "TRS-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReportingService_Dashboard(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)
	reports := core.NewReportingService(f.pool)

	mk := func(ref string, qty string) *core.PurchaseOrder {
		po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
			Reference: ref,
			ClientID:  f.company.ID,
			Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec(qty)}},
		})
		require.NoError(t, err)
		return po
	}

	a := mk("PO-A", "1")
	b := mk("PO-B", "2")
	c := mk("PO-C", "3")
	mk("PO-D", "4")

	_, err := f.orders.MarkPaid(f.ctx, a.ID, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.orders.MarkPaid(f.ctx, b.ID, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = f.orders.Confirm(f.ctx, c.ID)
	require.NoError(t, err)

	sales, err := reports.MonthlySales(f.ctx, 2026)
	require.NoError(t, err)
	assertDec(t, "119.000", sales.ThisYear[0])
	assertDec(t, "0", sales.ThisYear[1])
	assertDec(t, "238.000", sales.LastYear[2])

	counts, err := reports.StatusCounts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.StatusDraft])
	assert.Equal(t, 2, counts[core.StatusPaid])
	assert.Equal(t, 0, counts[core.StatusCancelled])

	confirmed, err := reports.ConfirmedCount(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed)

	total, err := reports.TotalRevenue(f.ctx)
	require.NoError(t, err)
	assertDec(t, "1190.000", total)
}
