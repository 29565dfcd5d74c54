package core

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRateTable_WithCode(t *testing.T) {
	table := DefaultRateTable().
		withCode(TaxTypePublicMarkets, decimal.RequireFromString("2.00"), decimal.RequireFromString("3000")).
		withCode(TaxTypeFeesReal, decimal.RequireFromString("3.00"), decimal.Zero).
		withCode(TaxTypeRent, decimal.RequireFromString("12.00"), decimal.Zero).
		withCode(TaxTypePrivateMarkets, decimal.RequireFromString("9.99"), decimal.RequireFromString("1")).
		withCode("UNKNOWN", decimal.RequireFromString("50"), decimal.Zero)

	assert.Equal(t, "2", table.Default.String())
	assert.Equal(t, "3000", table.Threshold.String())
	assert.Equal(t, "3", table.FeesReal.String())
	assert.Equal(t, "10", table.FeesFlat.String())
	assert.Equal(t, "12", table.Rent.String())
	assert.Equal(t, "5", table.Commission.String())
}

func TestRateTable_WithCodeKeepsThresholdWithoutMinimum(t *testing.T) {
	table := DefaultRateTable().withCode(TaxTypePublicMarkets, decimal.RequireFromString("1.50"), decimal.Zero)
	assert.Equal(t, "1000", table.Threshold.String())
}

func seededRows() []taxTypeRate {
	return []taxTypeRate{
		{code: TaxTypePublicMarkets, rate: decimal.RequireFromString("1.50"), minimum: decimal.RequireFromString("1000.000")},
		{code: TaxTypePrivateMarkets, rate: decimal.RequireFromString("1.50"), minimum: decimal.RequireFromString("1000.000")},
		{code: TaxTypeFeesReal, rate: decimal.RequireFromString("2.50"), minimum: decimal.Zero},
		{code: TaxTypeFeesFlat, rate: decimal.RequireFromString("10.00"), minimum: decimal.Zero},
		{code: TaxTypeRent, rate: decimal.RequireFromString("10.00"), minimum: decimal.Zero},
		{code: TaxTypeCommission, rate: decimal.RequireFromString("5.00"), minimum: decimal.Zero},
	}
}

func TestResolveRates_PinnedSettingsWinOverStoredRows(t *testing.T) {
	threshold := decimal.RequireFromString("5000")
	rent := decimal.RequireFromString("15")
	overrides := RateOverrides{Threshold: &threshold, Rent: &rent}

	rows := append(seededRows(), taxTypeRate{
		code: TaxTypeCommission, rate: decimal.RequireFromString("7.00"), minimum: decimal.Zero,
	})
	table := resolveRates(rows, overrides)

	assert.Equal(t, "5000", table.Threshold.String())
	assert.Equal(t, "15", table.Rent.String())
	assert.Equal(t, "7", table.Commission.String(), "unpinned rates come from the stored rows")
	assert.Equal(t, "1.5", table.Default.String())
}

func TestResolveRates_MatchesDatabaseFreeTable(t *testing.T) {
	rate := decimal.RequireFromString("2.00")
	overrides := RateOverrides{Default: &rate}

	fromRows := resolveRates(seededRows(), overrides)
	static := overrides.Apply(DefaultRateTable())

	assert.Equal(t, static, fromRows)
	assert.Equal(t, DefaultRateTable(), resolveRates(nil, RateOverrides{}))
}

func TestRateTable_TaxTypeCode(t *testing.T) {
	table := DefaultRateTable()
	assert.Equal(t, TaxTypePublicMarkets, table.TaxTypeCode(OrderGoods, "", BasisPublic))
	assert.Equal(t, TaxTypePrivateMarkets, table.TaxTypeCode(OrderWorks, RegimeReal, BasisPrivate))
	assert.Equal(t, TaxTypeFeesReal, table.TaxTypeCode(OrderFees, RegimeReal, BasisPublic))
	assert.Equal(t, TaxTypeFeesFlat, table.TaxTypeCode(OrderFees, RegimeSimplified, BasisPrivate))
	assert.Equal(t, TaxTypeRent, table.TaxTypeCode(OrderRent, "", BasisPrivate))
	assert.Equal(t, TaxTypeCommission, table.TaxTypeCode(OrderCommission, "", BasisPrivate))
}

func TestStaticRules(t *testing.T) {
	want := DefaultRateTable()
	got, err := StaticRules(want).ResolveRateTable(context.Background())
	assert.NoError(t, err)
	assert.True(t, want.Default.Equal(got.Default))
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeRecompute("create", WithholdingDecision{Applied: true, TaxTypeCode: TaxTypePublicMarkets})
	m.observeRecompute("manual", WithholdingDecision{Excluded: true})
	m.observeRecompute("manual", WithholdingDecision{Excluded: true})
	m.observeTransition(StatusDraft, StatusConfirmed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputations.WithLabelValues("create")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recomputations.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("applied", TaxTypePublicMarkets)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("excluded", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("DRAFT", "CONFIRMED")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.observeRecompute("create", WithholdingDecision{})
		nilMetrics.observeTransition(StatusDraft, StatusPaid)
	})
}
