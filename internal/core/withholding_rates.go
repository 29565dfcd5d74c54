package core

import "github.com/shopspring/decimal"

// Statutory withholding tax type codes.
const (
	TaxTypePublicMarkets  = "RS15_PUBLIC"
	TaxTypePrivateMarkets = "RS15_PRIVATE"
	TaxTypeFeesReal       = "RS25_HONORAIRES"
	TaxTypeFeesFlat       = "RS10_HONORAIRES"
	TaxTypeRent           = "RS10_LOYERS"
	TaxTypeCommission     = "RS05_COMMISSIONS"
)

// RateTable holds the statutory withholding rates (percent) and the
// tax-inclusive threshold below which orders are excluded. It is a plain
// value: callers pass the table they want applied.
type RateTable struct {
	Threshold  decimal.Decimal
	Default    decimal.Decimal
	FeesReal   decimal.Decimal
	FeesFlat   decimal.Decimal
	Rent       decimal.Decimal
	Commission decimal.Decimal
}

// DefaultRateTable returns the statutory rates.
func DefaultRateTable() RateTable {
	return RateTable{
		Threshold:  decimal.RequireFromString("1000.000"),
		Default:    decimal.RequireFromString("1.50"),
		FeesReal:   decimal.RequireFromString("2.50"),
		FeesFlat:   decimal.RequireFromString("10.00"),
		Rent:       decimal.RequireFromString("10.00"),
		Commission: decimal.RequireFromString("5.00"),
	}
}

// Select returns the withholding rate for an order already known to be
// subject to withholding.
func (t RateTable) Select(orderType OrderType, regime TaxRegime) decimal.Decimal {
	switch orderType {
	case OrderFees:
		if regime == RegimeReal {
			return t.FeesReal
		}
		return t.FeesFlat
	case OrderRent:
		return t.Rent
	case OrderCommission:
		return t.Commission
	default:
		return t.Default
	}
}

// TaxTypeCode names the statutory withholding type behind a rate selection.
func (t RateTable) TaxTypeCode(orderType OrderType, regime TaxRegime, basis EligibilityBasis) string {
	switch orderType {
	case OrderFees:
		if regime == RegimeReal {
			return TaxTypeFeesReal
		}
		return TaxTypeFeesFlat
	case OrderRent:
		return TaxTypeRent
	case OrderCommission:
		return TaxTypeCommission
	}
	if basis == BasisPublic {
		return TaxTypePublicMarkets
	}
	return TaxTypePrivateMarkets
}

// withCode returns a copy of t with the rate for code replaced.
// Codes the table does not know are ignored.
func (t RateTable) withCode(code string, rate, minimum decimal.Decimal) RateTable {
	switch code {
	case TaxTypePublicMarkets:
		t.Default = rate
		if minimum.IsPositive() {
			t.Threshold = minimum
		}
	case TaxTypePrivateMarkets:
		// Shares the default rate with public markets; public takes precedence.
	case TaxTypeFeesReal:
		t.FeesReal = rate
	case TaxTypeFeesFlat:
		t.FeesFlat = rate
	case TaxTypeRent:
		t.Rent = rate
	case TaxTypeCommission:
		t.Commission = rate
	}
	return t
}

// RateOverrides pins individual rate table values. A nil field leaves the
// value to the stored tax types, then to the statutory default.
type RateOverrides struct {
	Threshold  *decimal.Decimal
	Default    *decimal.Decimal
	FeesReal   *decimal.Decimal
	FeesFlat   *decimal.Decimal
	Rent       *decimal.Decimal
	Commission *decimal.Decimal
}

// Apply returns a copy of t with every pinned value replaced.
func (o RateOverrides) Apply(t RateTable) RateTable {
	pin := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil {
			*dst = *v
		}
	}
	pin(&t.Threshold, o.Threshold)
	pin(&t.Default, o.Default)
	pin(&t.FeesReal, o.FeesReal)
	pin(&t.FeesFlat, o.FeesFlat)
	pin(&t.Rent, o.Rent)
	pin(&t.Commission, o.Commission)
	return t
}

type taxTypeRate struct {
	code    string
	rate    decimal.Decimal
	minimum decimal.Decimal
}

// resolveRates layers the statutory defaults, the stored tax type rows and
// the pinned overrides, in that order.
func resolveRates(rows []taxTypeRate, overrides RateOverrides) RateTable {
	table := DefaultRateTable()
	for _, row := range rows {
		table = table.withCode(row.code, row.rate, row.minimum)
	}
	return overrides.Apply(table)
}
