package core

import "github.com/shopspring/decimal"

// ComputeLine derives the amounts of one line from its priced inputs.
//
//	total_ht  = quantity × unit_price × (100 − discount)/100
//	discount  = gross − total_ht
//	tva       = total_ht × tax_rate/100
//	total_ttc = total_ht + tva
//
// total_ht is rounded once from the exact product. Every amount is held at
// AmountScale, so total_ttc always equals total_ht + tva exactly.
func ComputeLine(quantity, unitPrice, discount, taxRate decimal.Decimal) (LineTotals, error) {
	if !quantity.IsPositive() {
		return LineTotals{}, &ValidationError{Field: "quantity", Value: quantity.String(), Reason: "must be greater than zero"}
	}
	if !inPercentRange(discount) {
		return LineTotals{}, &ValidationError{Field: "remise", Value: discount.String(), Reason: "must be between 0 and 100"}
	}
	if !inPercentRange(taxRate) {
		return LineTotals{}, &ValidationError{Field: "tva_rate", Value: taxRate.String(), Reason: "must be between 0 and 100"}
	}

	exact := quantity.Mul(unitPrice)
	totalHT := RoundAmount(exact.Mul(hundred.Sub(discount)).Div(hundred))
	gross := RoundAmount(exact)
	discountAmount := gross.Sub(totalHT)
	taxAmount := Percent(totalHT, taxRate)
	totalTTC := totalHT.Add(taxAmount)

	if totalTTC.IsNegative() {
		return LineTotals{}, &ValidationError{Field: "total_ttc", Value: FormatAmount(totalTTC), Reason: "must not be negative"}
	}

	return LineTotals{
		Gross:          gross,
		DiscountAmount: discountAmount,
		TotalHT:        totalHT,
		TaxAmount:      taxAmount,
		TotalTTC:       totalTTC,
	}, nil
}

// RecomputeLine prices item and rewrites its cached amounts.
// A missing unit price or tax rate is captured from product; a captured value,
// zero included, is never replaced. product may be nil when both snapshots are
// already present.
func RecomputeLine(item *PurchaseOrderItem, product *Product) error {
	if item.UnitPrice == nil || item.TaxRate == nil {
		if product == nil {
			return &ValidationError{Field: "product", Reason: "no catalog product to price the item from"}
		}
		if item.UnitPrice == nil {
			price := product.UnitPrice.Round(AmountScale)
			item.UnitPrice = &price
		}
		if item.TaxRate == nil {
			rate := product.TaxRate.Round(RateScale)
			item.TaxRate = &rate
		}
	}

	totals, err := ComputeLine(item.Quantity, *item.UnitPrice, item.Discount, *item.TaxRate)
	if err != nil {
		return err
	}

	item.DiscountAmount = totals.DiscountAmount
	item.TotalHT = totals.TotalHT
	item.TaxAmount = totals.TaxAmount
	item.TotalTTC = totals.TotalTTC
	return nil
}
