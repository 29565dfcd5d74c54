package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Exclusion reasons recorded on orders not subject to withholding.
const (
	ReasonNonResident        = "non-resident client"
	ReasonTaxExempt          = "tax-exempt client"
	ReasonCategoryNotSubject = "client category not subject to withholding"
)

// EligibilityBasis says why an order is subject to withholding.
type EligibilityBasis string

const (
	BasisNone    EligibilityBasis = ""
	BasisPublic  EligibilityBasis = "public"
	BasisPrivate EligibilityBasis = "private"
)

// Eligibility is the outcome of the exclusion rule chain.
type Eligibility struct {
	Subject bool
	Basis   EligibilityBasis
	Reason  string
}

// WithholdingDecision is the full withholding outcome for an order.
type WithholdingDecision struct {
	Applied     bool
	Excluded    bool
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	Reason      string
	Basis       EligibilityBasis
	TaxTypeCode string
}

// ResolveEligibility runs the exclusion rules in priority order and stops at
// the first match. Hard exclusions (order type, residency, regime, amount) are
// all checked before any client category grants eligibility.
func ResolveEligibility(order *PurchaseOrder, client *Client, threshold decimal.Decimal) Eligibility {
	switch order.OrderType {
	case OrderSubscription, OrderInsurance, OrderLeasing:
		return Eligibility{Reason: fmt.Sprintf("exclusion for order type %s", order.OrderType.Label())}
	}

	if !client.IsResident {
		return Eligibility{Reason: ReasonNonResident}
	}

	if client.TaxRegime == RegimeExempt {
		return Eligibility{Reason: ReasonTaxExempt}
	}

	if order.TotalTTC.Round(AmountScale).LessThan(threshold) {
		return Eligibility{Reason: fmt.Sprintf("amount below %s threshold", threshold.String())}
	}

	if client.IsPublic() {
		return Eligibility{Subject: true, Basis: BasisPublic}
	}

	if client.Category == CategoryCompany || client.Category == CategoryIndividual {
		return Eligibility{Subject: true, Basis: BasisPrivate}
	}

	return Eligibility{Reason: ReasonCategoryNotSubject}
}

// DecideWithholding combines eligibility, rate selection and the order's
// current tax-inclusive total into a decision without touching the order.
func DecideWithholding(order *PurchaseOrder, client *Client, table RateTable) WithholdingDecision {
	el := ResolveEligibility(order, client, table.Threshold)
	if !el.Subject {
		return WithholdingDecision{
			Excluded: true,
			Rate:     decimal.Zero,
			Amount:   decimal.Zero,
			Reason:   el.Reason,
		}
	}

	rate := table.Select(order.OrderType, client.TaxRegime)
	return WithholdingDecision{
		Applied:     true,
		Rate:        RoundRate(rate),
		Amount:      Percent(order.TotalTTC, rate),
		Basis:       el.Basis,
		TaxTypeCode: table.TaxTypeCode(order.OrderType, client.TaxRegime, el.Basis),
	}
}

// ApplyWithholding decides withholding for order and writes the decision onto
// its five withholding fields.
func ApplyWithholding(order *PurchaseOrder, client *Client, table RateTable) WithholdingDecision {
	d := DecideWithholding(order, client, table)
	order.WithholdingAmount = d.Amount
	order.WithholdingRate = d.Rate
	order.WithholdingApplied = d.Applied
	order.WithholdingExcluded = d.Excluded
	order.WithholdingExclusionReason = d.Reason
	return d
}
