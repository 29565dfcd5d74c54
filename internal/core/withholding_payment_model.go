package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// WithholdingTaxType is a statutory withholding category. Liberatory and
// definitive flags classify the tax; they do not affect amounts.
type WithholdingTaxType struct {
	ID                   int             `json:"id"`
	Name                 string          `json:"name"`
	Code                 string          `json:"code"`
	Rate                 decimal.Decimal `json:"rate"`
	IsLiberatory         bool            `json:"is_liberatory"`
	IsDefinitive         bool            `json:"is_definitive"`
	AppliesToClientTypes string          `json:"applies_to_client_types"`
	MinimumAmount        decimal.Decimal `json:"minimum_amount"`
	Description          string          `json:"description"`
}

// WithholdingTaxPayment records an amount withheld on an order and whether it
// has been remitted to the treasury.
type WithholdingTaxPayment struct {
	ID                 int             `json:"id"`
	OrderID            int             `json:"purchase_order_id"`
	OrderReference     string          `json:"purchase_order_reference"`
	TaxTypeCode        string          `json:"tax_type_code"`
	TaxTypeName        string          `json:"tax_type_name"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentDate        time.Time       `json:"payment_date"`
	IsPaidToTreasury   bool            `json:"is_paid_to_treasury"`
	TreasuryPaymentRef string          `json:"treasury_payment_ref"`
	CreatedAt          time.Time       `json:"created_at"`
}

// WithholdingService manages withholding tax types and the payments recorded
// against orders.
type WithholdingService interface {
	// GetTaxTypes returns all withholding tax types.
	GetTaxTypes(ctx context.Context) ([]WithholdingTaxType, error)

	// RecordPayment records the order's current withheld amount under the
	// tax type its withholding decision maps to. Returns
	// ErrWithholdingNotApplied when the order is excluded. Recording twice for
	// the same order returns the existing payment.
	RecordPayment(ctx context.Context, orderID int, paymentDate time.Time) (*WithholdingTaxPayment, error)

	// GetPayments returns recorded payments, for one order when orderID > 0.
	GetPayments(ctx context.Context, orderID int) ([]WithholdingTaxPayment, error)

	// MarkRemitted flags a payment as paid to the treasury under treasuryRef.
	MarkRemitted(ctx context.Context, paymentID int, treasuryRef string) (*WithholdingTaxPayment, error)
}
