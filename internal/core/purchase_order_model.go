package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase order.
//
//	DRAFT     → CONFIRMED | PAID | CANCELLED
//	CONFIRMED → PAID | DELIVERED | CANCELLED
//	DELIVERED → PAID | CANCELLED
//	PAID      → PAID (new payment date) | DELIVERED
//	CANCELLED is terminal
type OrderStatus string

const (
	StatusDraft     OrderStatus = "DRAFT"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPaid      OrderStatus = "PAID"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderType is the nature of what the order buys; it drives withholding
// exclusions and rates.
type OrderType string

const (
	OrderGoods        OrderType = "GOODS"
	OrderServices     OrderType = "SERVICES"
	OrderWorks        OrderType = "WORKS"
	OrderSubscription OrderType = "SUBSCRIPTION"
	OrderInsurance    OrderType = "INSURANCE"
	OrderLeasing      OrderType = "LEASING"
	OrderFees         OrderType = "FEES"
	OrderRent         OrderType = "RENT"
	OrderCommission   OrderType = "COMMISSION"
)

var orderTypeLabels = map[OrderType]string{
	OrderGoods:        "goods/equipment",
	OrderServices:     "services",
	OrderWorks:        "works",
	OrderSubscription: "subscription",
	OrderInsurance:    "insurance",
	OrderLeasing:      "leasing",
	OrderFees:         "fees",
	OrderRent:         "rent",
	OrderCommission:   "commission",
}

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	_, ok := orderTypeLabels[t]
	return ok
}

// Label returns the human-readable name used in exclusion reasons.
func (t OrderType) Label() string {
	if l, ok := orderTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// PurchaseOrder is the order aggregate: header, owned items, cached totals and
// the withholding decision as of the last recomputation.
type PurchaseOrder struct {
	ID                 int                 `json:"id"`
	Reference          string              `json:"reference"`
	ClientID           int                 `json:"client_id"`
	ClientName         string              `json:"client_name"`
	Status             OrderStatus         `json:"status"`
	OrderType          OrderType           `json:"order_type"`
	Notes              string              `json:"notes"`
	ExpectedFinishDate *time.Time          `json:"expected_finish_date,omitempty"`
	PaymentDate        *time.Time          `json:"payment_date,omitempty"`
	Items              []PurchaseOrderItem `json:"items"`

	TotalHT  decimal.Decimal `json:"total_ht"`
	TotalTVA decimal.Decimal `json:"total_tva"`
	TotalTTC decimal.Decimal `json:"total_ttc"`

	WithholdingAmount          decimal.Decimal `json:"withholding_tax_amount"`
	WithholdingRate            decimal.Decimal `json:"withholding_tax_rate"`
	WithholdingApplied         bool            `json:"withholding_tax_applied"`
	WithholdingExcluded        bool            `json:"withholding_tax_excluded"`
	WithholdingExclusionReason string          `json:"withholding_exclusion_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NetAmountToPay is the tax-inclusive total less the withheld amount.
func (po *PurchaseOrder) NetAmountToPay() decimal.Decimal {
	return po.TotalTTC.Sub(po.WithholdingAmount)
}

// IsPaid reports whether a payment date has been recorded.
func (po *PurchaseOrder) IsPaid() bool {
	return po.PaymentDate != nil
}

// item returns a pointer to the item with the given ID, or nil.
func (po *PurchaseOrder) item(itemID int) *PurchaseOrderItem {
	for i := range po.Items {
		if po.Items[i].ID == itemID {
			return &po.Items[i]
		}
	}
	return nil
}

// PurchaseOrderItem is one line of a purchase order.
// UnitPrice and TaxRate are snapshots: nil until first priced, then
// authoritative regardless of later catalog changes. The four amount fields
// are caches rewritten on every recomputation.
type PurchaseOrderItem struct {
	ID          int              `json:"id"`
	OrderID     int              `json:"order_id"`
	ProductID   int              `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Discount    decimal.Decimal  `json:"remise"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tva_rate"`

	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalHT        decimal.Decimal `json:"total_ht"`
	TaxAmount      decimal.Decimal `json:"tva_amount"`
	TotalTTC       decimal.Decimal `json:"total_ttc"`
}

// LineTotals are the derived amounts of a single item.
type LineTotals struct {
	Gross          decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalHT        decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalTTC       decimal.Decimal
}

// OrderTotals are the aggregate amounts of an order.
type OrderTotals struct {
	TotalHT  decimal.Decimal
	TotalTVA decimal.Decimal
	TotalTTC decimal.Decimal
}

// OrderInput holds the header fields of a purchase order and, on creation,
// its initial items.
type OrderInput struct {
	Reference          string
	ClientID           int
	OrderType          OrderType
	Notes              string
	ExpectedFinishDate *time.Time
	Items              []ItemInput
}

// Validate checks the header fields of an order input.
func (in OrderInput) Validate() error {
	if in.Reference == "" {
		return &ValidationError{Field: "reference", Reason: "required"}
	}
	if len(in.Reference) > 50 {
		return &ValidationError{Field: "reference", Value: in.Reference, Reason: "at most 50 characters"}
	}
	if in.ClientID <= 0 {
		return &ValidationError{Field: "client", Reason: "required"}
	}
	if in.OrderType != "" && !in.OrderType.Valid() {
		return &ValidationError{Field: "order_type", Value: string(in.OrderType), Reason: "unknown order type"}
	}
	return nil
}

// ItemInput holds the caller-supplied fields of an order item.
// A nil UnitPrice or TaxRate means "capture from the catalog" on a new item
// and "keep the snapshot" on an existing one.
type ItemInput struct {
	ProductID int
	Quantity  decimal.Decimal
	Discount  decimal.Decimal
	UnitPrice *decimal.Decimal
	TaxRate   *decimal.Decimal
}

// PurchaseOrderService persists purchase orders and runs the recompute
// pipeline inside the same transaction as every mutation.
type PurchaseOrderService interface {
	// CreateOrder inserts a DRAFT order, adds any initial items and computes
	// totals and withholding before commit.
	CreateOrder(ctx context.Context, input OrderInput) (*PurchaseOrder, error)

	// UpdateOrder edits the header of an order and recomputes it.
	UpdateOrder(ctx context.Context, orderID int, input OrderInput) (*PurchaseOrder, error)

	// DeleteOrder removes an order and, by cascade, its items.
	DeleteOrder(ctx context.Context, orderID int) error

	// GetOrder returns an order by ID, including items.
	GetOrder(ctx context.Context, orderID int) (*PurchaseOrder, error)

	// GetOrderByReference returns an order by its external reference.
	GetOrderByReference(ctx context.Context, reference string) (*PurchaseOrder, error)

	// GetOrders returns orders newest first, optionally filtered by status.
	// An empty status returns all orders.
	GetOrders(ctx context.Context, status OrderStatus) ([]PurchaseOrder, error)

	// AddItem adds a line, snapshotting catalog price and tax rate when not
	// supplied, then recomputes the order.
	AddItem(ctx context.Context, orderID int, input ItemInput) (*PurchaseOrder, error)

	// UpdateItem edits a line and recomputes the order.
	UpdateItem(ctx context.Context, orderID, itemID int, input ItemInput) (*PurchaseOrder, error)

	// RemoveItem deletes a line and recomputes the order.
	RemoveItem(ctx context.Context, orderID, itemID int) (*PurchaseOrder, error)

	// Recompute reruns the full pipeline against the stored items.
	Recompute(ctx context.Context, orderID int) (*PurchaseOrder, error)

	// Confirm moves a DRAFT order to CONFIRMED. Confirming a CONFIRMED order is a no-op.
	Confirm(ctx context.Context, orderID int) (*PurchaseOrder, error)

	// MarkDelivered records delivery of a confirmed or paid order.
	MarkDelivered(ctx context.Context, orderID int) (*PurchaseOrder, error)

	// Cancel moves an unpaid order to CANCELLED.
	Cancel(ctx context.Context, orderID int) (*PurchaseOrder, error)

	// MarkPaid sets status PAID and records paymentDate. Totals are untouched.
	MarkPaid(ctx context.Context, orderID int, paymentDate time.Time) (*PurchaseOrder, error)
}
