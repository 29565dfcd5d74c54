package app

import (
	"context"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations contain no
// display logic. Order refs may be a numeric ID or an order reference.
type ApplicationService interface {
	// ListOrders returns purchase orders, optionally filtered by status.
	ListOrders(ctx context.Context, status string) (*OrderListResult, error)

	// GetOrder returns a single purchase order.
	GetOrder(ctx context.Context, ref string) (*OrderResult, error)

	// CreateOrder creates a DRAFT purchase order with its initial items.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// UpdateOrder edits the order header and recomputes totals and withholding.
	UpdateOrder(ctx context.Context, ref string, req UpdateOrderRequest) (*OrderResult, error)

	// DeleteOrder removes an order and its items.
	DeleteOrder(ctx context.Context, ref string) error

	// AddItem adds a line to an order.
	AddItem(ctx context.Context, ref string, req ItemRequest) (*OrderResult, error)

	// UpdateItem edits a line of an order.
	UpdateItem(ctx context.Context, ref string, itemID int, req ItemRequest) (*OrderResult, error)

	// RemoveItem deletes a line of an order.
	RemoveItem(ctx context.Context, ref string, itemID int) (*OrderResult, error)

	// RecomputeOrder reruns the pricing and withholding pipeline on an order.
	RecomputeOrder(ctx context.Context, ref string) (*OrderResult, error)

	// ConfirmOrder moves a DRAFT order to CONFIRMED.
	ConfirmOrder(ctx context.Context, ref string) (*OrderResult, error)

	// DeliverOrder marks an order delivered.
	DeliverOrder(ctx context.Context, ref string) (*OrderResult, error)

	// CancelOrder cancels an unpaid order.
	CancelOrder(ctx context.Context, ref string) (*OrderResult, error)

	// MarkOrderPaid records the payment date (YYYY-MM-DD) and sets status PAID.
	MarkOrderPaid(ctx context.Context, ref, paymentDate string) (*OrderResult, error)

	// QuoteOrder computes totals and withholding for an order that is not
	// stored. It needs no database.
	QuoteOrder(ctx context.Context, req QuoteRequest) (*QuoteResult, error)

	// ListClients returns all clients.
	ListClients(ctx context.Context) (*ClientListResult, error)

	// GetClient returns a client by ID.
	GetClient(ctx context.Context, clientID int) (*ClientResult, error)

	// CreateClient creates a client.
	CreateClient(ctx context.Context, req ClientRequest) (*ClientResult, error)

	// DeleteClient removes a client no order references.
	DeleteClient(ctx context.Context, clientID int) error

	// ListProducts returns the catalog.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// CreateProduct adds a catalog product.
	CreateProduct(ctx context.Context, req ProductRequest) (*ProductResult, error)

	// ListTaxTypes returns the withholding tax types.
	ListTaxTypes(ctx context.Context) (*TaxTypeListResult, error)

	// ListWithholdingPayments returns recorded withholding payments, for one
	// order when ref is not empty.
	ListWithholdingPayments(ctx context.Context, ref string) (*PaymentListResult, error)

	// RecordWithholdingPayment records the amount withheld on an order.
	RecordWithholdingPayment(ctx context.Context, ref string, req PaymentRequest) (*PaymentResult, error)

	// RemitWithholdingPayment flags a payment as paid to the treasury.
	RemitWithholdingPayment(ctx context.Context, paymentID int, req RemitRequest) (*PaymentResult, error)

	// GetDashboard returns the sales and status figures for year.
	GetDashboard(ctx context.Context, year int) (*DashboardResult, error)

	// Schema returns the JSON schema of a named request body.
	Schema(name string) (any, error)
}
