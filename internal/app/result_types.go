package app

import (
	"github.com/shopspring/decimal"

	"procurement/internal/core"
)

// OrderResult is returned by order operations.
type OrderResult struct {
	Order *core.PurchaseOrder
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.PurchaseOrder
	Status string
}

// QuoteResult is returned by QuoteOrder.
type QuoteResult struct {
	Order    *core.PurchaseOrder
	Decision core.WithholdingDecision
}

// ClientResult is returned by client operations.
type ClientResult struct {
	Client *core.Client
}

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client
}

// ProductResult is returned by CreateProduct.
type ProductResult struct {
	Product *core.Product
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// TaxTypeListResult is returned by ListTaxTypes.
type TaxTypeListResult struct {
	TaxTypes []core.WithholdingTaxType
}

// PaymentResult is returned by withholding payment operations.
type PaymentResult struct {
	Payment *core.WithholdingTaxPayment
}

// PaymentListResult is returned by ListWithholdingPayments.
type PaymentListResult struct {
	Payments []core.WithholdingTaxPayment
}

// DashboardResult is returned by GetDashboard.
type DashboardResult struct {
	Sales          *core.MonthlySales
	StatusCounts   core.StatusCounts
	ConfirmedCount int
	TotalRevenue   decimal.Decimal
}
