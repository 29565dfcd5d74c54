package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"procurement/internal/core"
)

type appService struct {
	orders      core.PurchaseOrderService
	clients     core.ClientService
	withholding core.WithholdingService
	reports     core.ReportingService
	rules       core.RuleEngine
	log         *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	orders core.PurchaseOrderService,
	clients core.ClientService,
	withholding core.WithholdingService,
	reports core.ReportingService,
	rules core.RuleEngine,
	log *zap.Logger,
) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		orders:      orders,
		clients:     clients,
		withholding: withholding,
		reports:     reports,
		rules:       rules,
		log:         log,
	}
}

// NewQuoteService returns an ApplicationService that can only quote orders
// against a fixed rate table. Every other operation needs a database.
func NewQuoteService(table core.RateTable, log *zap.Logger) ApplicationService {
	return NewAppService(nil, nil, nil, nil, core.StaticRules(table), log)
}

// ListOrders returns orders, optionally filtered by status.
func (s *appService) ListOrders(ctx context.Context, status string) (*OrderListResult, error) {
	if s.orders == nil {
		return nil, errNoDatabase
	}
	status = strings.ToUpper(strings.TrimSpace(status))
	orders, err := s.orders.GetOrders(ctx, core.OrderStatus(status))
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, Status: status}, nil
}

// GetOrder returns an order by ID or reference.
func (s *appService) GetOrder(ctx context.Context, ref string) (*OrderResult, error) {
	if s.orders == nil {
		return nil, errNoDatabase
	}
	id, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	po, err := s.orders.GetOrder(ctx, id)
	return orderResult(po, err)
}

// CreateOrder creates a DRAFT order.
func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if s.orders == nil {
		return nil, errNoDatabase
	}
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	return orderResult(s.orders.CreateOrder(ctx, in))
}

// UpdateOrder edits an order header.
func (s *appService) UpdateOrder(ctx context.Context, ref string, req UpdateOrderRequest) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		in, err := req.toInput()
		if err != nil {
			return nil, err
		}
		return s.orders.UpdateOrder(ctx, id, in)
	})
}

// DeleteOrder removes an order.
func (s *appService) DeleteOrder(ctx context.Context, ref string) error {
	if s.orders == nil {
		return errNoDatabase
	}
	id, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return err
	}
	return s.orders.DeleteOrder(ctx, id)
}

// AddItem adds a line to an order.
func (s *appService) AddItem(ctx context.Context, ref string, req ItemRequest) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		in, err := req.toInput()
		if err != nil {
			return nil, err
		}
		return s.orders.AddItem(ctx, id, in)
	})
}

// UpdateItem edits a line.
func (s *appService) UpdateItem(ctx context.Context, ref string, itemID int, req ItemRequest) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		in, err := req.toInput()
		if err != nil {
			return nil, err
		}
		return s.orders.UpdateItem(ctx, id, itemID, in)
	})
}

// RemoveItem deletes a line.
func (s *appService) RemoveItem(ctx context.Context, ref string, itemID int) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		return s.orders.RemoveItem(ctx, id, itemID)
	})
}

// RecomputeOrder reruns the pipeline.
func (s *appService) RecomputeOrder(ctx context.Context, ref string) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		return s.orders.Recompute(ctx, id)
	})
}

// ConfirmOrder moves a DRAFT order to CONFIRMED.
func (s *appService) ConfirmOrder(ctx context.Context, ref string) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		return s.orders.Confirm(ctx, id)
	})
}

// DeliverOrder marks an order delivered.
func (s *appService) DeliverOrder(ctx context.Context, ref string) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		return s.orders.MarkDelivered(ctx, id)
	})
}

// CancelOrder cancels an unpaid order.
func (s *appService) CancelOrder(ctx context.Context, ref string) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		return s.orders.Cancel(ctx, id)
	})
}

// MarkOrderPaid records the payment date and sets status PAID.
func (s *appService) MarkOrderPaid(ctx context.Context, ref, paymentDate string) (*OrderResult, error) {
	return s.withOrder(ctx, ref, func(id int) (*core.PurchaseOrder, error) {
		date, err := parseDate("payment_date", paymentDate)
		if err != nil {
			return nil, err
		}
		return s.orders.MarkPaid(ctx, id, date)
	})
}

// QuoteOrder prices an unsaved order against the rate table in force.
func (s *appService) QuoteOrder(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	clientIn := req.Client.toInput()
	if err := clientIn.Validate(); err != nil {
		return nil, err
	}
	orderType := core.OrderType(strings.ToUpper(strings.TrimSpace(req.OrderType)))
	if orderType == "" {
		orderType = core.OrderGoods
	}
	if !orderType.Valid() {
		return nil, &core.ValidationError{Field: "order_type", Value: string(orderType), Reason: "unknown order type"}
	}

	catalog := make(core.Catalog, len(req.Products))
	for _, p := range req.Products {
		product, err := p.toProduct()
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
		catalog[product.ID] = product
	}

	reference := req.Reference
	if reference == "" {
		reference = "QUOTE"
	}
	po := &core.PurchaseOrder{Reference: reference, Status: core.StatusDraft, OrderType: orderType}
	for i, item := range req.Items {
		in, err := item.toInput()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		po.Items = append(po.Items, core.PurchaseOrderItem{
			ProductID:   in.ProductID,
			ProductName: nameOf(catalog[in.ProductID]),
			Quantity:    in.Quantity,
			Discount:    in.Discount,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
		})
	}

	table, err := s.rules.ResolveRateTable(ctx)
	if err != nil {
		return nil, err
	}
	client := &core.Client{
		Name:            clientIn.Name,
		Category:        clientIn.Category,
		TaxRegime:       clientIn.TaxRegime,
		IsResident:      clientIn.IsResident,
		IsVATRegistered: clientIn.IsVATRegistered,
	}
	po.ClientName = client.Name

	decision, err := core.Preview(po, client, catalog, table)
	if err != nil {
		return nil, err
	}
	s.log.Debug("order quoted",
		zap.String("reference", po.Reference),
		zap.String("total_ttc", core.FormatAmount(po.TotalTTC)),
		zap.Bool("withholding_applied", decision.Applied),
	)
	return &QuoteResult{Order: po, Decision: decision}, nil
}

// ListClients returns all clients.
func (s *appService) ListClients(ctx context.Context) (*ClientListResult, error) {
	if s.clients == nil {
		return nil, errNoDatabase
	}
	clients, err := s.clients.GetClients(ctx)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

// GetClient returns a client by ID.
func (s *appService) GetClient(ctx context.Context, clientID int) (*ClientResult, error) {
	if s.clients == nil {
		return nil, errNoDatabase
	}
	c, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &ClientResult{Client: c}, nil
}

// CreateClient creates a client.
func (s *appService) CreateClient(ctx context.Context, req ClientRequest) (*ClientResult, error) {
	if s.clients == nil {
		return nil, errNoDatabase
	}
	c, err := s.clients.CreateClient(ctx, req.toInput())
	if err != nil {
		return nil, err
	}
	s.log.Info("client created", zap.Int("client_id", c.ID), zap.String("client_type", string(c.Category)))
	return &ClientResult{Client: c}, nil
}

// DeleteClient removes a client.
func (s *appService) DeleteClient(ctx context.Context, clientID int) error {
	if s.clients == nil {
		return errNoDatabase
	}
	return s.clients.DeleteClient(ctx, clientID)
}

// ListProducts returns the catalog.
func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	if s.clients == nil {
		return nil, errNoDatabase
	}
	products, err := s.clients.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

// CreateProduct adds a catalog product.
func (s *appService) CreateProduct(ctx context.Context, req ProductRequest) (*ProductResult, error) {
	in, err := req.toInput()
	if err != nil {
		return nil, err
	}
	if s.clients == nil {
		return nil, errNoDatabase
	}
	p, err := s.clients.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: p}, nil
}

// ListTaxTypes returns the withholding tax types.
func (s *appService) ListTaxTypes(ctx context.Context) (*TaxTypeListResult, error) {
	if s.withholding == nil {
		return nil, errNoDatabase
	}
	types, err := s.withholding.GetTaxTypes(ctx)
	if err != nil {
		return nil, err
	}
	return &TaxTypeListResult{TaxTypes: types}, nil
}

// ListWithholdingPayments returns recorded withholding payments.
func (s *appService) ListWithholdingPayments(ctx context.Context, ref string) (*PaymentListResult, error) {
	if s.withholding == nil {
		return nil, errNoDatabase
	}
	orderID := 0
	if ref != "" {
		id, err := s.resolveOrder(ctx, ref)
		if err != nil {
			return nil, err
		}
		orderID = id
	}
	payments, err := s.withholding.GetPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

// RecordWithholdingPayment records the amount withheld on an order.
func (s *appService) RecordWithholdingPayment(ctx context.Context, ref string, req PaymentRequest) (*PaymentResult, error) {
	if s.withholding == nil {
		return nil, errNoDatabase
	}
	id, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		return nil, err
	}
	p, err := s.withholding.RecordPayment(ctx, id, date)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: p}, nil
}

// RemitWithholdingPayment flags a payment as paid to the treasury.
func (s *appService) RemitWithholdingPayment(ctx context.Context, paymentID int, req RemitRequest) (*PaymentResult, error) {
	if s.withholding == nil {
		return nil, errNoDatabase
	}
	p, err := s.withholding.MarkRemitted(ctx, paymentID, strings.TrimSpace(req.TreasuryPaymentRef))
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Payment: p}, nil
}

// GetDashboard returns the dashboard figures for year, or the current year
// when year is zero.
func (s *appService) GetDashboard(ctx context.Context, year int) (*DashboardResult, error) {
	if s.reports == nil {
		return nil, errNoDatabase
	}
	if year == 0 {
		year = time.Now().Year()
	}
	sales, err := s.reports.MonthlySales(ctx, year)
	if err != nil {
		return nil, err
	}
	counts, err := s.reports.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.reports.ConfirmedCount(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.reports.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardResult{
		Sales:          sales,
		StatusCounts:   counts,
		ConfirmedCount: confirmed,
		TotalRevenue:   revenue,
	}, nil
}

var schemaTypes = map[string]any{
	"order":        CreateOrderRequest{},
	"order_update": UpdateOrderRequest{},
	"item":         ItemRequest{},
	"quote":        QuoteRequest{},
	"client":       ClientRequest{},
	"product":      ProductRequest{},
	"payment":      PaymentRequest{},
	"remit":        RemitRequest{},
}

// SchemaNames lists the request bodies Schema can describe.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the JSON schema of a named request body.
func (s *appService) Schema(name string) (any, error) {
	v, ok := schemaTypes[name]
	if !ok {
		return nil, fmt.Errorf("schema %q: %w", name, core.ErrNotFound)
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v), nil
}

// resolveOrder maps a numeric ID or a reference to an order ID.
func (s *appService) resolveOrder(ctx context.Context, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	po, err := s.orders.GetOrderByReference(ctx, ref)
	if err != nil {
		return 0, err
	}
	return po.ID, nil
}

func (s *appService) withOrder(ctx context.Context, ref string, fn func(id int) (*core.PurchaseOrder, error)) (*OrderResult, error) {
	if s.orders == nil {
		return nil, errNoDatabase
	}
	id, err := s.resolveOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	return orderResult(fn(id))
}

func orderResult(po *core.PurchaseOrder, err error) (*OrderResult, error) {
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: po}, nil
}

func nameOf(p *core.Product) string {
	if p == nil {
		return ""
	}
	return p.Name
}
