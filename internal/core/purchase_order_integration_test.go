package core_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"procurement/internal/core"
	"procurement/migrations"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "connect to test database")

	_, err = migrations.Apply(ctx, pool)
	require.NoError(t, err, "apply migrations")

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE withholding_tax_payments, purchase_order_items, purchase_orders, products, clients
		RESTART IDENTITY CASCADE;
	`)
	require.NoError(t, err, "clean test database")

	t.Cleanup(pool.Close)
	return pool
}

type poFixture struct {
	ctx        context.Context
	pool       *pgxpool.Pool
	orders     core.PurchaseOrderService
	clients    core.ClientService
	government *core.Client
	company    *core.Client
	laptop     *core.Product
	cable      *core.Product
}

func setupPurchaseOrderTestDB(t *testing.T) *poFixture {
	t.Helper()
	pool := setupTestDB(t)
	ctx := context.Background()

	log := zaptest.NewLogger(t)
	rules := core.NewRuleEngine(pool, core.RateOverrides{})
	f := &poFixture{
		ctx:     ctx,
		pool:    pool,
		orders:  core.NewPurchaseOrderService(pool, rules, log, core.NewMetrics(prometheus.NewRegistry())),
		clients: core.NewClientService(pool),
	}

	var err error
	f.government, err = f.clients.CreateClient(ctx, core.ClientInput{
		Name: "Ministry of Works", Category: core.CategoryGovernment, IsResident: true,
	})
	require.NoError(t, err)
	f.company, err = f.clients.CreateClient(ctx, core.ClientInput{
		Name: "Acme SARL", Category: core.CategoryCompany, TaxRegime: core.RegimeReal, IsResident: true,
	})
	require.NoError(t, err)

	f.laptop, err = f.clients.CreateProduct(ctx, core.ProductInput{Code: "LAP", Name: "Laptop", UnitPrice: dec("100.00")})
	require.NoError(t, err)
	f.cable, err = f.clients.CreateProduct(ctx, core.ProductInput{Code: "CAB", Name: "Cable", UnitPrice: dec("10.00")})
	require.NoError(t, err)
	return f
}

func TestPurchaseOrderService_AddItemRecomputes(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-2026-001",
		ClientID:  f.company.ID,
		Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusDraft, po.Status)
	assert.Equal(t, core.OrderGoods, po.OrderType)
	assertDec(t, "100.000", po.TotalHT)
	assertDec(t, "119.000", po.TotalTTC)

	po, err = f.orders.AddItem(f.ctx, po.ID, core.ItemInput{ProductID: f.cable.ID, Quantity: dec("3")})
	require.NoError(t, err)
	require.Len(t, po.Items, 2)
	assert.Equal(t, "Cable", po.Items[1].ProductName)
	assertDec(t, "130.000", po.TotalHT)
	assertDec(t, "24.700", po.TotalTVA)
	assertDec(t, "154.700", po.TotalTTC)
	assert.True(t, po.WithholdingExcluded)
	assert.Equal(t, "amount below 1000 threshold", po.WithholdingExclusionReason)

	// The stored caches match the returned aggregate.
	reloaded, err := f.orders.GetOrderByReference(f.ctx, "PO-2026-001")
	require.NoError(t, err)
	assertDec(t, "154.700", reloaded.TotalTTC)
}

func TestPurchaseOrderService_SnapshotSurvivesCatalogChange(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-SNAP",
		ClientID:  f.government.ID,
		Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec("10")}},
	})
	require.NoError(t, err)
	assertDec(t, "1190.000", po.TotalTTC)
	assert.True(t, po.WithholdingApplied)
	assertDec(t, "17.850", po.WithholdingAmount)

	_, err = f.pool.Exec(f.ctx, "UPDATE products SET unit_price = 999, tva_rate = 7 WHERE id = $1", f.laptop.ID)
	require.NoError(t, err)

	po, err = f.orders.Recompute(f.ctx, po.ID)
	require.NoError(t, err)
	assertDec(t, "100.000", *po.Items[0].UnitPrice)
	assertDec(t, "19", *po.Items[0].TaxRate)
	assertDec(t, "1190.000", po.TotalTTC)
}

func TestPurchaseOrderService_UpdateAndRemoveItem(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-EDIT",
		ClientID:  f.government.ID,
		Items: []core.ItemInput{
			{ProductID: f.laptop.ID, Quantity: dec("1")},
			{ProductID: f.cable.ID, Quantity: dec("1")},
		},
	})
	require.NoError(t, err)

	po, err = f.orders.UpdateItem(f.ctx, po.ID, po.Items[0].ID, core.ItemInput{Quantity: dec("10"), Discount: dec("5")})
	require.NoError(t, err)
	// 10 × 100 − 5% = 950 HT, 180.5 TVA; plus cable 10 HT, 1.9 TVA.
	assertDec(t, "960.000", po.TotalHT)
	assertDec(t, "1142.400", po.TotalTTC)
	assert.True(t, po.WithholdingApplied)

	po, err = f.orders.RemoveItem(f.ctx, po.ID, po.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, po.Items, 1)
	assertDec(t, "11.900", po.TotalTTC)
	assert.True(t, po.WithholdingExcluded)
	assertDec(t, "0", po.WithholdingAmount)

	_, err = f.orders.RemoveItem(f.ctx, po.ID, 999999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPurchaseOrderService_InvalidItemRollsBack(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-BAD",
		ClientID:  f.company.ID,
		Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	_, err = f.orders.AddItem(f.ctx, po.ID, core.ItemInput{ProductID: f.cable.ID, Quantity: dec("1"), Discount: dec("150")})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	po, err = f.orders.GetOrder(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, po.Items, 1)
	assertDec(t, "119.000", po.TotalTTC)
}

func TestPurchaseOrderService_HeaderChangeRedecidesWithholding(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-HDR",
		ClientID:  f.company.ID,
		OrderType: core.OrderFees,
		Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec("15"), TaxRate: decPtr("0")}},
	})
	require.NoError(t, err)
	assertDec(t, "1500.000", po.TotalTTC)
	assertDec(t, "2.50", po.WithholdingRate)
	assertDec(t, "37.500", po.WithholdingAmount)

	po, err = f.orders.UpdateOrder(f.ctx, po.ID, core.OrderInput{
		Reference: "PO-HDR",
		ClientID:  f.company.ID,
		OrderType: core.OrderInsurance,
	})
	require.NoError(t, err)
	assert.True(t, po.WithholdingExcluded)
	assert.Equal(t, "exclusion for order type insurance", po.WithholdingExclusionReason)
}

func TestPurchaseOrderService_DuplicateReference(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	input := core.OrderInput{Reference: "PO-DUP", ClientID: f.company.ID}
	_, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(f.ctx, input)
	assert.ErrorIs(t, err, core.ErrDuplicateReference)
}

func TestPurchaseOrderService_Lifecycle(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	po, err := f.orders.CreateOrder(f.ctx, core.OrderInput{
		Reference: "PO-LIFE",
		ClientID:  f.government.ID,
		Items:     []core.ItemInput{{ProductID: f.laptop.ID, Quantity: dec("20")}},
	})
	require.NoError(t, err)
	amount := po.WithholdingAmount

	po, err = f.orders.Confirm(f.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusConfirmed, po.Status)

	paid := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	po, err = f.orders.MarkPaid(f.ctx, po.ID, paid)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, po.Status)
	require.NotNil(t, po.PaymentDate)
	assert.Equal(t, "2026-04-02", po.PaymentDate.Format(time.DateOnly))
	assert.True(t, amount.Equal(po.WithholdingAmount))

	_, err = f.orders.Cancel(f.ctx, po.ID)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	paidOrders, err := f.orders.GetOrders(f.ctx, core.StatusPaid)
	require.NoError(t, err)
	require.Len(t, paidOrders, 1)
	assert.Equal(t, "PO-LIFE", paidOrders[0].Reference)
}

func TestClientService_DeleteClientInUse(t *testing.T) {
	f := setupPurchaseOrderTestDB(t)

	_, err := f.orders.CreateOrder(f.ctx, core.OrderInput{Reference: "PO-REF", ClientID: f.company.ID})
	require.NoError(t, err)

	err = f.clients.DeleteClient(f.ctx, f.company.ID)
	assert.ErrorIs(t, err, core.ErrClientInUse)

	require.NoError(t, f.clients.DeleteClient(f.ctx, f.government.ID))
	_, err = f.clients.GetClient(f.ctx, f.government.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
