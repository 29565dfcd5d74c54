package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/app"
	"procurement/internal/core"
)

func quoteService() app.ApplicationService {
	return app.NewQuoteService(core.DefaultRateTable(), nil)
}

func TestQuoteOrder_GovernmentGoods(t *testing.T) {
	svc := quoteService()

	result, err := svc.QuoteOrder(context.Background(), app.QuoteRequest{
		Client:   app.ClientRequest{Name: "Ministry", ClientType: "government"},
		Products: []app.QuoteProduct{{ID: 1, Name: "Desk", UnitPrice: "1000", TVARate: "0"}},
		Items:    []app.ItemRequest{{ProductID: 1, Quantity: "2"}},
	})
	require.NoError(t, err)

	po := result.Order
	assert.Equal(t, "QUOTE", po.Reference)
	assert.Equal(t, core.OrderGoods, po.OrderType)
	assert.Equal(t, "Desk", po.Items[0].ProductName)
	assert.Equal(t, "2000.000", core.FormatAmount(po.TotalTTC))
	assert.True(t, result.Decision.Applied)
	assert.Equal(t, "1.50", core.FormatRate(result.Decision.Rate))
	assert.Equal(t, "30.000", core.FormatAmount(po.WithholdingAmount))
	assert.Equal(t, core.TaxTypePublicMarkets, result.Decision.TaxTypeCode)
}

func TestQuoteOrder_InlinePricesAndDefaults(t *testing.T) {
	svc := quoteService()

	result, err := svc.QuoteOrder(context.Background(), app.QuoteRequest{
		OrderType: "fees",
		Client:    app.ClientRequest{Name: "Acme", ClientType: "COMPANY", TaxRegime: "real"},
		Items: []app.ItemRequest{
			{ProductID: 5, UnitPrice: "1500.000", TVARate: "0"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", result.Order.Items[0].Quantity.String())
	assert.Equal(t, "37.500", core.FormatAmount(result.Decision.Amount))
}

func TestQuoteOrder_Validation(t *testing.T) {
	svc := quoteService()
	ctx := context.Background()

	tests := []struct {
		name  string
		req   app.QuoteRequest
		field string
	}{
		{
			name:  "unknown client type",
			req:   app.QuoteRequest{Client: app.ClientRequest{Name: "X", ClientType: "ALIEN"}},
			field: "client_type",
		},
		{
			name:  "unknown order type",
			req:   app.QuoteRequest{OrderType: "BARTER", Client: app.ClientRequest{Name: "X", ClientType: "COMPANY"}},
			field: "order_type",
		},
		{
			name: "discount scale",
			req: app.QuoteRequest{
				Client: app.ClientRequest{Name: "X", ClientType: "COMPANY"},
				Items:  []app.ItemRequest{{ProductID: 1, UnitPrice: "10", TVARate: "19", Remise: "1.234"}},
			},
			field: "remise",
		},
		{
			name: "discount range",
			req: app.QuoteRequest{
				Client: app.ClientRequest{Name: "X", ClientType: "COMPANY"},
				Items:  []app.ItemRequest{{ProductID: 1, UnitPrice: "10", TVARate: "19", Remise: "101"}},
			},
			field: "remise",
		},
		{
			name: "item without price source",
			req: app.QuoteRequest{
				Client: app.ClientRequest{Name: "X", ClientType: "COMPANY"},
				Items:  []app.ItemRequest{{ProductID: 1}},
			},
			field: "product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.QuoteOrder(ctx, tt.req)
			require.Error(t, err)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateProduct_RejectsThirdDecimal(t *testing.T) {
	svc := quoteService()

	_, err := svc.CreateProduct(context.Background(), app.ProductRequest{Name: "Cable", UnitPrice: "12.345"})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "unit_price", ve.Field)

	_, err = svc.CreateProduct(context.Background(), app.ProductRequest{Name: "Cable", UnitPrice: "12.340"})
	require.Error(t, err)
	assert.False(t, core.IsValidation(err), "a trailing zero is not a third decimal")
}

func TestQuoteOrder_CatalogPriceScale(t *testing.T) {
	_, err := quoteService().QuoteOrder(context.Background(), app.QuoteRequest{
		Client:   app.ClientRequest{Name: "X", ClientType: "COMPANY"},
		Products: []app.QuoteProduct{{ID: 1, UnitPrice: "9.999"}},
		Items:    []app.ItemRequest{{ProductID: 1}},
	})
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "unit_price", ve.Field)
}

func TestQuoteService_RequiresDatabaseForStoredOrders(t *testing.T) {
	svc := quoteService()
	_, err := svc.GetOrder(context.Background(), "PO-1")
	assert.Error(t, err)
	_, err = svc.ListClients(context.Background())
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	svc := quoteService()

	for _, name := range app.SchemaNames() {
		s, err := svc.Schema(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}

	_, err := svc.Schema("nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
