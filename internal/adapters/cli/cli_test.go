package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/adapters/cli"
	"procurement/internal/app"
	"procurement/internal/core"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	svc := app.NewQuoteService(core.DefaultRateTable(), nil)
	var out bytes.Buffer
	err := cli.Run(context.Background(), svc, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestQuote_PrintsTotalsAndDecision(t *testing.T) {
	out, err := run(t, `{
		"client": {"name": "Ministry", "client_type": "GOVERNMENT"},
		"products": [{"id": 1, "name": "Desk", "unit_price": "1000", "tva_rate": "0"}],
		"items": [{"product_id": 1, "quantity": "2"}]
	}`, "quote")
	require.NoError(t, err)

	assert.Contains(t, out, "ORDER QUOTE")
	assert.Contains(t, out, "Desk")
	assert.Contains(t, out, "2000.000")
	assert.Contains(t, out, "30.000")
	assert.Contains(t, out, "1970.000")
	assert.Contains(t, out, "Withholding APPLIED: 1.50%")
}

func TestQuote_Excluded(t *testing.T) {
	out, err := run(t, `{
		"client": {"name": "Overseas Ltd", "client_type": "COMPANY", "is_resident": false},
		"items": [{"product_id": 1, "unit_price": "5000", "tva_rate": "19"}]
	}`, "q")
	require.NoError(t, err)
	assert.Contains(t, out, "Withholding EXCLUDED: "+core.ReasonNonResident)
	assert.Contains(t, out, "5950.000")
}

func TestQuote_RejectsUnknownFields(t *testing.T) {
	_, err := run(t, `{"client": {"name": "X", "client_type": "COMPANY"}, "discount": 5}`, "quote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestQuote_ValidationError(t *testing.T) {
	_, err := run(t, `{"client": {"name": "X", "client_type": "ALIEN"}}`, "quote")

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "client_type", verr.Field)
}

func TestSchema(t *testing.T) {
	out, err := run(t, "", "schema", "quote")
	require.NoError(t, err)
	assert.Contains(t, out, `"client"`)
	assert.Contains(t, out, `"items"`)

	_, err = run(t, "", "schema", "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"show"},
		{"recompute"},
		{"pay", "PO-1"},
		{"schema"},
		{"frobnicate"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, "_"), func(t *testing.T) {
			_, err := run(t, "", args...)
			assert.ErrorIs(t, err, cli.ErrUsage)
		})
	}
}

func TestNeedsDatabase(t *testing.T) {
	assert.False(t, cli.NeedsDatabase("quote"))
	assert.False(t, cli.NeedsDatabase("schema"))
	assert.True(t, cli.NeedsDatabase("show"))
	assert.True(t, cli.NeedsDatabase("pay"))
}
