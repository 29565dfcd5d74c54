package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/core"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to core.OrderStatus
		want     bool
	}{
		{core.StatusDraft, core.StatusConfirmed, true},
		{core.StatusDraft, core.StatusPaid, true},
		{core.StatusDraft, core.StatusCancelled, true},
		{core.StatusDraft, core.StatusDelivered, false},
		{core.StatusConfirmed, core.StatusPaid, true},
		{core.StatusConfirmed, core.StatusDelivered, true},
		{core.StatusConfirmed, core.StatusDraft, false},
		{core.StatusDelivered, core.StatusPaid, true},
		{core.StatusDelivered, core.StatusCancelled, true},
		{core.StatusPaid, core.StatusPaid, true},
		{core.StatusPaid, core.StatusDelivered, true},
		{core.StatusPaid, core.StatusCancelled, false},
		{core.StatusPaid, core.StatusConfirmed, false},
		{core.StatusCancelled, core.StatusDraft, false},
		{core.StatusCancelled, core.StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, core.CanTransition(tt.from, tt.to))
		})
	}
}

func TestMarkPaid_KeepsAmounts(t *testing.T) {
	po := &core.PurchaseOrder{
		ID: 1, Reference: "PO-1", Status: core.StatusConfirmed,
		TotalTTC: dec("2000.000"), WithholdingAmount: dec("30.000"), WithholdingApplied: true,
	}
	paid := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, po.MarkPaid(paid))
	assert.Equal(t, core.StatusPaid, po.Status)
	require.NotNil(t, po.PaymentDate)
	assert.True(t, po.PaymentDate.Equal(paid))
	assert.True(t, po.IsPaid())
	assertDec(t, "2000.000", po.TotalTTC)
	assertDec(t, "30.000", po.WithholdingAmount)

	// Delivery after payment keeps the payment date.
	require.NoError(t, po.MarkDelivered())
	assert.Equal(t, core.StatusDelivered, po.Status)
	assert.True(t, po.IsPaid())

	err := po.Cancel()
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestMarkPaid_RequiresDate(t *testing.T) {
	po := &core.PurchaseOrder{Reference: "PO-1", Status: core.StatusDraft}
	err := po.MarkPaid(time.Time{})
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, core.StatusDraft, po.Status)
	assert.False(t, po.IsPaid())
}

func TestConfirm_Idempotent(t *testing.T) {
	po := &core.PurchaseOrder{Reference: "PO-1", Status: core.StatusDraft}
	require.NoError(t, po.Confirm())
	require.NoError(t, po.Confirm())
	assert.Equal(t, core.StatusConfirmed, po.Status)
}

func TestCancel(t *testing.T) {
	po := &core.PurchaseOrder{Reference: "PO-1", Status: core.StatusConfirmed}
	require.NoError(t, po.Cancel())
	assert.Equal(t, core.StatusCancelled, po.Status)
	require.NoError(t, po.Cancel())

	err := po.Confirm()
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	err = po.MarkPaid(time.Now())
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.False(t, po.IsPaid())
}
