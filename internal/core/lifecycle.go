package core

import (
	"fmt"
	"time"
)

var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusDraft:     {StatusConfirmed, StatusPaid, StatusCancelled},
	StatusConfirmed: {StatusPaid, StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPaid, StatusDelivered},
	StatusCancelled: nil,
}

// CanTransition reports whether an order in status from may move to to.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Confirm moves a DRAFT order to CONFIRMED. Already confirmed is a no-op.
func (po *PurchaseOrder) Confirm() error {
	if po.Status == StatusConfirmed {
		return nil
	}
	return po.transition(StatusConfirmed)
}

// MarkDelivered flags a confirmed order as delivered. A paid order keeps its
// payment date.
func (po *PurchaseOrder) MarkDelivered() error {
	if po.Status == StatusDelivered {
		return nil
	}
	return po.transition(StatusDelivered)
}

// Cancel moves an unpaid order to CANCELLED.
func (po *PurchaseOrder) Cancel() error {
	if po.Status == StatusCancelled {
		return nil
	}
	if po.IsPaid() {
		return fmt.Errorf("order %s is paid and cannot be cancelled: %w", po.Reference, ErrInvalidTransition)
	}
	return po.transition(StatusCancelled)
}

// MarkPaid sets status PAID and records the payment date. Payment does not
// change any amount, so nothing is recomputed.
func (po *PurchaseOrder) MarkPaid(paymentDate time.Time) error {
	if paymentDate.IsZero() {
		return &ValidationError{Field: "payment_date", Reason: "required to mark an order paid"}
	}
	if err := po.transition(StatusPaid); err != nil {
		return err
	}
	d := paymentDate
	po.PaymentDate = &d
	return nil
}

func (po *PurchaseOrder) transition(to OrderStatus) error {
	if !CanTransition(po.Status, to) {
		return fmt.Errorf("order %s cannot move from %s to %s: %w", po.Reference, po.Status, to, ErrInvalidTransition)
	}
	po.Status = to
	return nil
}
