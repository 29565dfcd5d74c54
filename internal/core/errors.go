package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrDuplicateReference    = errors.New("duplicate order reference")
	ErrClientInUse           = errors.New("client is referenced by purchase orders")
	ErrWithholdingNotApplied = errors.New("withholding tax not applied to order")
)

// ValidationError reports caller input the engine refuses to compute with.
// It is always surfaced; values are never clamped into range.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConsistencyError signals a recomputation attempted on an order that has no
// persisted identity yet. Recompute handles it by resetting totals to zero.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "inconsistent order state: " + e.Reason
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
