package types

import (
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle state of a billing record
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusHalted    SubscriptionStatus = "HALTED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusHalted,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHintf("subscription status must be one of %v", allowed).
			WithReportableDetails(map[string]any{"status": s}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentStatus is the outcome of the most recent charge attempt
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusPending PaymentStatus = "PENDING"
)

// PaymentMethod is the instrument backing the gateway subscription.
// It determines which plan-change flow applies.
type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
)

// IsMandateBased reports whether the method is a recurring-debit mandate.
// Razorpay does not support in-place plan changes on mandates, so plan
// changes on these methods must cancel and recreate the subscription.
func (m PaymentMethod) IsMandateBased() bool {
	return m == PaymentMethodUPI
}
