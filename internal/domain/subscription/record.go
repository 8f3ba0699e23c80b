package subscription

import (
	"time"

	"github.com/pulsenote/billing/internal/types"
)

// Record is the single billing document kept per user. It is created on the
// first successful activation and mutated by every plan change and webhook
// event; cancellation and expiry are status values, never deletion.
type Record struct {
	// UserID is the unique key for the record
	UserID string `bson:"user_id" json:"user_id"`

	// Tier is the entitlement currently granted to the user
	Tier types.PlanTier `bson:"tier" json:"tier"`

	// Billing is present once any subscription has existed for the user
	Billing *BillingInfo `bson:"billing,omitempty" json:"billing,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// BillingInfo is the nested billing state of a record.
type BillingInfo struct {
	RenewalPeriod types.RenewalPeriod `bson:"renewal_period,omitempty" json:"renewal_period,omitempty"`

	// CurrentPeriodEnd is the authoritative access-until boundary. It only
	// moves forward in time except when a cancellation or halt clears it.
	CurrentPeriodStart *time.Time `bson:"current_period_start,omitempty" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `bson:"current_period_end,omitempty" json:"current_period_end,omitempty"`

	GatewaySubscriptionID string `bson:"gateway_subscription_id,omitempty" json:"gateway_subscription_id,omitempty"`
	GatewayCustomerID     string `bson:"gateway_customer_id,omitempty" json:"gateway_customer_id,omitempty"`

	PaymentMethod types.PaymentMethod `bson:"payment_method,omitempty" json:"payment_method,omitempty"`

	LastPaymentStatus types.PaymentStatus `bson:"last_payment_status,omitempty" json:"last_payment_status,omitempty"`
	LastPaymentAt     *time.Time          `bson:"last_payment_at,omitempty" json:"last_payment_at,omitempty"`

	Status          types.SubscriptionStatus `bson:"status,omitempty" json:"status,omitempty"`
	StatusReason    string                   `bson:"status_reason,omitempty" json:"status_reason,omitempty"`
	StatusChangedAt *time.Time               `bson:"status_changed_at,omitempty" json:"status_changed_at,omitempty"`

	// UpgradeInProgress is true while a plan change has been requested but
	// not yet confirmed by an asynchronous gateway event.
	UpgradeInProgress bool       `bson:"upgrade_in_progress,omitempty" json:"upgrade_in_progress,omitempty"`
	TargetPlanID      string     `bson:"target_plan_id,omitempty" json:"target_plan_id,omitempty"`
	TransitionAt      *time.Time `bson:"transition_at,omitempty" json:"transition_at,omitempty"`

	// SupersededSubscriptionID is an old mandate a swap failed to cancel
	// synchronously. It stays set until a gateway cancel for it succeeds, so
	// webhook handlers know to keep retrying.
	SupersededSubscriptionID string `bson:"superseded_subscription_id,omitempty" json:"superseded_subscription_id,omitempty"`

	// ConfirmationSent guards at-most-once delivery of the subscription
	// confirmation notification across repeated activation-family events.
	ConfirmationSent bool `bson:"confirmation_sent,omitempty" json:"confirmation_sent,omitempty"`
}

// HasActiveEntitlement reports whether the record represents an active paid
// entitlement: a paid tier that is neither cancelled nor halted, or a gateway
// subscription still attached.
func (r *Record) HasActiveEntitlement() bool {
	if r.Billing == nil {
		return false
	}
	if r.Tier.IsPaid() &&
		r.Billing.Status != types.SubscriptionStatusCancelled &&
		r.Billing.Status != types.SubscriptionStatusHalted {
		return true
	}
	return r.Billing.GatewaySubscriptionID != ""
}

// SubscriptionID returns the attached gateway subscription id, if any.
func (r *Record) SubscriptionID() string {
	if r.Billing == nil {
		return ""
	}
	return r.Billing.GatewaySubscriptionID
}

// PeriodEnd returns the stored current period end, if any.
func (r *Record) PeriodEnd() *time.Time {
	if r.Billing == nil {
		return nil
	}
	return r.Billing.CurrentPeriodEnd
}
