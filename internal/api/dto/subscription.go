package dto

import (
	"github.com/pulsenote/billing/internal/domain/subscription"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/types"
	"github.com/shopspring/decimal"
)

// PlanChangeRequest asks to move a user's subscription to another plan.
type PlanChangeRequest struct {
	UserID              string              `json:"user_id" binding:"required"`
	TargetTier          types.PlanTier      `json:"target_tier" binding:"required"`
	TargetRenewalPeriod types.RenewalPeriod `json:"target_renewal_period" binding:"required"`
}

func (r *PlanChangeRequest) Validate() error {
	if r.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Please provide a user id").
			Mark(ierr.ErrValidation)
	}
	if err := r.TargetTier.Validate(); err != nil {
		return err
	}
	return r.TargetRenewalPeriod.Validate()
}

// ChangeFlow identifies which payment-method-specific flow a plan change
// resolved to.
type ChangeFlow string

const (
	// ChangeFlowCreate creates a brand-new gateway subscription because the
	// record had none attached.
	ChangeFlowCreate ChangeFlow = "create"

	// ChangeFlowMandateRecreate swaps a mandate-based subscription by
	// creating the new one and cancelling the old one.
	ChangeFlowMandateRecreate ChangeFlow = "mandate_recreate"

	// ChangeFlowInPlaceUpdate updates a card-style subscription in place and
	// leaves proration to the gateway.
	ChangeFlowInPlaceUpdate ChangeFlow = "in_place_update"
)

// ChangeOutcome reports the result of a plan change. Amounts are in major
// currency units for display. It never reflects gateway-side asynchronous
// confirmation; the webhook path owns the final tier.
type ChangeOutcome struct {
	Flow                  ChangeFlow      `json:"flow"`
	FromPlanID            string          `json:"from_plan_id,omitempty"`
	ToPlanID              string          `json:"to_plan_id"`
	GatewaySubscriptionID string          `json:"gateway_subscription_id,omitempty"`
	AmountDue             decimal.Decimal `json:"amount_due"`
	CreditApplied         decimal.Decimal `json:"credit_applied"`
	CheckoutURL           string          `json:"checkout_url,omitempty"`

	// Warning carries a non-fatal secondary failure (for example a failed
	// compensating cancel after the primary swap already went through).
	Warning string `json:"warning,omitempty"`
}

// CancellationRequest asks to stop renewing a user's subscription.
type CancellationRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

// CancellationOutcome reports a requested cancellation. Access persists
// until the stored current period end passes.
type CancellationOutcome struct {
	GatewaySubscriptionID string `json:"gateway_subscription_id"`
	AtCycleEnd            bool   `json:"at_cycle_end"`
}

// SubscriptionResponse is the persisted record as served to display layers.
type SubscriptionResponse struct {
	*subscription.Record
}
