package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsenote/billing/internal/api/dto"
	"github.com/pulsenote/billing/internal/domain/billing"
	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/pulsenote/billing/internal/domain/subscription"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/integration/razorpay"
	"github.com/pulsenote/billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PlanChangeService is the plan-change decision engine. It validates the
// requested transition, picks the payment-method-specific flow, issues the
// gateway calls, and writes the optimistic record update. It never blocks
// waiting for gateway-side asynchronous confirmation; the webhook path owns
// the final tier.
type PlanChangeService interface {
	RequestPlanChange(ctx context.Context, req *dto.PlanChangeRequest) (*dto.ChangeOutcome, error)
	RequestCancellation(ctx context.Context, req *dto.CancellationRequest) (*dto.CancellationOutcome, error)
}

type planChangeService struct {
	ServiceParams
}

// NewPlanChangeService creates a new plan change service
func NewPlanChangeService(params ServiceParams) PlanChangeService {
	return &planChangeService{ServiceParams: params}
}

func (s *planChangeService) RequestPlanChange(ctx context.Context, req *dto.PlanChangeRequest) (*dto.ChangeOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.Logger.Infow("starting plan change",
		"user_id", req.UserID,
		"target_tier", req.TargetTier,
		"target_renewal_period", req.TargetRenewalPeriod)

	targetPlan, err := s.Catalog.ByTierAndPeriod(req.TargetTier, req.TargetRenewalPeriod)
	if err != nil {
		return nil, ierr.WithError(subscription.ErrInvalidPlan).
			WithHintf("no plan exists for tier %s with %s renewal", req.TargetTier, req.TargetRenewalPeriod).
			Mark(ierr.ErrValidation)
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, req.UserID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(subscription.ErrNoSubscription).
				WithHint("User has no billing record").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	if rec.Billing == nil || !rec.HasActiveEntitlement() {
		return nil, ierr.WithError(subscription.ErrNoActiveSubscription).
			WithHint("User has no active subscription to change").
			Mark(ierr.ErrInvalidOperation)
	}

	if rec.Tier == targetPlan.Tier && rec.Billing.RenewalPeriod == targetPlan.RenewalPeriod {
		return nil, ierr.WithError(subscription.ErrAlreadyOnPlan).
			WithHintf("Subscription is already on the %s %s plan", targetPlan.Tier, targetPlan.RenewalPeriod).
			Mark(ierr.ErrInvalidOperation)
	}

	// The current plan may be unresolvable (tier NONE with a subscription
	// still attached); the transition table only applies when it resolves.
	var fromPlan *plan.Plan
	if current, cerr := s.Catalog.ByTierAndPeriod(rec.Tier, rec.Billing.RenewalPeriod); cerr == nil {
		fromPlan = current
		valid := s.Catalog.ValidTransitionsFrom(current)
		if !lo.ContainsBy(valid, func(p plan.Plan) bool { return p.ID == targetPlan.ID }) {
			validIDs := lo.Map(valid, func(p plan.Plan, _ int) string { return p.ID })
			return nil, ierr.WithError(subscription.ErrInvalidTransition).
				WithHintf("Cannot change from plan %s to plan %s", current.ID, targetPlan.ID).
				WithReportableDetails(map[string]any{
					"valid_transitions": validIDs,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	now := time.Now().UTC()

	switch {
	case rec.Billing.GatewaySubscriptionID == "":
		return s.createFlow(ctx, rec, fromPlan, targetPlan, now)
	case rec.Billing.PaymentMethod.IsMandateBased():
		return s.mandateRecreateFlow(ctx, rec, fromPlan, targetPlan, now)
	default:
		return s.inPlaceUpdateFlow(ctx, rec, fromPlan, targetPlan, now)
	}
}

// createFlow handles records without a gateway subscription attached: a
// brand-new subscription is created for the target plan. Tier and billing
// window are left for the activation webhook to finalize, since creation does
// not guarantee activation.
func (s *planChangeService) createFlow(
	ctx context.Context,
	rec *subscription.Record,
	fromPlan, targetPlan *plan.Plan,
	now time.Time,
) (*dto.ChangeOutcome, error) {
	cycles := billing.RemainingBillingCycles(rec.PeriodEnd(), now, targetPlan.RenewalPeriod)

	sub, err := s.Gateway.CreateSubscription(ctx, &razorpay.CreateSubscriptionRequest{
		PlanID:         targetPlan.ID,
		TotalCount:     cycles,
		CustomerNotify: true,
		Notes: types.Metadata{
			"user_id": rec.UserID,
			"plan_id": targetPlan.ID,
		},
	})
	if err != nil {
		return nil, gatewayStepError("create_subscription", err)
	}

	outcome := &dto.ChangeOutcome{
		Flow:                  dto.ChangeFlowCreate,
		FromPlanID:            planID(fromPlan),
		ToPlanID:              targetPlan.ID,
		GatewaySubscriptionID: sub.ID,
		AmountDue:             billing.MinorToMajor(targetPlan.PriceMinor),
		CreditApplied:         decimal.Zero,
		CheckoutURL:           sub.ShortURL,
	}

	update := subscription.NewRecordUpdate().
		SetGatewaySubscriptionID(sub.ID).
		SetUpgradeInProgress(false).
		SetTargetPlan(targetPlan.ID, now)

	if err := s.SubscriptionRepo.Update(ctx, rec.UserID, update); err != nil {
		// The gateway subscription already exists; the activation webhook
		// re-reads state and repairs the record, so this is non-fatal.
		s.Logger.Errorw("failed to write optimistic record update after subscription create",
			"error", err,
			"user_id", rec.UserID,
			"subscription_id", sub.ID)
		outcome.Warning = "record update failed; state will be reconciled on activation"
	}

	s.Logger.Infow("created new gateway subscription for plan change",
		"user_id", rec.UserID,
		"subscription_id", sub.ID,
		"plan_id", targetPlan.ID)
	return outcome, nil
}

// mandateRecreateFlow handles mandate-based methods (UPI autopay). The
// gateway cannot re-plan a mandate in place, so the new subscription is
// created first, the old one cancelled, and any unused credit on the old
// plan is applied as a discounted first invoice.
func (s *planChangeService) mandateRecreateFlow(
	ctx context.Context,
	rec *subscription.Record,
	fromPlan, targetPlan *plan.Plan,
	now time.Time,
) (*dto.ChangeOutcome, error) {
	oldSubID := rec.Billing.GatewaySubscriptionID

	var creditMinor int64
	if fromPlan != nil && rec.Billing.CurrentPeriodStart != nil && rec.Billing.CurrentPeriodEnd != nil {
		if billing.DaysRemaining(*rec.Billing.CurrentPeriodEnd, now) > 0 {
			cycleLen := billing.CycleLengthDays(rec.Billing.RenewalPeriod)
			daysUsed := billing.DaysUsed(*rec.Billing.CurrentPeriodStart, now)
			creditMinor = billing.RefundForUnusedPeriod(fromPlan.PriceMinor, daysUsed, cycleLen)
		}
	}

	// Fresh mandate horizon for the replacement subscription.
	cycles := billing.RemainingBillingCycles(nil, now, targetPlan.RenewalPeriod)

	newSub, err := s.Gateway.CreateSubscription(ctx, &razorpay.CreateSubscriptionRequest{
		PlanID:         targetPlan.ID,
		TotalCount:     cycles,
		CustomerNotify: true,
		Notes: types.Metadata{
			"user_id": rec.UserID,
			"plan_id": targetPlan.ID,
		},
	})
	if err != nil {
		return nil, gatewayStepError("create_subscription", err)
	}

	var warnings []string

	// The old mandate must not produce another charge. When the cancel fails
	// here its id is parked on the record and the activation-family webhooks
	// retry it until the gateway accepts.
	oldCancelled := true
	if err := s.Gateway.CancelSubscription(ctx, oldSubID, false); err != nil {
		oldCancelled = false
		s.Logger.Errorw("failed to cancel superseded subscription after swap",
			"error", err,
			"user_id", rec.UserID,
			"old_subscription_id", oldSubID,
			"new_subscription_id", newSub.ID)
		warnings = append(warnings, fmt.Sprintf("failed to cancel superseded subscription %s", oldSubID))
	}

	amountDueMinor := targetPlan.PriceMinor
	if creditMinor > 0 {
		amountDueMinor = targetPlan.PriceMinor - creditMinor
		if amountDueMinor < 0 {
			amountDueMinor = 0
		}

		_, err := s.Gateway.CreateInvoice(ctx, &razorpay.CreateInvoiceRequest{
			SubscriptionID: newSub.ID,
			CustomerID:     rec.Billing.GatewayCustomerID,
			AmountMinor:    amountDueMinor,
			Currency:       targetPlan.Currency,
			Description:    fmt.Sprintf("First %s cycle after plan change, unused credit applied", targetPlan.RenewalPeriod),
			Notes: types.Metadata{
				"user_id": rec.UserID,
				"plan_id": targetPlan.ID,
				"purpose": "plan_change",
			},
		})
		if err != nil {
			s.Logger.Errorw("failed to create discounted first invoice",
				"error", err,
				"user_id", rec.UserID,
				"subscription_id", newSub.ID,
				"amount_minor", amountDueMinor)
			warnings = append(warnings, "failed to create discounted first invoice; first charge will be full price")
		}
	}

	update := subscription.NewRecordUpdate().
		SetGatewaySubscriptionID(newSub.ID).
		SetUpgradeInProgress(true).
		UnsetTargetPlan()
	if !oldCancelled {
		update.SetSupersededSubscriptionID(oldSubID)
	}

	if err := s.SubscriptionRepo.Update(ctx, rec.UserID, update); err != nil {
		s.Logger.Errorw("failed to write optimistic record update after mandate swap",
			"error", err,
			"user_id", rec.UserID,
			"subscription_id", newSub.ID)
		warnings = append(warnings, "record update failed; state will be reconciled on activation")
	}

	outcome := &dto.ChangeOutcome{
		Flow:                  dto.ChangeFlowMandateRecreate,
		FromPlanID:            planID(fromPlan),
		ToPlanID:              targetPlan.ID,
		GatewaySubscriptionID: newSub.ID,
		AmountDue:             billing.MinorToMajor(amountDueMinor),
		CreditApplied:         billing.MinorToMajor(creditMinor),
		CheckoutURL:           newSub.ShortURL,
	}
	if len(warnings) > 0 {
		outcome.Warning = warnings[0]
		for _, w := range warnings[1:] {
			outcome.Warning += "; " + w
		}
	}

	s.Logger.Infow("swapped mandate-based subscription for plan change",
		"user_id", rec.UserID,
		"old_subscription_id", oldSubID,
		"new_subscription_id", newSub.ID,
		"plan_id", targetPlan.ID,
		"credit_minor", creditMinor)
	return outcome, nil
}

// inPlaceUpdateFlow handles card-style methods: the gateway supports
// re-planning the subscription directly and prorates internally. The record
// is not mutated here; the subscription.updated webhook is the single source
// of truth, which avoids racing the synchronous response against the
// asynchronous confirmation.
func (s *planChangeService) inPlaceUpdateFlow(
	ctx context.Context,
	rec *subscription.Record,
	fromPlan, targetPlan *plan.Plan,
	now time.Time,
) (*dto.ChangeOutcome, error) {
	subID := rec.Billing.GatewaySubscriptionID
	cycles := billing.RemainingBillingCycles(rec.PeriodEnd(), now, targetPlan.RenewalPeriod)

	updated, err := s.Gateway.UpdateSubscription(ctx, subID, &razorpay.UpdateSubscriptionRequest{
		PlanID:          targetPlan.ID,
		EffectiveNow:    true,
		RemainingCycles: cycles,
	})
	if err != nil {
		return nil, gatewayStepError("update_subscription", err)
	}

	s.Logger.Infow("requested in-place subscription update for plan change",
		"user_id", rec.UserID,
		"subscription_id", subID,
		"plan_id", targetPlan.ID,
		"remaining_cycles", cycles,
		"gateway_status", updated.Status)

	return &dto.ChangeOutcome{
		Flow:                  dto.ChangeFlowInPlaceUpdate,
		FromPlanID:            planID(fromPlan),
		ToPlanID:              targetPlan.ID,
		GatewaySubscriptionID: subID,
		AmountDue:             decimal.Zero,
		CreditApplied:         decimal.Zero,
	}, nil
}

func (s *planChangeService) RequestCancellation(ctx context.Context, req *dto.CancellationRequest) (*dto.CancellationOutcome, error) {
	if req.UserID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("Please provide a user id").
			Mark(ierr.ErrValidation)
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, req.UserID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(subscription.ErrNoSubscription).
				WithHint("User has no billing record").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	subID := rec.SubscriptionID()
	if subID == "" {
		return nil, ierr.WithError(subscription.ErrNoActiveSubscription).
			WithHint("User has no active subscription to cancel").
			Mark(ierr.ErrInvalidOperation)
	}

	if err := s.Gateway.CancelSubscription(ctx, subID, true); err != nil {
		return nil, gatewayStepError("cancel_subscription", err)
	}

	now := time.Now().UTC()
	reason := req.Reason
	if reason == "" {
		reason = "cancellation requested by user"
	}

	// Access persists until the stored period end passes; the cancelled
	// webhook with an ended_at in the past clears the entitlement.
	update := subscription.NewRecordUpdate().
		SetStatus(types.SubscriptionStatusCancelled, reason, now)
	if err := s.SubscriptionRepo.Update(ctx, req.UserID, update); err != nil {
		s.Logger.Errorw("failed to mark record cancelled after gateway cancel",
			"error", err,
			"user_id", req.UserID,
			"subscription_id", subID)
	}

	s.Logger.Infow("requested subscription cancellation at cycle end",
		"user_id", req.UserID,
		"subscription_id", subID)

	return &dto.CancellationOutcome{
		GatewaySubscriptionID: subID,
		AtCycleEnd:            true,
	}, nil
}

// gatewayStepError wraps a gateway call failure with the step that failed.
// The underlying cause is never surfaced to the end user.
func gatewayStepError(step string, cause error) error {
	return ierr.WithError(cause).
		WithMessage(fmt.Sprintf("gateway step %s failed", step)).
		WithReportableDetails(map[string]any{"step": step}).
		Mark(ierr.ErrGateway)
}

func planID(p *plan.Plan) string {
	if p == nil {
		return ""
	}
	return p.ID
}
