package service

import (
	"context"
	"time"

	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/pulsenote/billing/internal/domain/subscription"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/integration/razorpay/webhook"
	"github.com/pulsenote/billing/internal/types"
)

// ReconciliationService applies gateway webhook events to subscription
// records. Events are the authoritative confirmation channel: every handler
// re-reads the record before writing, tolerates redelivery, and drops events
// it cannot attribute rather than failing the delivery.
type ReconciliationService interface {
	ApplyGatewayEvent(ctx context.Context, event *webhook.Event) error
}

type reconciliationService struct {
	ServiceParams
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(params ServiceParams) ReconciliationService {
	return &reconciliationService{ServiceParams: params}
}

func (s *reconciliationService) ApplyGatewayEvent(ctx context.Context, event *webhook.Event) error {
	s.Logger.Infow("processing gateway event",
		"event_type", event.Event,
		"user_id", event.UserID())

	switch event.Type() {
	case webhook.EventSubscriptionActivated:
		return s.handleActivated(ctx, event)
	case webhook.EventSubscriptionAuthenticated:
		return s.handleAuthenticated(ctx, event)
	case webhook.EventSubscriptionCharged,
		webhook.EventSubscriptionCompleted,
		webhook.EventSubscriptionResumed:
		return s.handleCharged(ctx, event)
	case webhook.EventSubscriptionUpdated:
		return s.handleUpdated(ctx, event)
	case webhook.EventSubscriptionCancelled:
		return s.handleCancelled(ctx, event)
	case webhook.EventSubscriptionHalted:
		return s.handleHalted(ctx, event)
	case webhook.EventPaymentCaptured:
		return s.handlePaymentCaptured(ctx, event)
	case webhook.EventPaymentFailed:
		return s.handlePaymentFailed(ctx, event)
	default:
		s.Logger.Infow("ignoring unhandled gateway event", "event_type", event.Event)
		return nil
	}
}

// handleActivated is the only handler allowed to create a record and the only
// path that sends the plan confirmation. Activation of a replacement
// subscription (mandate swap) also cancels the superseded one.
func (s *reconciliationService) handleActivated(ctx context.Context, event *webhook.Event) error {
	sub, userID, ok := s.subscriptionEntity(event)
	if !ok {
		return nil
	}

	pl, err := s.Catalog.ByID(sub.PlanID)
	if err != nil {
		s.Logger.Warnw("dropping activation for unknown plan",
			"plan_id", sub.PlanID,
			"subscription_id", sub.ID,
			"user_id", userID)
		return nil
	}

	now := time.Now().UTC()
	start, end := sub.CurrentPeriod()

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return err
		}
		return s.createActivatedRecord(ctx, userID, sub, pl, start, end, now)
	}

	storedSubID := rec.SubscriptionID()
	subChanged := storedSubID != sub.ID

	update := subscription.NewRecordUpdate().
		SetTier(pl.Tier).
		SetRenewalPeriod(pl.RenewalPeriod).
		SetGatewaySubscriptionID(sub.ID).
		SetStatus(types.SubscriptionStatusActive, event.Event, now).
		SetLastPayment(types.PaymentStatusPaid, now).
		SetUpgradeInProgress(false).
		UnsetTargetPlan()

	// A swap that could not cancel the old mandate parked its id on the
	// record; every activation-family event retries until the gateway
	// accepts.
	s.retrySupersededCancel(ctx, rec, userID, sub.ID, update)

	// A replacement subscription going active supersedes the stored one;
	// cancel it immediately so it cannot charge again. A failed cancel is
	// parked so later events keep retrying.
	if subChanged && storedSubID != "" {
		if cerr := s.Gateway.CancelSubscription(ctx, storedSubID, false); cerr != nil {
			s.Logger.Errorw("failed to cancel superseded subscription on activation",
				"error", cerr,
				"user_id", userID,
				"old_subscription_id", storedSubID,
				"new_subscription_id", sub.ID)
			update.SetSupersededSubscriptionID(storedSubID)
		}
	}

	if sub.CustomerID != "" {
		update.SetGatewayCustomerID(sub.CustomerID)
	}
	if sub.PaymentMethod != "" {
		update.SetPaymentMethod(types.PaymentMethod(sub.PaymentMethod))
	}
	// The period end only moves forward within a subscription's lifetime; a
	// replacement subscription starts a fresh window.
	if start != nil && end != nil && (subChanged || periodEndAdvances(rec, *end)) {
		update.SetPeriod(*start, *end)
	}

	// Confirmation is at most once per gateway subscription: a redelivered
	// activation finds the flag already set, a replacement subscription
	// earns a fresh one. The flag is persisted before the send so a crash
	// mid-notify cannot cause a duplicate.
	notify := subChanged || rec.Billing == nil || !rec.Billing.ConfirmationSent
	if notify {
		update.SetConfirmationSent(true)
	}

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	if notify {
		if nerr := s.Notifier.SendPlanConfirmation(ctx, userID, pl); nerr != nil {
			s.Logger.Errorw("failed to send plan confirmation",
				"error", nerr,
				"user_id", userID,
				"plan_id", pl.ID)
		}
	}

	s.Logger.Infow("applied subscription activation",
		"user_id", userID,
		"subscription_id", sub.ID,
		"plan_id", pl.ID,
		"confirmation_sent", notify)
	return nil
}

func (s *reconciliationService) createActivatedRecord(
	ctx context.Context,
	userID string,
	sub *webhook.SubscriptionEntity,
	pl *plan.Plan,
	start, end *time.Time,
	now time.Time,
) error {
	rec := &subscription.Record{
		UserID: userID,
		Tier:   pl.Tier,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         pl.RenewalPeriod,
			CurrentPeriodStart:    start,
			CurrentPeriodEnd:      end,
			GatewaySubscriptionID: sub.ID,
			GatewayCustomerID:     sub.CustomerID,
			PaymentMethod:         types.PaymentMethod(sub.PaymentMethod),
			LastPaymentStatus:     types.PaymentStatusPaid,
			LastPaymentAt:         &now,
			Status:                types.SubscriptionStatusActive,
			StatusReason:          string(webhook.EventSubscriptionActivated),
			StatusChangedAt:       &now,
			ConfirmationSent:      true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.SubscriptionRepo.Create(ctx, rec); err != nil {
		// A concurrent delivery of the same activation already created the
		// record; the redelivered event re-applies as an update next time.
		if ierr.IsAlreadyExists(err) {
			s.Logger.Warnw("record already created by concurrent activation",
				"user_id", userID,
				"subscription_id", sub.ID)
			return nil
		}
		return err
	}

	if nerr := s.Notifier.SendPlanConfirmation(ctx, userID, pl); nerr != nil {
		s.Logger.Errorw("failed to send plan confirmation",
			"error", nerr,
			"user_id", userID,
			"plan_id", pl.ID)
	}

	s.Logger.Infow("created record from subscription activation",
		"user_id", userID,
		"subscription_id", sub.ID,
		"plan_id", pl.ID)
	return nil
}

// handleAuthenticated records the payment method the customer approved. For a
// mandate swap it also re-attempts the cancel of the superseded subscription.
func (s *reconciliationService) handleAuthenticated(ctx context.Context, event *webhook.Event) error {
	sub, userID, ok := s.subscriptionEntity(event)
	if !ok {
		return nil
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping authentication for unknown record",
				"user_id", userID,
				"subscription_id", sub.ID)
			return nil
		}
		return err
	}

	update := subscription.NewRecordUpdate()
	if sub.PaymentMethod != "" {
		update.SetPaymentMethod(types.PaymentMethod(sub.PaymentMethod))
	}

	// Authentication of the replacement is the first chance to retry a
	// cancel the swap could not complete.
	s.retrySupersededCancel(ctx, rec, userID, sub.ID, update)

	if update.IsEmpty() {
		return nil
	}
	return s.SubscriptionRepo.Update(ctx, userID, update)
}

// handleCharged covers charged, completed and resumed: a successful payment
// that extends the billing window. It never notifies.
func (s *reconciliationService) handleCharged(ctx context.Context, event *webhook.Event) error {
	sub, userID, ok := s.subscriptionEntity(event)
	if !ok {
		return nil
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping charge for unknown record",
				"user_id", userID,
				"subscription_id", sub.ID)
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	subChanged := rec.SubscriptionID() != sub.ID

	update := subscription.NewRecordUpdate().
		SetLastPayment(types.PaymentStatusPaid, now).
		SetStatus(types.SubscriptionStatusActive, event.Event, now)

	if subChanged {
		update.SetGatewaySubscriptionID(sub.ID)
	}
	// A resume after a halt re-earns the entitlement the halt revoked.
	if !rec.Tier.IsPaid() {
		if pl, perr := s.Catalog.ByID(sub.PlanID); perr == nil {
			update.SetTier(pl.Tier).SetRenewalPeriod(pl.RenewalPeriod)
		}
	}
	if start, end := sub.CurrentPeriod(); start != nil && end != nil &&
		(subChanged || periodEndAdvances(rec, *end)) {
		update.SetPeriod(*start, *end)
	}

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	s.Logger.Infow("applied subscription charge",
		"event_type", event.Event,
		"user_id", userID,
		"subscription_id", sub.ID)
	return nil
}

// handleUpdated confirms an in-place plan change: the event carries the new
// plan and the record is overwritten to match it.
func (s *reconciliationService) handleUpdated(ctx context.Context, event *webhook.Event) error {
	sub, userID, ok := s.subscriptionEntity(event)
	if !ok {
		return nil
	}

	pl, err := s.Catalog.ByID(sub.PlanID)
	if err != nil {
		s.Logger.Warnw("dropping update for unknown plan",
			"plan_id", sub.PlanID,
			"subscription_id", sub.ID,
			"user_id", userID)
		return nil
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping update for unknown record",
				"user_id", userID,
				"subscription_id", sub.ID)
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	subChanged := rec.SubscriptionID() != sub.ID

	update := subscription.NewRecordUpdate().
		SetTier(pl.Tier).
		SetRenewalPeriod(pl.RenewalPeriod).
		SetGatewaySubscriptionID(sub.ID).
		SetStatus(types.SubscriptionStatusActive, event.Event, now).
		SetUpgradeInProgress(false).
		UnsetTargetPlan()

	if start, end := sub.CurrentPeriod(); start != nil && end != nil &&
		(subChanged || periodEndAdvances(rec, *end)) {
		update.SetPeriod(*start, *end)
	}

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	s.Logger.Infow("applied subscription update",
		"user_id", userID,
		"subscription_id", sub.ID,
		"plan_id", pl.ID)
	return nil
}

// handleCancelled ends or winds down a subscription. When the gateway reports
// an end time already in the past the entitlement is cleared; otherwise the
// user keeps access until the stored period end passes.
func (s *reconciliationService) handleCancelled(ctx context.Context, event *webhook.Event) error {
	sub, userID, ok := s.subscriptionEntity(event)
	if !ok {
		return nil
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping cancellation for unknown record",
				"user_id", userID,
				"subscription_id", sub.ID)
			return nil
		}
		return err
	}

	// The gateway confirming the old mandate's cancellation ends the retry
	// loop for a parked swap leftover.
	if rec.Billing != nil && rec.Billing.SupersededSubscriptionID == sub.ID {
		update := subscription.NewRecordUpdate().UnsetSupersededSubscriptionID()
		if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
			return err
		}
		s.Logger.Infow("confirmed cancellation of superseded subscription",
			"user_id", userID,
			"cancelled_subscription_id", sub.ID)
		return nil
	}

	// A mandate swap cancels the old subscription; its cancellation event
	// must not tear down the record that now points at the replacement.
	if storedSubID := rec.SubscriptionID(); storedSubID != "" && storedSubID != sub.ID {
		s.Logger.Infow("ignoring cancellation of superseded subscription",
			"user_id", userID,
			"cancelled_subscription_id", sub.ID,
			"current_subscription_id", storedSubID)
		return nil
	}

	now := time.Now().UTC()
	update := subscription.NewRecordUpdate().
		SetStatus(types.SubscriptionStatusCancelled, event.Event, now)

	final := false
	if endedAt := sub.EndedAtTime(); endedAt != nil && !endedAt.After(now) {
		final = true
		update.SetTier(types.PlanTierNone).
			UnsetPeriod().
			UnsetGatewaySubscriptionID()
	}

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	s.Logger.Infow("applied subscription cancellation",
		"user_id", userID,
		"subscription_id", sub.ID,
		"entitlement_cleared", final)
	return nil
}

// handleHalted handles exhausted payment retries: the entitlement is revoked
// immediately but the subscription id is kept so a later resume can revive it.
func (s *reconciliationService) handleHalted(ctx context.Context, event *webhook.Event) error {
	sub, userID, ok := s.subscriptionEntity(event)
	if !ok {
		return nil
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping halt for unknown record",
				"user_id", userID,
				"subscription_id", sub.ID)
			return nil
		}
		return err
	}

	if storedSubID := rec.SubscriptionID(); storedSubID != "" && storedSubID != sub.ID {
		s.Logger.Infow("ignoring halt of superseded subscription",
			"user_id", userID,
			"halted_subscription_id", sub.ID,
			"current_subscription_id", storedSubID)
		return nil
	}

	now := time.Now().UTC()
	update := subscription.NewRecordUpdate().
		SetTier(types.PlanTierNone).
		SetStatus(types.SubscriptionStatusHalted, event.Event, now).
		SetLastPayment(types.PaymentStatusFailed, now).
		UnsetPeriod()

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	s.Logger.Warnw("applied subscription halt",
		"user_id", userID,
		"subscription_id", sub.ID)
	return nil
}

// handlePaymentCaptured finalizes a pending plan change once its discounted
// invoice is paid. Renewal charges are ignored here because the charged event
// already covers them; the upgrade-in-progress flag makes redelivery a no-op.
func (s *reconciliationService) handlePaymentCaptured(ctx context.Context, event *webhook.Event) error {
	if event.Payload.Payment == nil {
		s.Logger.Warnw("dropping payment event without payment entity", "event_type", event.Event)
		return nil
	}
	payment := &event.Payload.Payment.Entity
	userID := event.UserID()
	if userID == "" {
		s.Logger.Warnw("dropping payment event without user reference",
			"event_type", event.Event,
			"payment_id", payment.ID)
		return nil
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping capture for unknown record",
				"user_id", userID,
				"payment_id", payment.ID)
			return nil
		}
		return err
	}

	if rec.Billing == nil || !rec.Billing.UpgradeInProgress {
		s.Logger.Infow("ignoring capture with no transition pending",
			"user_id", userID,
			"payment_id", payment.ID)
		return nil
	}

	planID := rec.Billing.TargetPlanID
	if planID == "" {
		planID = payment.Notes.String("plan_id")
	}
	if planID == "" {
		s.Logger.Warnw("dropping capture without plan reference",
			"user_id", userID,
			"payment_id", payment.ID)
		return nil
	}

	pl, err := s.Catalog.ByID(planID)
	if err != nil {
		s.Logger.Warnw("dropping capture for unknown plan",
			"plan_id", planID,
			"user_id", userID,
			"payment_id", payment.ID)
		return nil
	}

	now := time.Now().UTC()
	update := subscription.NewRecordUpdate().
		SetTier(pl.Tier).
		SetRenewalPeriod(pl.RenewalPeriod).
		SetStatus(types.SubscriptionStatusActive, event.Event, now).
		SetLastPayment(types.PaymentStatusPaid, now).
		SetUpgradeInProgress(false).
		UnsetTargetPlan()

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	s.Logger.Infow("finalized plan change from payment capture",
		"user_id", userID,
		"payment_id", payment.ID,
		"plan_id", pl.ID)
	return nil
}

// handlePaymentFailed records the failure; retry scheduling stays on the
// gateway side and a halt event arrives if retries exhaust.
func (s *reconciliationService) handlePaymentFailed(ctx context.Context, event *webhook.Event) error {
	if event.Payload.Payment == nil {
		s.Logger.Warnw("dropping payment event without payment entity", "event_type", event.Event)
		return nil
	}
	payment := &event.Payload.Payment.Entity
	userID := event.UserID()
	if userID == "" {
		s.Logger.Warnw("dropping payment event without user reference",
			"event_type", event.Event,
			"payment_id", payment.ID)
		return nil
	}

	if _, err := s.SubscriptionRepo.GetByUser(ctx, userID); err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("dropping payment failure for unknown record",
				"user_id", userID,
				"payment_id", payment.ID)
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	update := subscription.NewRecordUpdate().
		SetLastPayment(types.PaymentStatusFailed, now)

	if err := s.SubscriptionRepo.Update(ctx, userID, update); err != nil {
		return err
	}

	s.Logger.Warnw("recorded payment failure",
		"user_id", userID,
		"payment_id", payment.ID,
		"error_code", payment.ErrorCode,
		"error_reason", payment.ErrorReason)
	return nil
}

// retrySupersededCancel re-issues the cancel of a mandate a swap left behind.
// The parked id leaves the record only once the gateway accepts the cancel.
func (s *reconciliationService) retrySupersededCancel(
	ctx context.Context,
	rec *subscription.Record,
	userID, newSubID string,
	update *subscription.RecordUpdate,
) {
	if rec.Billing == nil || rec.Billing.SupersededSubscriptionID == "" {
		return
	}
	oldSubID := rec.Billing.SupersededSubscriptionID
	if oldSubID == newSubID {
		return
	}

	if err := s.Gateway.CancelSubscription(ctx, oldSubID, false); err != nil {
		s.Logger.Errorw("failed to cancel superseded subscription",
			"error", err,
			"user_id", userID,
			"old_subscription_id", oldSubID,
			"new_subscription_id", newSubID)
		return
	}

	update.UnsetSupersededSubscriptionID()
	s.Logger.Infow("cancelled superseded subscription",
		"user_id", userID,
		"old_subscription_id", oldSubID)
}

// subscriptionEntity extracts and validates the subscription entity and user
// reference shared by every subscription.* handler.
func (s *reconciliationService) subscriptionEntity(event *webhook.Event) (*webhook.SubscriptionEntity, string, bool) {
	if event.Payload.Subscription == nil {
		s.Logger.Warnw("dropping subscription event without subscription entity",
			"event_type", event.Event)
		return nil, "", false
	}
	sub := &event.Payload.Subscription.Entity
	userID := event.UserID()
	if userID == "" {
		s.Logger.Warnw("dropping subscription event without user reference",
			"event_type", event.Event,
			"subscription_id", sub.ID)
		return nil, "", false
	}
	return sub, userID, true
}

func periodEndAdvances(rec *subscription.Record, end time.Time) bool {
	stored := rec.PeriodEnd()
	return stored == nil || end.After(*stored)
}
