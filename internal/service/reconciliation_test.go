package service

import (
	"testing"
	"time"

	"github.com/pulsenote/billing/internal/domain/subscription"
	"github.com/pulsenote/billing/internal/integration/razorpay/webhook"
	"github.com/pulsenote/billing/internal/testutil"
	"github.com/pulsenote/billing/internal/types"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service ReconciliationService
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

func (s *ReconciliationServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewReconciliationService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		Catalog:          s.GetCatalog(),
		SubscriptionRepo: s.GetStores().SubscriptionRepo,
		Gateway:          s.GetGateway(),
		Notifier:         s.GetNotifier(),
	})
}

func (s *ReconciliationServiceTestSuite) subscriptionEvent(eventType webhook.EventType, userID, subID, planID string, start, end time.Time) *webhook.Event {
	return &webhook.Event{
		Entity: "event",
		Event:  string(eventType),
		Payload: webhook.Payload{
			Subscription: &webhook.PayloadSubscription{
				Entity: webhook.SubscriptionEntity{
					ID:            subID,
					Entity:        "subscription",
					PlanID:        planID,
					CustomerID:    "cust_001",
					Status:        "active",
					PaymentMethod: "upi",
					CurrentStart:  start.Unix(),
					CurrentEnd:    end.Unix(),
					Notes:         webhook.FlexibleNotes{"user_id": userID},
				},
			},
		},
		CreatedAt: time.Now().Unix(),
	}
}

func (s *ReconciliationServiceTestSuite) paymentEvent(eventType webhook.EventType, userID string, notes webhook.FlexibleNotes) *webhook.Event {
	if notes == nil {
		notes = webhook.FlexibleNotes{}
	}
	notes["user_id"] = userID
	return &webhook.Event{
		Entity: "event",
		Event:  string(eventType),
		Payload: webhook.Payload{
			Payment: &webhook.PayloadPayment{
				Entity: webhook.PaymentEntity{
					ID:     "pay_001",
					Entity: "payment",
					Amount: 9933,
					Status: "captured",
					Notes:  notes,
				},
			},
		},
		CreatedAt: time.Now().Unix(),
	}
}

func (s *ReconciliationServiceTestSuite) seedRecord(rec *subscription.Record) {
	rec.CreatedAt = s.GetNow()
	rec.UpdatedAt = s.GetNow()
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), rec))
}

func (s *ReconciliationServiceTestSuite) getRecord(userID string) *subscription.Record {
	rec, err := s.GetStores().SubscriptionRepo.GetByUser(s.GetContext(), userID)
	s.NoError(err)
	return rec
}

func (s *ReconciliationServiceTestSuite) TestActivationCreatesRecord() {
	now := s.GetNow()
	event := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierBasic, rec.Tier)
	s.Equal(types.RenewalPeriodMonthly, rec.Billing.RenewalPeriod)
	s.Equal("sub_001", rec.Billing.GatewaySubscriptionID)
	s.Equal("cust_001", rec.Billing.GatewayCustomerID)
	s.Equal(types.PaymentMethodUPI, rec.Billing.PaymentMethod)
	s.Equal(types.SubscriptionStatusActive, rec.Billing.Status)
	s.Equal(types.PaymentStatusPaid, rec.Billing.LastPaymentStatus)
	s.True(rec.Billing.ConfirmationSent)
	s.Equal(1, s.GetNotifier().SendCount())
}

func (s *ReconciliationServiceTestSuite) TestActivationRedeliveryIsIdempotent() {
	now := s.GetNow()
	event := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))
	first := s.getRecord("user_1")

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))
	second := s.getRecord("user_1")

	s.Equal(first.Tier, second.Tier)
	s.Equal(first.Billing.GatewaySubscriptionID, second.Billing.GatewaySubscriptionID)
	s.True(second.Billing.CurrentPeriodEnd.Equal(*first.Billing.CurrentPeriodEnd))
	// Confirmation is at most once per subscription lifetime.
	s.Equal(1, s.GetNotifier().SendCount())
}

func (s *ReconciliationServiceTestSuite) TestActivationNeverRegressesPeriodEnd() {
	now := s.GetNow()
	later := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))
	stale := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_001", "plan_basic_monthly", now.AddDate(0, 0, -30), now.AddDate(0, 0, -1))

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), later))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), stale))

	rec := s.getRecord("user_1")
	s.True(rec.Billing.CurrentPeriodEnd.After(now))
}

func (s *ReconciliationServiceTestSuite) TestActivationOfReplacementSubscription() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			GatewaySubscriptionID: "sub_old",
			PaymentMethod:         types.PaymentMethodUPI,
			Status:                types.SubscriptionStatusActive,
			UpgradeInProgress:     true,
			ConfirmationSent:      true,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_new", "plan_pro_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	// The superseded mandate is cancelled immediately.
	s.Equal([]testutil.CancelCall{{SubscriptionID: "sub_old", AtCycleEnd: false}},
		s.GetGateway().Cancellations)

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierPro, rec.Tier)
	s.Equal("sub_new", rec.Billing.GatewaySubscriptionID)
	s.False(rec.Billing.UpgradeInProgress)
	s.Empty(rec.Billing.TargetPlanID)
	// A replacement subscription earns a fresh confirmation.
	s.Equal(1, s.GetNotifier().SendCount())
}

func (s *ReconciliationServiceTestSuite) TestAuthenticatedRetriesParkedMandateCancel() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:            types.RenewalPeriodMonthly,
			GatewaySubscriptionID:    "sub_new",
			PaymentMethod:            types.PaymentMethodUPI,
			Status:                   types.SubscriptionStatusActive,
			UpgradeInProgress:        true,
			SupersededSubscriptionID: "sub_old",
			ConfirmationSent:         true,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionAuthenticated,
		"user_1", "sub_new", "plan_pro_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	s.Equal([]testutil.CancelCall{{SubscriptionID: "sub_old", AtCycleEnd: false}},
		s.GetGateway().Cancellations)

	rec := s.getRecord("user_1")
	s.Empty(rec.Billing.SupersededSubscriptionID)
	s.Equal("sub_new", rec.Billing.GatewaySubscriptionID)
}

func (s *ReconciliationServiceTestSuite) TestActivationRetriesParkedMandateCancel() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:            types.RenewalPeriodMonthly,
			GatewaySubscriptionID:    "sub_new",
			PaymentMethod:            types.PaymentMethodUPI,
			Status:                   types.SubscriptionStatusActive,
			UpgradeInProgress:        true,
			SupersededSubscriptionID: "sub_old",
			ConfirmationSent:         true,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_new", "plan_pro_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	s.Equal([]testutil.CancelCall{{SubscriptionID: "sub_old", AtCycleEnd: false}},
		s.GetGateway().Cancellations)

	rec := s.getRecord("user_1")
	s.Empty(rec.Billing.SupersededSubscriptionID)
	s.Equal(types.PlanTierPro, rec.Tier)
	s.False(rec.Billing.UpgradeInProgress)
}

func (s *ReconciliationServiceTestSuite) TestFailedRetryKeepsMandateParked() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:            types.RenewalPeriodMonthly,
			GatewaySubscriptionID:    "sub_new",
			PaymentMethod:            types.PaymentMethodUPI,
			Status:                   types.SubscriptionStatusActive,
			UpgradeInProgress:        true,
			SupersededSubscriptionID: "sub_old",
			ConfirmationSent:         true,
		},
	})
	s.GetGateway().CancelSubscriptionErr = testutil.GatewayError("cancel rejected")

	event := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"user_1", "sub_new", "plan_pro_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	// The parked id survives so the next event retries again.
	rec := s.getRecord("user_1")
	s.Equal("sub_old", rec.Billing.SupersededSubscriptionID)
	s.Equal(types.PlanTierPro, rec.Tier)
}

func (s *ReconciliationServiceTestSuite) TestCancelledEventForParkedMandateEndsRetry() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierPro,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:            types.RenewalPeriodMonthly,
			GatewaySubscriptionID:    "sub_new",
			Status:                   types.SubscriptionStatusActive,
			SupersededSubscriptionID: "sub_old",
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionCancelled,
		"user_1", "sub_old", "plan_basic_monthly", now.AddDate(0, 0, -30), now)
	event.Payload.Subscription.Entity.EndedAt = now.Unix()
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Empty(rec.Billing.SupersededSubscriptionID)
	// The record on the replacement subscription is untouched.
	s.Equal(types.PlanTierPro, rec.Tier)
	s.Equal(types.SubscriptionStatusActive, rec.Billing.Status)
	s.Equal("sub_new", rec.Billing.GatewaySubscriptionID)
	s.Zero(s.GetGateway().CallCount("CancelSubscription"))
}

func (s *ReconciliationServiceTestSuite) TestAuthenticatedRecordsPaymentMethod() {
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
		},
	})

	now := s.GetNow()
	event := s.subscriptionEvent(webhook.EventSubscriptionAuthenticated,
		"user_1", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PaymentMethodUPI, rec.Billing.PaymentMethod)
	s.Zero(s.GetNotifier().SendCount())
}

func (s *ReconciliationServiceTestSuite) TestChargedExtendsPeriod() {
	now := s.GetNow()
	start := now.AddDate(0, 0, -30)
	end := now
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			CurrentPeriodStart:    &start,
			CurrentPeriodEnd:      &end,
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
			ConfirmationSent:      true,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionCharged,
		"user_1", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.True(rec.Billing.CurrentPeriodEnd.After(now.AddDate(0, 0, 29)))
	s.Equal(types.PaymentStatusPaid, rec.Billing.LastPaymentStatus)
	s.Equal(types.SubscriptionStatusActive, rec.Billing.Status)
	// Renewals never notify.
	s.Zero(s.GetNotifier().SendCount())
}

func (s *ReconciliationServiceTestSuite) TestUpdatedConfirmsInPlacePlanChange() {
	now := s.GetNow()
	start := now.AddDate(0, 0, -20)
	end := now.AddDate(0, 0, 10)
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			CurrentPeriodStart:    &start,
			CurrentPeriodEnd:      &end,
			GatewaySubscriptionID: "sub_001",
			PaymentMethod:         types.PaymentMethodCard,
			Status:                types.SubscriptionStatusActive,
			ConfirmationSent:      true,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionUpdated,
		"user_1", "sub_001", "plan_pro_monthly", start, end)
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierPro, rec.Tier)
	s.Equal(types.RenewalPeriodMonthly, rec.Billing.RenewalPeriod)
	s.Equal("sub_001", rec.Billing.GatewaySubscriptionID)
	s.False(rec.Billing.UpgradeInProgress)
	s.Zero(s.GetNotifier().SendCount())
}

func (s *ReconciliationServiceTestSuite) TestCancelledWithGraceKeepsEntitlement() {
	now := s.GetNow()
	start := now.AddDate(0, 0, -20)
	end := now.AddDate(0, 0, 10)
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			CurrentPeriodStart:    &start,
			CurrentPeriodEnd:      &end,
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionCancelled,
		"user_1", "sub_001", "plan_basic_monthly", start, end)
	event.Payload.Subscription.Entity.EndedAt = end.Unix()

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.SubscriptionStatusCancelled, rec.Billing.Status)
	// Paid-through access survives until the period lapses.
	s.Equal(types.PlanTierBasic, rec.Tier)
	s.NotNil(rec.Billing.CurrentPeriodEnd)
}

func (s *ReconciliationServiceTestSuite) TestCancelledInPastClearsEntitlement() {
	now := s.GetNow()
	start := now.AddDate(0, 0, -40)
	end := now.AddDate(0, 0, -10)
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			CurrentPeriodStart:    &start,
			CurrentPeriodEnd:      &end,
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionCancelled,
		"user_1", "sub_001", "plan_basic_monthly", start, end)
	event.Payload.Subscription.Entity.EndedAt = end.Unix()

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierNone, rec.Tier)
	s.Equal(types.SubscriptionStatusCancelled, rec.Billing.Status)
	s.Empty(rec.Billing.GatewaySubscriptionID)
	s.Nil(rec.Billing.CurrentPeriodStart)
	s.Nil(rec.Billing.CurrentPeriodEnd)
}

func (s *ReconciliationServiceTestSuite) TestCancelledForSupersededSubscriptionIgnored() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierPro,
		Billing: &subscription.BillingInfo{
			GatewaySubscriptionID: "sub_new",
			Status:                types.SubscriptionStatusActive,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionCancelled,
		"user_1", "sub_old", "plan_basic_monthly", now.AddDate(0, 0, -30), now)
	event.Payload.Subscription.Entity.EndedAt = now.Unix()

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierPro, rec.Tier)
	s.Equal(types.SubscriptionStatusActive, rec.Billing.Status)
	s.Equal("sub_new", rec.Billing.GatewaySubscriptionID)
}

func (s *ReconciliationServiceTestSuite) TestHaltedRevokesEntitlement() {
	now := s.GetNow()
	start := now.AddDate(0, 0, -30)
	end := now
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			CurrentPeriodStart:    &start,
			CurrentPeriodEnd:      &end,
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionHalted,
		"user_1", "sub_001", "plan_basic_monthly", start, end)
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierNone, rec.Tier)
	s.Equal(types.SubscriptionStatusHalted, rec.Billing.Status)
	s.Equal(types.PaymentStatusFailed, rec.Billing.LastPaymentStatus)
	s.Nil(rec.Billing.CurrentPeriodEnd)
	// The subscription id survives so a resume can revive the record.
	s.Equal("sub_001", rec.Billing.GatewaySubscriptionID)
}

func (s *ReconciliationServiceTestSuite) TestResumedRestoresEntitlement() {
	now := s.GetNow()
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierNone,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusHalted,
			LastPaymentStatus:     types.PaymentStatusFailed,
		},
	})

	event := s.subscriptionEvent(webhook.EventSubscriptionResumed,
		"user_1", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierBasic, rec.Tier)
	s.Equal(types.SubscriptionStatusActive, rec.Billing.Status)
	s.Equal(types.PaymentStatusPaid, rec.Billing.LastPaymentStatus)
	s.NotNil(rec.Billing.CurrentPeriodEnd)
}

func (s *ReconciliationServiceTestSuite) TestPaymentFailedRecordsFailure() {
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
			LastPaymentStatus:     types.PaymentStatusPaid,
		},
	})

	event := s.paymentEvent(webhook.EventPaymentFailed, "user_1", nil)
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PaymentStatusFailed, rec.Billing.LastPaymentStatus)
	// Halting is the gateway's call after its own retries.
	s.Equal(types.SubscriptionStatusActive, rec.Billing.Status)
	s.Equal(types.PlanTierBasic, rec.Tier)
}

func (s *ReconciliationServiceTestSuite) TestPaymentCapturedFinalizesPendingChange() {
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			RenewalPeriod:         types.RenewalPeriodMonthly,
			GatewaySubscriptionID: "sub_new",
			PaymentMethod:         types.PaymentMethodUPI,
			Status:                types.SubscriptionStatusActive,
			UpgradeInProgress:     true,
		},
	})

	event := s.paymentEvent(webhook.EventPaymentCaptured, "user_1",
		webhook.FlexibleNotes{"plan_id": "plan_pro_monthly"})
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierPro, rec.Tier)
	s.False(rec.Billing.UpgradeInProgress)
	s.Empty(rec.Billing.TargetPlanID)
	s.Equal(types.PaymentStatusPaid, rec.Billing.LastPaymentStatus)

	// Redelivery finds no transition pending and changes nothing.
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))
	again := s.getRecord("user_1")
	s.Equal(types.PlanTierPro, again.Tier)
	s.False(again.Billing.UpgradeInProgress)
}

func (s *ReconciliationServiceTestSuite) TestPaymentCapturedWithoutPendingChangeIgnored() {
	s.seedRecord(&subscription.Record{
		UserID: "user_1",
		Tier:   types.PlanTierBasic,
		Billing: &subscription.BillingInfo{
			GatewaySubscriptionID: "sub_001",
			Status:                types.SubscriptionStatusActive,
		},
	})

	event := s.paymentEvent(webhook.EventPaymentCaptured, "user_1", nil)
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))

	rec := s.getRecord("user_1")
	s.Equal(types.PlanTierBasic, rec.Tier)
}

func (s *ReconciliationServiceTestSuite) TestUnknownEventTypeIgnored() {
	event := &webhook.Event{Entity: "event", Event: "invoice.expired"}
	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))
}

func (s *ReconciliationServiceTestSuite) TestEventWithoutUserReferenceDropped() {
	now := s.GetNow()
	event := s.subscriptionEvent(webhook.EventSubscriptionActivated,
		"", "sub_001", "plan_basic_monthly", now, now.AddDate(0, 0, 30))
	event.Payload.Subscription.Entity.Notes = webhook.FlexibleNotes{}

	s.NoError(s.service.ApplyGatewayEvent(s.GetContext(), event))
	_, err := s.GetStores().SubscriptionRepo.GetByUser(s.GetContext(), "")
	s.Error(err)
}
