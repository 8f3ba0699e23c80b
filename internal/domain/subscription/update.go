package subscription

import (
	"time"

	"github.com/pulsenote/billing/internal/types"
)

// RecordUpdate is a structured partial update for a Record. Handlers set only
// the fields they own; the store layer translates the diff into field-level
// set/unset operations so a stale reader can never clobber the whole
// document. Clears are explicit so "absent" is distinguishable from
// "unchanged".
type RecordUpdate struct {
	Tier *types.PlanTier

	RenewalPeriod         *types.RenewalPeriod
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	GatewaySubscriptionID *string
	GatewayCustomerID     *string
	PaymentMethod         *types.PaymentMethod
	LastPaymentStatus     *types.PaymentStatus
	LastPaymentAt         *time.Time
	Status                *types.SubscriptionStatus
	StatusReason          *string
	StatusChangedAt       *time.Time
	UpgradeInProgress     *bool
	TargetPlanID          *string
	TransitionAt          *time.Time
	ConfirmationSent      *bool

	SupersededSubscriptionID *string

	ClearGatewaySubscriptionID    bool
	ClearPeriod                   bool
	ClearTargetPlan               bool
	ClearSupersededSubscriptionID bool
}

// NewRecordUpdate returns an empty update.
func NewRecordUpdate() *RecordUpdate {
	return &RecordUpdate{}
}

func (u *RecordUpdate) SetTier(t types.PlanTier) *RecordUpdate {
	u.Tier = &t
	return u
}

func (u *RecordUpdate) SetRenewalPeriod(p types.RenewalPeriod) *RecordUpdate {
	u.RenewalPeriod = &p
	return u
}

func (u *RecordUpdate) SetPeriod(start, end time.Time) *RecordUpdate {
	u.CurrentPeriodStart = &start
	u.CurrentPeriodEnd = &end
	u.ClearPeriod = false
	return u
}

func (u *RecordUpdate) SetGatewaySubscriptionID(id string) *RecordUpdate {
	u.GatewaySubscriptionID = &id
	u.ClearGatewaySubscriptionID = false
	return u
}

func (u *RecordUpdate) SetGatewayCustomerID(id string) *RecordUpdate {
	u.GatewayCustomerID = &id
	return u
}

func (u *RecordUpdate) SetPaymentMethod(m types.PaymentMethod) *RecordUpdate {
	u.PaymentMethod = &m
	return u
}

func (u *RecordUpdate) SetLastPayment(status types.PaymentStatus, at time.Time) *RecordUpdate {
	u.LastPaymentStatus = &status
	u.LastPaymentAt = &at
	return u
}

func (u *RecordUpdate) SetStatus(status types.SubscriptionStatus, reason string, at time.Time) *RecordUpdate {
	u.Status = &status
	u.StatusReason = &reason
	u.StatusChangedAt = &at
	return u
}

func (u *RecordUpdate) SetUpgradeInProgress(v bool) *RecordUpdate {
	u.UpgradeInProgress = &v
	return u
}

func (u *RecordUpdate) SetTargetPlan(planID string, transitionAt time.Time) *RecordUpdate {
	u.TargetPlanID = &planID
	u.TransitionAt = &transitionAt
	u.ClearTargetPlan = false
	return u
}

func (u *RecordUpdate) SetConfirmationSent(v bool) *RecordUpdate {
	u.ConfirmationSent = &v
	return u
}

// SetSupersededSubscriptionID parks an old mandate whose cancel has not yet
// been accepted by the gateway.
func (u *RecordUpdate) SetSupersededSubscriptionID(id string) *RecordUpdate {
	u.SupersededSubscriptionID = &id
	u.ClearSupersededSubscriptionID = false
	return u
}

// UnsetGatewaySubscriptionID detaches the gateway subscription from the
// record (cancellation clears the id rather than leaving it dangling).
func (u *RecordUpdate) UnsetGatewaySubscriptionID() *RecordUpdate {
	u.ClearGatewaySubscriptionID = true
	u.GatewaySubscriptionID = nil
	return u
}

// UnsetPeriod clears both billing-window bounds.
func (u *RecordUpdate) UnsetPeriod() *RecordUpdate {
	u.ClearPeriod = true
	u.CurrentPeriodStart = nil
	u.CurrentPeriodEnd = nil
	return u
}

// UnsetTargetPlan clears the pending-transition fields.
func (u *RecordUpdate) UnsetTargetPlan() *RecordUpdate {
	u.ClearTargetPlan = true
	u.TargetPlanID = nil
	u.TransitionAt = nil
	return u
}

// UnsetSupersededSubscriptionID clears the parked mandate once its cancel
// has been confirmed.
func (u *RecordUpdate) UnsetSupersededSubscriptionID() *RecordUpdate {
	u.ClearSupersededSubscriptionID = true
	u.SupersededSubscriptionID = nil
	return u
}

// IsEmpty reports whether the update would change nothing.
func (u *RecordUpdate) IsEmpty() bool {
	return u.Tier == nil &&
		u.RenewalPeriod == nil &&
		u.CurrentPeriodStart == nil &&
		u.CurrentPeriodEnd == nil &&
		u.GatewaySubscriptionID == nil &&
		u.GatewayCustomerID == nil &&
		u.PaymentMethod == nil &&
		u.LastPaymentStatus == nil &&
		u.LastPaymentAt == nil &&
		u.Status == nil &&
		u.StatusReason == nil &&
		u.StatusChangedAt == nil &&
		u.UpgradeInProgress == nil &&
		u.TargetPlanID == nil &&
		u.TransitionAt == nil &&
		u.ConfirmationSent == nil &&
		u.SupersededSubscriptionID == nil &&
		!u.ClearGatewaySubscriptionID &&
		!u.ClearPeriod &&
		!u.ClearTargetPlan &&
		!u.ClearSupersededSubscriptionID
}

// Apply merges the update into a record in place. Store implementations that
// hold documents in memory use this; the mongo implementation translates the
// same diff into $set/$unset instead.
func (u *RecordUpdate) Apply(r *Record, now time.Time) {
	if u.Tier != nil {
		r.Tier = *u.Tier
	}

	touchesBilling := u.RenewalPeriod != nil || u.CurrentPeriodStart != nil ||
		u.CurrentPeriodEnd != nil || u.GatewaySubscriptionID != nil ||
		u.GatewayCustomerID != nil || u.PaymentMethod != nil ||
		u.LastPaymentStatus != nil || u.LastPaymentAt != nil ||
		u.Status != nil || u.StatusReason != nil || u.StatusChangedAt != nil ||
		u.UpgradeInProgress != nil || u.TargetPlanID != nil ||
		u.TransitionAt != nil || u.ConfirmationSent != nil ||
		u.SupersededSubscriptionID != nil ||
		u.ClearGatewaySubscriptionID || u.ClearPeriod || u.ClearTargetPlan ||
		u.ClearSupersededSubscriptionID

	if touchesBilling && r.Billing == nil {
		r.Billing = &BillingInfo{}
	}

	if u.RenewalPeriod != nil {
		r.Billing.RenewalPeriod = *u.RenewalPeriod
	}
	if u.CurrentPeriodStart != nil {
		r.Billing.CurrentPeriodStart = u.CurrentPeriodStart
	}
	if u.CurrentPeriodEnd != nil {
		r.Billing.CurrentPeriodEnd = u.CurrentPeriodEnd
	}
	if u.GatewaySubscriptionID != nil {
		r.Billing.GatewaySubscriptionID = *u.GatewaySubscriptionID
	}
	if u.GatewayCustomerID != nil {
		r.Billing.GatewayCustomerID = *u.GatewayCustomerID
	}
	if u.PaymentMethod != nil {
		r.Billing.PaymentMethod = *u.PaymentMethod
	}
	if u.LastPaymentStatus != nil {
		r.Billing.LastPaymentStatus = *u.LastPaymentStatus
	}
	if u.LastPaymentAt != nil {
		r.Billing.LastPaymentAt = u.LastPaymentAt
	}
	if u.Status != nil {
		r.Billing.Status = *u.Status
	}
	if u.StatusReason != nil {
		r.Billing.StatusReason = *u.StatusReason
	}
	if u.StatusChangedAt != nil {
		r.Billing.StatusChangedAt = u.StatusChangedAt
	}
	if u.UpgradeInProgress != nil {
		r.Billing.UpgradeInProgress = *u.UpgradeInProgress
	}
	if u.TargetPlanID != nil {
		r.Billing.TargetPlanID = *u.TargetPlanID
	}
	if u.TransitionAt != nil {
		r.Billing.TransitionAt = u.TransitionAt
	}
	if u.ConfirmationSent != nil {
		r.Billing.ConfirmationSent = *u.ConfirmationSent
	}
	if u.SupersededSubscriptionID != nil {
		r.Billing.SupersededSubscriptionID = *u.SupersededSubscriptionID
	}

	if u.ClearGatewaySubscriptionID {
		r.Billing.GatewaySubscriptionID = ""
	}
	if u.ClearPeriod {
		r.Billing.CurrentPeriodStart = nil
		r.Billing.CurrentPeriodEnd = nil
	}
	if u.ClearTargetPlan {
		r.Billing.TargetPlanID = ""
		r.Billing.TransitionAt = nil
	}
	if u.ClearSupersededSubscriptionID {
		r.Billing.SupersededSubscriptionID = ""
	}

	r.UpdatedAt = now
}
