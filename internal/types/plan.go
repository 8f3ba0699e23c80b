package types

import (
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/samber/lo"
)

// PlanTier is the entitlement level granted by a plan
type PlanTier string

const (
	PlanTierNone  PlanTier = "NONE"
	PlanTierBasic PlanTier = "BASIC"
	PlanTierPro   PlanTier = "PRO"
	PlanTierTrial PlanTier = "TRIAL"
)

// PaidTiers are the tiers that represent an active paid entitlement
var PaidTiers = []PlanTier{PlanTierBasic, PlanTierPro}

func (t PlanTier) IsPaid() bool {
	return lo.Contains(PaidTiers, t)
}

func (t PlanTier) Validate() error {
	allowed := []PlanTier{PlanTierNone, PlanTierBasic, PlanTierPro, PlanTierTrial}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid plan tier").
			WithHintf("plan tier must be one of %v", allowed).
			WithReportableDetails(map[string]any{"tier": t}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RenewalPeriod is the billing cycle length of a plan
type RenewalPeriod string

const (
	RenewalPeriodMonthly RenewalPeriod = "MONTHLY"
	RenewalPeriodAnnual  RenewalPeriod = "ANNUAL"
)

func (p RenewalPeriod) Validate() error {
	allowed := []RenewalPeriod{RenewalPeriodMonthly, RenewalPeriodAnnual}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid renewal period").
			WithHintf("renewal period must be one of %v", allowed).
			WithReportableDetails(map[string]any{"renewal_period": p}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
