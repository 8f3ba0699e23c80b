package subscription

import (
	"github.com/pulsenote/billing/internal/errors"
)

// Error codes specific to the plan-change validation taxonomy. These are
// surfaced verbatim to callers; gateway and internal failures are not.
const (
	ErrCodeInvalidPlan          = "invalid_plan"
	ErrCodeNoSubscription       = "no_subscription"
	ErrCodeNoActiveSubscription = "no_active_subscription"
	ErrCodeAlreadyOnPlan        = "already_on_plan"
	ErrCodeInvalidTransition    = "invalid_transition"
)

var (
	ErrInvalidPlan          = errors.New(ErrCodeInvalidPlan, "unknown subscription plan")
	ErrNoSubscription       = errors.New(ErrCodeNoSubscription, "no billing record exists for user")
	ErrNoActiveSubscription = errors.New(ErrCodeNoActiveSubscription, "no active subscription for user")
	ErrAlreadyOnPlan        = errors.New(ErrCodeAlreadyOnPlan, "subscription is already on the requested plan")
	ErrInvalidTransition    = errors.New(ErrCodeInvalidTransition, "requested plan transition is not allowed")
)
