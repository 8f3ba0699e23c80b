// Package billing holds the pure money and calendar arithmetic used by the
// plan-change engine. Nothing in here performs I/O; every function is
// deterministic in its inputs.
package billing

import (
	"time"

	"github.com/pulsenote/billing/internal/types"
	"github.com/shopspring/decimal"
)

const (
	// MinRefundMinor is the smallest refund the gateway will accept.
	// Any non-zero refund is floored up to this amount.
	MinRefundMinor int64 = 100

	maxMonthlyCycles = 36
	maxAnnualCycles  = 10

	// nominalYearDays bounds the window a cycle count is derived from.
	// Anything longer bills the maximum horizon outright.
	nominalYearDays = 365

	defaultMonthlyCycles = 12
	defaultAnnualCycles  = 5
)

// Prorate computes the additional charge for switching from the old price to
// the new price with daysRemaining left in a cycleLengthDays cycle. Downgrades
// never produce a negative charge; credits are handled by the refund path.
func Prorate(oldPriceMinor, newPriceMinor int64, daysRemaining, cycleLengthDays int) int64 {
	if cycleLengthDays <= 0 || daysRemaining <= 0 {
		return 0
	}

	delta := decimal.NewFromInt(newPriceMinor - oldPriceMinor)
	amount := delta.
		Div(decimal.NewFromInt(int64(cycleLengthDays))).
		Mul(decimal.NewFromInt(int64(daysRemaining))).
		Round(0).
		IntPart()

	if amount < 0 {
		return 0
	}
	return amount
}

// RefundForUnusedPeriod computes the refundable share of an already-paid
// cycle. Whenever any unused days remain the result is floored up to
// MinRefundMinor so the gateway never sees a dust refund.
func RefundForUnusedPeriod(paidAmountMinor int64, daysUsed, cycleLengthDays int) int64 {
	if cycleLengthDays <= 0 {
		return 0
	}

	unusedDays := cycleLengthDays - daysUsed
	if unusedDays <= 0 {
		return 0
	}

	amount := decimal.NewFromInt(paidAmountMinor).
		Div(decimal.NewFromInt(int64(cycleLengthDays))).
		Mul(decimal.NewFromInt(int64(unusedDays))).
		Round(0).
		IntPart()

	if amount < MinRefundMinor {
		return MinRefundMinor
	}
	return amount
}

// DaysRemaining returns the number of whole days until periodEnd, rounding
// partial days up, floored at 0 once the period has passed.
func DaysRemaining(periodEnd, now time.Time) int {
	remaining := periodEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}

	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// DaysUsed returns the number of whole days elapsed since periodStart,
// rounding partial days down, floored at 0.
func DaysUsed(periodStart, now time.Time) int {
	used := now.Sub(periodStart)
	if used <= 0 {
		return 0
	}
	return int(used / (24 * time.Hour))
}

// CycleLengthDays returns the nominal cycle length for a renewal period.
func CycleLengthDays(period types.RenewalPeriod) int {
	if period == types.RenewalPeriodAnnual {
		return 365
	}
	return 30
}

// RemainingBillingCycles converts the time left on the current billing window
// into whole target-period units, rounding up. The result saturates at the
// maximum horizon (36 for monthly targets, 10 for annual), and any window
// longer than a nominal year bills that maximum directly: 400 days remaining
// on a monthly target yields 36, not the raw unit count. When periodEnd is
// absent the fixed default horizon applies (12 monthly, 5 annual). The
// gateway always receives a positive cycle count, so an already-expired
// period yields 1 rather than 0.
func RemainingBillingCycles(periodEnd *time.Time, now time.Time, target types.RenewalPeriod) int {
	maxCycles := maxMonthlyCycles
	defaultCycles := defaultMonthlyCycles
	if target == types.RenewalPeriodAnnual {
		maxCycles = maxAnnualCycles
		defaultCycles = defaultAnnualCycles
	}

	if periodEnd == nil {
		return defaultCycles
	}

	days := DaysRemaining(*periodEnd, now)
	if days == 0 {
		return 1
	}
	if days > nominalYearDays {
		return maxCycles
	}

	cycleLen := CycleLengthDays(target)
	cycles := days / cycleLen
	if days%cycleLen > 0 {
		cycles++
	}

	if cycles < 1 {
		cycles = 1
	}
	if cycles > maxCycles {
		cycles = maxCycles
	}
	return cycles
}

// MinorToMajor converts a minor-unit amount to major currency units for
// display (paise to rupees).
func MinorToMajor(amountMinor int64) decimal.Decimal {
	return decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100))
}
