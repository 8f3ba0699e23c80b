package billing

import (
	"testing"
	"time"

	"github.com/pulsenote/billing/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestProrate(t *testing.T) {
	tests := []struct {
		name          string
		oldPrice      int64
		newPrice      int64
		daysRemaining int
		cycleLength   int
		expected      int64
	}{
		{
			name:          "upgrade_mid_cycle",
			oldPrice:      8900,
			newPrice:      12900,
			daysRemaining: 15,
			cycleLength:   30,
			expected:      2000, // round((12900-8900)/30*15)
		},
		{
			name:          "upgrade_full_cycle_remaining",
			oldPrice:      8900,
			newPrice:      12900,
			daysRemaining: 30,
			cycleLength:   30,
			expected:      4000,
		},
		{
			name:          "downgrade_clamps_to_zero",
			oldPrice:      12900,
			newPrice:      8900,
			daysRemaining: 15,
			cycleLength:   30,
			expected:      0,
		},
		{
			name:          "no_days_remaining",
			oldPrice:      8900,
			newPrice:      12900,
			daysRemaining: 0,
			cycleLength:   30,
			expected:      0,
		},
		{
			name:          "rounds_half_up",
			oldPrice:      0,
			newPrice:      100,
			daysRemaining: 1,
			cycleLength:   3,
			expected:      33, // 100/3 = 33.33
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prorate(tt.oldPrice, tt.newPrice, tt.daysRemaining, tt.cycleLength)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRefundForUnusedPeriod(t *testing.T) {
	tests := []struct {
		name        string
		paidAmount  int64
		daysUsed    int
		cycleLength int
		expected    int64
	}{
		{
			name:        "one_unused_day",
			paidAmount:  8900,
			daysUsed:    29,
			cycleLength: 30,
			expected:    297, // round(8900/30*1), above the floor
		},
		{
			name:        "fully_used_cycle",
			paidAmount:  8900,
			daysUsed:    30,
			cycleLength: 30,
			expected:    0,
		},
		{
			name:        "ten_unused_days",
			paidAmount:  8900,
			daysUsed:    20,
			cycleLength: 30,
			expected:    2967,
		},
		{
			name:        "tiny_refund_floored_to_minimum",
			paidAmount:  120,
			daysUsed:    29,
			cycleLength: 30,
			expected:    MinRefundMinor, // round(120/30*1)=4, floored up
		},
		{
			name:        "overused_cycle",
			paidAmount:  8900,
			daysUsed:    35,
			cycleLength: 30,
			expected:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RefundForUnusedPeriod(tt.paidAmount, tt.daysUsed, tt.cycleLength)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDayCounts(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("days_remaining_rounds_up", func(t *testing.T) {
		end := now.Add(36 * time.Hour)
		assert.Equal(t, 2, DaysRemaining(end, now))
	})

	t.Run("days_remaining_past_end", func(t *testing.T) {
		end := now.Add(-24 * time.Hour)
		assert.Equal(t, 0, DaysRemaining(end, now))
	})

	t.Run("days_used_rounds_down", func(t *testing.T) {
		start := now.Add(-36 * time.Hour)
		assert.Equal(t, 1, DaysUsed(start, now))
	})

	t.Run("days_used_before_start", func(t *testing.T) {
		start := now.Add(12 * time.Hour)
		assert.Equal(t, 0, DaysUsed(start, now))
	})
}

func TestCycleLengthDays(t *testing.T) {
	assert.Equal(t, 30, CycleLengthDays(types.RenewalPeriodMonthly))
	assert.Equal(t, 365, CycleLengthDays(types.RenewalPeriodAnnual))
}

func TestRemainingBillingCycles(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("monthly_clamps_to_max", func(t *testing.T) {
		end := now.AddDate(0, 0, 400)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodMonthly)
		assert.Equal(t, 36, got)
	})

	t.Run("monthly_just_over_a_year_bills_full_horizon", func(t *testing.T) {
		end := now.AddDate(0, 0, 366)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodMonthly)
		assert.Equal(t, 36, got)
	})

	t.Run("monthly_within_a_year_converts", func(t *testing.T) {
		end := now.AddDate(0, 0, 360)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodMonthly)
		assert.Equal(t, 12, got)
	})

	t.Run("annual_over_a_year_bills_full_horizon", func(t *testing.T) {
		end := now.AddDate(0, 0, 400)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodAnnual)
		assert.Equal(t, 10, got)
	})

	t.Run("monthly_rounds_up", func(t *testing.T) {
		end := now.AddDate(0, 0, 45)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodMonthly)
		assert.Equal(t, 2, got)
	})

	t.Run("annual_clamps_to_max", func(t *testing.T) {
		end := now.AddDate(30, 0, 0)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodAnnual)
		assert.Equal(t, 10, got)
	})

	t.Run("expired_period_returns_minimum", func(t *testing.T) {
		end := now.AddDate(0, 0, -10)
		got := RemainingBillingCycles(&end, now, types.RenewalPeriodMonthly)
		assert.Equal(t, 1, got)
	})

	t.Run("absent_period_end_uses_monthly_default", func(t *testing.T) {
		got := RemainingBillingCycles(nil, now, types.RenewalPeriodMonthly)
		assert.Equal(t, 12, got)
	})

	t.Run("absent_period_end_uses_annual_default", func(t *testing.T) {
		got := RemainingBillingCycles(nil, now, types.RenewalPeriodAnnual)
		assert.Equal(t, 5, got)
	})
}

func TestMinorToMajor(t *testing.T) {
	assert.Equal(t, "129", MinorToMajor(12900).String())
	assert.Equal(t, "20.5", MinorToMajor(2050).String())
}
