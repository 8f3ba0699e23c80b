package plan

import (
	"testing"

	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookups(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("by_id", func(t *testing.T) {
		p, err := catalog.ByID("plan_pro_monthly")
		require.NoError(t, err)
		assert.Equal(t, types.PlanTierPro, p.Tier)
		assert.Equal(t, types.RenewalPeriodMonthly, p.RenewalPeriod)
		assert.Equal(t, int64(12900), p.PriceMinor)
	})

	t.Run("by_id_unknown", func(t *testing.T) {
		_, err := catalog.ByID("plan_enterprise")
		require.Error(t, err)
		assert.True(t, ierr.IsNotFound(err))
	})

	t.Run("by_tier_and_period", func(t *testing.T) {
		p, err := catalog.ByTierAndPeriod(types.PlanTierBasic, types.RenewalPeriodAnnual)
		require.NoError(t, err)
		assert.Equal(t, "plan_basic_annual", p.ID)
	})

	t.Run("by_tier_and_period_unknown", func(t *testing.T) {
		_, err := catalog.ByTierAndPeriod(types.PlanTierTrial, types.RenewalPeriodMonthly)
		require.Error(t, err)
		assert.True(t, ierr.IsNotFound(err))
	})
}

func TestValidTransitionsFrom(t *testing.T) {
	catalog := DefaultCatalog()
	current, err := catalog.ByID("plan_basic_monthly")
	require.NoError(t, err)

	transitions := catalog.ValidTransitionsFrom(current)
	require.Len(t, transitions, 3)
	for _, p := range transitions {
		assert.NotEqual(t, current.ID, p.ID)
	}
}
