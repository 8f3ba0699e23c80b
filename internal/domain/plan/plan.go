package plan

import (
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/types"
	"github.com/samber/lo"
)

// Plan describes a purchasable subscription plan. The ID is the gateway's
// plan identifier so webhook plan references map back directly.
type Plan struct {
	ID            string              `json:"id"`
	Tier          types.PlanTier      `json:"tier"`
	RenewalPeriod types.RenewalPeriod `json:"renewal_period"`
	PriceMinor    int64               `json:"price_minor"`
	Currency      string              `json:"currency"`
}

// Catalog is the static plan table. It is built once at process start and
// read-only thereafter.
type Catalog struct {
	plans []Plan
}

// NewCatalog builds a catalog from the given plans.
func NewCatalog(plans []Plan) *Catalog {
	return &Catalog{plans: plans}
}

// DefaultCatalog returns the built-in plan table: basic/pro crossed with
// monthly/annual.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Plan{
		{ID: "plan_basic_monthly", Tier: types.PlanTierBasic, RenewalPeriod: types.RenewalPeriodMonthly, PriceMinor: 8900, Currency: "INR"},
		{ID: "plan_pro_monthly", Tier: types.PlanTierPro, RenewalPeriod: types.RenewalPeriodMonthly, PriceMinor: 12900, Currency: "INR"},
		{ID: "plan_basic_annual", Tier: types.PlanTierBasic, RenewalPeriod: types.RenewalPeriodAnnual, PriceMinor: 89000, Currency: "INR"},
		{ID: "plan_pro_annual", Tier: types.PlanTierPro, RenewalPeriod: types.RenewalPeriodAnnual, PriceMinor: 129000, Currency: "INR"},
	})
}

// ByID resolves a plan by its gateway plan identifier.
func (c *Catalog) ByID(planID string) (*Plan, error) {
	p, ok := lo.Find(c.plans, func(p Plan) bool { return p.ID == planID })
	if !ok {
		return nil, ierr.NewError("plan not found").
			WithHintf("no plan with id %s", planID).
			WithReportableDetails(map[string]any{"plan_id": planID}).
			Mark(ierr.ErrNotFound)
	}
	return &p, nil
}

// ByTierAndPeriod resolves a plan by its tier/renewal-period pair.
func (c *Catalog) ByTierAndPeriod(tier types.PlanTier, period types.RenewalPeriod) (*Plan, error) {
	p, ok := lo.Find(c.plans, func(p Plan) bool {
		return p.Tier == tier && p.RenewalPeriod == period
	})
	if !ok {
		return nil, ierr.NewError("plan not found").
			WithHintf("no plan for tier %s with %s renewal", tier, period).
			WithReportableDetails(map[string]any{
				"tier":           tier,
				"renewal_period": period,
			}).
			Mark(ierr.ErrNotFound)
	}
	return &p, nil
}

// List returns all plans in the catalog.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// ValidTransitionsFrom enumerates the plans a subscriber on the given plan
// may change to. Every distinct plan is reachable; a plan never transitions
// to itself.
func (c *Catalog) ValidTransitionsFrom(current *Plan) []Plan {
	return lo.Filter(c.plans, func(p Plan, _ int) bool {
		return p.ID != current.ID
	})
}
