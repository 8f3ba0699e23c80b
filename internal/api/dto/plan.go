package dto

import (
	"github.com/pulsenote/billing/internal/domain/billing"
	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/shopspring/decimal"
)

// PlanResponse is a catalog plan as served to display layers.
type PlanResponse struct {
	plan.Plan
	PriceMajor decimal.Decimal `json:"price_major"`
}

// ListPlansResponse lists the full catalog.
type ListPlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// NewListPlansResponse builds the response from catalog plans.
func NewListPlansResponse(plans []plan.Plan) *ListPlansResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanResponse{
			Plan:       p,
			PriceMajor: billing.MinorToMajor(p.PriceMinor),
		})
	}
	return &ListPlansResponse{Plans: out}
}
