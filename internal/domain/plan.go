package domain

// Plan identifies a subscription tier.
type Plan string

// Subscription plans.
const (
	PlanFree Plan = "free"
	PlanPlus Plan = "plus"
)

// PlanLimits bundles the enforcement ceilings for a plan.
// A single parameterized pipeline reads these instead of forking per-plan
// code paths.
type PlanLimits struct {
	// MaxSuggestedTags bounds the merged tag list returned by the
	// suggestion pipeline.
	MaxSuggestedTags int
	// MaxTags is the tag-count ceiling enforced on plan downgrade.
	MaxTags int
	// MaxLinks is the saved-link ceiling (0 = unlimited).
	MaxLinks int
	// MonthlyAIRequests and DailyAIRequests gate paid model calls.
	MonthlyAIRequests int
	DailyAIRequests   int
	// CostPerRequest is the fixed per-request price estimate in USD.
	CostPerRequest float64
}

var planLimits = map[Plan]PlanLimits{
	PlanFree: {
		MaxSuggestedTags:  5,
		MaxTags:           30,
		MaxLinks:          200,
		MonthlyAIRequests: 100,
		DailyAIRequests:   10,
		CostPerRequest:    0.0005,
	},
	PlanPlus: {
		MaxSuggestedTags:  10,
		MaxTags:           500,
		MaxLinks:          0,
		MonthlyAIRequests: 2000,
		DailyAIRequests:   100,
		CostPerRequest:    0.0005,
	},
}

// Limits returns the enforcement ceilings for the plan.
// Unknown plans fall back to free limits.
func (p Plan) Limits() PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Valid reports whether the plan is a known tier.
func (p Plan) Valid() bool {
	_, ok := planLimits[p]
	return ok
}
