package recommender

import "github.com/kallenvale/circuitsage/internal/model"

// Priority is the weighting strategy of spec.md §4.5 step 4.
type Priority string

const (
	PriorityCost         Priority = "cost"
	PriorityPerformance  Priority = "performance"
	PriorityAvailability Priority = "availability"
	PriorityBalanced     Priority = "balanced"
)

// Budget bounds the acceptable unit price of a candidate.
type Budget struct {
	Currency     string
	MaxUnitPrice float64
}

// Request is the recommendation request shape of spec.md §4.5.
type Request struct {
	NaturalLanguageRequirement string
	Category                   model.Category // zero value means "unset, infer it"
	PreferredSpecs             map[string]model.SpecValue
	Budget                     *Budget
	Priority                   Priority
	ExcludePartNumbers         []string
	MaxResults                 int
}

// Recommendation is one ranked result: the component, its final
// combined score, an LLM justification (empty when degraded), and up to
// two same-category alternatives.
type Recommendation struct {
	Component     *model.Component
	CombinedScore float64
	Justification string
	Alternatives  []*model.Component
}

// Result is the full response: ranked recommendations plus whether the
// request ran in degraded mode (spec.md §4.5 "Failure semantics").
type Result struct {
	Recommendations []Recommendation
	Degraded        bool
}
