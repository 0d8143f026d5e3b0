package service

import "propertyapi/internal/repository"

// Budget tiers accepted by Filter.
const (
	BudgetLow    = "low"
	BudgetMedium = "medium"
	BudgetHigh   = "high"
)

var budgetRanges = map[string]repository.PriceRange{
	BudgetLow:    {Min: 0, Max: 500000},
	BudgetMedium: {Min: 500000, Max: 2000000},
	BudgetHigh:   {Min: 2000000, Max: 10000000},
}

// BudgetRange resolves a tier name to its inclusive price band.
// Adjacent bands share their boundary price. Unknown tiers report false and apply no filter.
func BudgetRange(tier string) (repository.PriceRange, bool) {
	r, ok := budgetRanges[tier]
	return r, ok
}
