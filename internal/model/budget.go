package model

// Budget bounds and default, in whole currency units.
const (
	DefaultBudget = 5000
	MinBudget     = 0
	MaxBudget     = 20000
)

// Budget is the monthly spending limit for one category.
type Budget struct {
	Category Category `validate:"required,category"`
	Limit    float64  `validate:"gte=0,lte=20000"`
}

// Budgets maps each category to its monthly limit.
type Budgets map[Category]float64

// Limit returns the configured limit for c, or fallback when none is set.
func (b Budgets) Limit(c Category, fallback float64) float64 {
	if v, ok := b[c]; ok {
		return v
	}
	return fallback
}
