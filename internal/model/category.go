package model

import "strings"

// Category is one of the closed set of expense categories.
type Category string

// The closed category set. CategoryOther is the catch-all that uncertain or
// unknown classifications fall back to.
const (
	CategoryFood      Category = "餐飲食品"
	CategoryTransport Category = "交通運輸"
	CategoryHousehold Category = "居家生活"
	CategoryApparel   Category = "服飾購物"
	CategoryLeisure   Category = "休閒娛樂"
	CategoryHealth    Category = "醫療保健"
	CategorySavings   Category = "投資儲蓄"
	CategoryOther     Category = "其他"
)

// CategorySet is an ordered whitelist of categories.
type CategorySet []Category

// Categories is the whitelist shared by the validator, the prompts and the CLI.
// Order is the display order.
var Categories = CategorySet{
	CategoryFood,
	CategoryTransport,
	CategoryHousehold,
	CategoryApparel,
	CategoryLeisure,
	CategoryHealth,
	CategorySavings,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryFood:      "Food",
	CategoryTransport: "Transport",
	CategoryHousehold: "Household",
	CategoryApparel:   "Apparel",
	CategoryLeisure:   "Leisure",
	CategoryHealth:    "Health",
	CategorySavings:   "Savings",
	CategoryOther:     "Other",
}

// Label returns the English label of a category, or the raw name for
// categories outside the closed set.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// Contains reports whether c is a member of the set.
func (s CategorySet) Contains(c Category) bool {
	for _, member := range s {
		if member == c {
			return true
		}
	}
	return false
}

// Strings returns the category names in set order.
func (s CategorySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}

// ParseCategory resolves a category by name or English label (case-insensitive
// for labels). The second return value is false when nothing matches.
func ParseCategory(name string) (Category, bool) {
	c := Category(name)
	if Categories.Contains(c) {
		return c, true
	}
	for cat, label := range categoryLabels {
		if strings.EqualFold(label, name) {
			return cat, true
		}
	}
	return "", false
}
