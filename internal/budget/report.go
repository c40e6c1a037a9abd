// Package budget aggregates expenses into per-category totals and compares
// them against monthly limits.
package budget

import (
	"sort"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

// MonthLayout is the key format of a reporting month.
const MonthLayout = "2006-01"

// NearLimitRatio marks a category as close to its limit.
const NearLimitRatio = 0.8

// CategoryTotal is the spend of one category within a period.
type CategoryTotal struct {
	Category model.Category
	Spent    float64
	Limit    float64
	Count    int
}

// Remaining returns what is left of the limit. Negative when over budget.
func (c CategoryTotal) Remaining() float64 {
	return c.Limit - c.Spent
}

// Over reports whether spending exceeded the limit.
func (c CategoryTotal) Over() bool {
	return c.Spent > c.Limit
}

// Near reports whether spending reached NearLimitRatio of the limit without
// exceeding it.
func (c CategoryTotal) Near() bool {
	if c.Limit <= 0 || c.Over() {
		return false
	}
	return c.Spent/c.Limit >= NearLimitRatio
}

// Ratio returns spent over limit, or 0 when there is no limit.
func (c CategoryTotal) Ratio() float64 {
	if c.Limit <= 0 {
		return 0
	}
	return c.Spent / c.Limit
}

// Report is the budget variance of one month.
type Report struct {
	Budgets    model.Budgets
	Month      string
	Categories []CategoryTotal
	Total      float64
	Limit      float64
	Count      int
}

// Monthly builds the variance report for month (YYYY-MM). Every category of
// model.Categories appears, in descending order of spend; categories without
// an explicit budget use fallback. Expenses outside the month are ignored.
func Monthly(month string, expenses []model.Expense, budgets model.Budgets, fallback float64) Report {
	byCategory := make(map[model.Category]*CategoryTotal, len(model.Categories))
	for _, c := range model.Categories {
		byCategory[c] = &CategoryTotal{Category: c, Limit: budgets.Limit(c, fallback)}
	}

	report := Report{Month: month, Budgets: make(model.Budgets, len(model.Categories))}
	for _, e := range expenses {
		if e.Month() != month {
			continue
		}
		total, ok := byCategory[e.Category]
		if !ok {
			total = byCategory[model.CategoryOther]
		}
		total.Spent += e.Amount
		total.Count++
		report.Total += e.Amount
		report.Count++
	}

	for _, c := range model.Categories {
		total := byCategory[c]
		report.Categories = append(report.Categories, *total)
		report.Budgets[c] = total.Limit
		report.Limit += total.Limit
	}
	sortTotals(report.Categories)
	return report
}

// OverBudget returns the categories whose spend exceeded their limit.
func (r Report) OverBudget() []CategoryTotal {
	var over []CategoryTotal
	for _, c := range r.Categories {
		if c.Over() {
			over = append(over, c)
		}
	}
	return over
}

// Spending returns the categories with any spend, highest first.
func (r Report) Spending() []CategoryTotal {
	var spent []CategoryTotal
	for _, c := range r.Categories {
		if c.Count > 0 {
			spent = append(spent, c)
		}
	}
	return spent
}

// Window totals expenses dated within the last days days up to and including
// now, by category, highest first. Categories without spend are omitted.
func Window(expenses []model.Expense, now time.Time, days int) []CategoryTotal {
	end := truncateDay(now)
	start := end.AddDate(0, 0, -days)

	byCategory := make(map[model.Category]*CategoryTotal)
	for _, e := range expenses {
		d := truncateDay(e.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		total, ok := byCategory[e.Category]
		if !ok {
			total = &CategoryTotal{Category: e.Category}
			byCategory[e.Category] = total
		}
		total.Spent += e.Amount
		total.Count++
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for _, t := range byCategory {
		totals = append(totals, *t)
	}
	sortTotals(totals)
	return totals
}

// Top returns the n most expensive records, highest first. Ties keep the
// later date first.
func Top(expenses []model.Expense, n int) []model.Expense {
	sorted := make([]model.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].Date.After(sorted[j].Date)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CurrentMonth returns the month key of t.
func CurrentMonth(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseMonth validates a YYYY-MM month key.
func ParseMonth(s string) (time.Time, error) {
	return time.ParseInLocation(MonthLayout, s, time.Local)
}

// sortTotals orders by spend descending, then by the display order of the
// category set.
func sortTotals(totals []CategoryTotal) {
	order := make(map[model.Category]int, len(model.Categories))
	for i, c := range model.Categories {
		order[c] = i
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Spent != totals[j].Spent {
			return totals[i].Spent > totals[j].Spent
		}
		return order[totals[i].Category] < order[totals[j].Category]
	})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
