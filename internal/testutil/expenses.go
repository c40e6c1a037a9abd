package testutil

import (
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

// ExpenseBuilder builds expense fixtures fluently. Unset fields default to
// category Other, manual source and 2026-10-19.
type ExpenseBuilder struct {
	expense model.Expense
	date    string
}

// DefaultDate is used when a fixture does not set its own date.
const DefaultDate = "2026-10-19"

// NewExpense starts a fixture for item costing amount.
func NewExpense(item string, amount float64) *ExpenseBuilder {
	return &ExpenseBuilder{
		expense: model.Expense{
			Item:     item,
			Amount:   amount,
			Category: model.CategoryOther,
			Source:   model.SourceManual,
		},
		date: DefaultDate,
	}
}

// In sets the category.
func (b *ExpenseBuilder) In(category model.Category) *ExpenseBuilder {
	b.expense.Category = category
	return b
}

// On sets the date as YYYY-MM-DD.
func (b *ExpenseBuilder) On(date string) *ExpenseBuilder {
	b.date = date
	return b
}

// From sets the source.
func (b *ExpenseBuilder) From(source model.Source) *ExpenseBuilder {
	b.expense.Source = source
	return b
}

// WithNote sets the note.
func (b *ExpenseBuilder) WithNote(note string) *ExpenseBuilder {
	b.expense.Note = note
	return b
}

// Build returns the fixture, failing the test on a malformed date.
func (b *ExpenseBuilder) Build(t *testing.T) model.Expense {
	t.Helper()

	date, err := time.ParseInLocation(model.DateLayout, b.date, time.Local)
	if err != nil {
		t.Fatalf("invalid fixture date %q: %v", b.date, err)
	}
	e := b.expense
	e.Date = date
	return e
}
