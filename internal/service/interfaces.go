// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/tally/internal/model"
)

// ExpenseFilter defines filtering options for expense queries.
type ExpenseFilter struct {
	// Month restricts results to one YYYY-MM month. Empty means all months.
	Month    string
	Category model.Category
	Limit    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Expense operations
	SaveExpense(ctx context.Context, expense *model.Expense) error
	GetExpense(ctx context.Context, id string) (*model.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	Months(ctx context.Context) ([]string, error)

	// Budget operations
	GetBudgets(ctx context.Context) (model.Budgets, error)
	SetBudget(ctx context.Context, budget model.Budget) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
