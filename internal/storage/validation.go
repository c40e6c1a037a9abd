// Package storage provides the data persistence layer for tally.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidExpense = errors.New("invalid expense")
	ErrInvalidBudget  = errors.New("invalid budget")
	ErrAmbiguousID    = errors.New("id prefix matches more than one expense")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMonth accepts an empty month or a YYYY-MM key.
func validateMonth(month string) error {
	if month == "" {
		return nil
	}
	if len(month) != 7 || month[4] != '-' {
		return fmt.Errorf("%w: %q, want YYYY-MM", ErrInvalidMonth, month)
	}
	for i, r := range month {
		if i != 4 && (r < '0' || r > '9') {
			return fmt.Errorf("%w: %q, want YYYY-MM", ErrInvalidMonth, month)
		}
	}
	return nil
}

// validateExpense checks the record invariants before it is written. The
// item may be empty because receipt records allow it.
func (s *SQLiteStorage) validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if expense.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidExpense)
	}
	if err := s.validator.Struct(expense); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidExpense, err)
	}
	return nil
}

// validateBudget checks the category and the 0 to 20000 bounds.
func (s *SQLiteStorage) validateBudget(budget model.Budget) error {
	if err := s.validator.Struct(budget); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	return nil
}
