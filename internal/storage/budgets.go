package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/tally/internal/model"
)

// GetBudgets returns every explicitly set monthly limit. Categories without a
// row fall back to the configured default at report time.
func (s *SQLiteStorage) GetBudgets(ctx context.Context) (model.Budgets, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, monthly_limit FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("failed to get budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	budgets := make(model.Budgets)
	for rows.Next() {
		var (
			category string
			limit    float64
		)
		if err := rows.Scan(&category, &limit); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets[model.Category(category)] = limit
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

// SetBudget creates or replaces the limit of one category.
func (s *SQLiteStorage) SetBudget(ctx context.Context, budget model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validateBudget(budget); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_limit, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(category) DO UPDATE SET
			monthly_limit = excluded.monthly_limit,
			updated_at = CURRENT_TIMESTAMP
	`, string(budget.Category), budget.Limit)
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}
	return nil
}
