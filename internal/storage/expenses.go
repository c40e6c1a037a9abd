package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/google/uuid"
)

const expenseColumns = `id, date, item, category, amount, note, source, created_at`

// SaveExpense inserts a new expense. A missing ID is generated and written
// back to expense, as is the creation time.
func (s *SQLiteStorage) SaveExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validateExpense(expense); err != nil {
		return err
	}

	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Source == "" {
		expense.Source = model.SourceManual
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, item, category, amount, note, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		expense.ID,
		expense.Date.Format(model.DateLayout),
		expense.Item,
		string(expense.Category),
		expense.Amount,
		expense.Note,
		string(expense.Source),
		expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// GetExpense retrieves one expense. IDs may be abbreviated to a unique prefix.
func (s *SQLiteStorage) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getExpense(ctx, s.db, id)
}

func (s *SQLiteStorage) getExpense(ctx context.Context, q queryable, id string) (*model.Expense, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE substr(id, 1, length(?)) = ?
		ORDER BY id = ? DESC
		LIMIT 2
	`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer func() { _ = rows.Close() }()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}

	switch {
	case len(expenses) == 0:
		return nil, common.ErrNotFound
	case expenses[0].ID == id, len(expenses) == 1:
		return &expenses[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, id)
	}
}

// ListExpenses returns expenses matching filter, newest first.
func (s *SQLiteStorage) ListExpenses(ctx context.Context, filter service.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateMonth(filter.Month); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)
	if filter.Month != "" {
		conditions = append(conditions, "substr(date, 1, 7) = ?")
		args = append(args, filter.Month)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(filter.Category))
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanExpenses(rows)
}

// UpdateExpense replaces every stored field of an existing expense.
func (s *SQLiteStorage) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.validateExpense(expense); err != nil {
		return err
	}
	if err := validateString(expense.ID, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET date = ?, item = ?, category = ?, amount = ?, note = ?, source = ?
		WHERE id = ?
	`,
		expense.Date.Format(model.DateLayout),
		expense.Item,
		string(expense.Category),
		expense.Amount,
		expense.Note,
		string(expense.Source),
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return requireAffected(result)
}

// DeleteExpense removes an expense by its full ID.
func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(result)
}

// Months returns every month that has at least one expense, newest first.
func (s *SQLiteStorage) Months(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT substr(date, 1, 7) AS month
		FROM expenses
		ORDER BY month DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var months []string
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		months = append(months, month)
	}
	return months, rows.Err()
}

func scanExpenses(rows *sql.Rows) ([]model.Expense, error) {
	var expenses []model.Expense
	for rows.Next() {
		var (
			e         model.Expense
			date      string
			category  string
			source    string
			createdAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &date, &e.Item, &category, &e.Amount, &e.Note, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		parsed, err := time.ParseInLocation(model.DateLayout, date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("expense %s has malformed date %q: %w", e.ID, date, err)
		}
		e.Date = parsed
		e.Category = model.Category(category)
		e.Source = model.Source(source)
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
