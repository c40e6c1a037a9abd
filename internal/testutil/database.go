// Package testutil provides test helpers for seeding the record store.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
)

// TestDB is an in-memory record store scoped to one test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database seeded with expenses.
// It is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewExpense("午餐", 120).In("餐飲食品").On("2026-10-18").Build(t),
//	)
func SetupTestDB(t *testing.T, expenses ...model.Expense) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	db := &TestDB{Storage: store, t: t}
	db.Seed(expenses...)
	return db
}

// Seed saves expenses, failing the test on any error. The saved records, with
// their generated IDs, are returned in order.
func (db *TestDB) Seed(expenses ...model.Expense) []model.Expense {
	db.t.Helper()

	saved := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if err := db.Storage.SaveExpense(context.Background(), &e); err != nil {
			db.t.Fatalf("failed to seed expense %q: %v", e.Item, err)
		}
		saved = append(saved, e)
	}
	return saved
}

// MustGet returns the expense with id or fails the test.
func (db *TestDB) MustGet(id string) model.Expense {
	db.t.Helper()

	e, err := db.Storage.GetExpense(context.Background(), id)
	if err != nil {
		db.t.Fatalf("expense %s not found: %v", id, err)
	}
	return *e
}

// All returns every stored expense, newest first.
func (db *TestDB) All() []model.Expense {
	db.t.Helper()

	expenses, err := db.Storage.ListExpenses(context.Background(), service.ExpenseFilter{})
	if err != nil {
		db.t.Fatalf("failed to list expenses: %v", err)
	}
	return expenses
}
