package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: " \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateMonth(t *testing.T) {
	tests := []struct {
		month   string
		wantErr bool
	}{
		{month: ""},
		{month: "2026-10"},
		{month: "2026-1", wantErr: true},
		{month: "2026/10", wantErr: true},
		{month: "20a6-10", wantErr: true},
		{month: "2026-10-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			err := validateMonth(tt.month)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMonth(%q) error = %v, wantErr %v", tt.month, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExpense(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local)
	tests := []struct {
		expense *model.Expense
		name    string
		wantErr bool
	}{
		{
			name:    "valid",
			expense: &model.Expense{Date: date, Item: "珍奶", Amount: 50, Category: model.CategoryFood},
		},
		{
			name:    "empty item allowed",
			expense: &model.Expense{Date: date, Amount: 120, Category: model.CategoryOther},
		},
		{name: "nil", expense: nil, wantErr: true},
		{
			name:    "missing date",
			expense: &model.Expense{Item: "a", Amount: 1, Category: model.CategoryFood},
			wantErr: true,
		},
		{
			name:    "negative amount",
			expense: &model.Expense{Date: date, Item: "a", Amount: -1, Category: model.CategoryFood},
			wantErr: true,
		},
		{
			name:    "unknown category",
			expense: &model.Expense{Date: date, Item: "a", Amount: 1, Category: "Groceries"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.validateExpense(tt.expense)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateExpense() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
