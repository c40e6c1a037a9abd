package cli

import (
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		want string
		in   float64
	}{
		{in: 0, want: "0"},
		{in: 50, want: "50"},
		{in: 1200, want: "1,200"},
		{in: 1234567, want: "1,234,567"},
		{in: 99.5, want: "99.50"},
		{in: 1.999, want: "2"},
		{in: -400, want: "-400"},
		{in: -12345.25, want: "-12,345.25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.in))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "3f2a9c1e", ShortID("3f2a9c1e-8d4b-4c7a-9b1e-0a2b3c4d5e6f"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestRenderExpense(t *testing.T) {
	e := model.Expense{
		Date:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Item:     "珍奶",
		Amount:   50,
		Category: model.CategoryFood,
		Note:     "[語音] 珍奶 50",
	}

	out := RenderExpense("預覽新增", e)
	assert.Contains(t, out, "預覽新增")
	assert.Contains(t, out, "珍奶")
	assert.Contains(t, out, "餐飲食品")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "2026-10-19")
	assert.Contains(t, out, "[語音] 珍奶 50")
	assert.NotContains(t, out, "Amount is 0")

	e.Amount = 0
	e.Item = ""
	out = RenderExpense("預覽新增", e)
	assert.Contains(t, out, "Amount is 0")
	assert.Contains(t, out, "(unknown item)")
}

func TestRenderExpenseTable(t *testing.T) {
	expenses := []model.Expense{
		{ID: "3f2a9c1e-8d4b", Date: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), Item: "捷運", Amount: 30, Category: model.CategoryTransport},
		{ID: "77aa", Date: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), Item: "外套", Amount: 2400, Category: model.CategoryApparel},
	}

	out := RenderExpenseTable(expenses)
	assert.Contains(t, out, "3f2a9c1e")
	assert.NotContains(t, out, "3f2a9c1e-8d4b")
	assert.Contains(t, out, "2,400")
	assert.Contains(t, out, "2 records, total 2,430")
}

func TestRenderBudgetReport(t *testing.T) {
	expenses := []model.Expense{
		{Date: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), Item: "外套", Amount: 2400, Category: model.CategoryApparel},
	}
	report := budget.Monthly("2026-10", expenses, model.Budgets{model.CategoryApparel: 2000}, model.DefaultBudget)

	out := RenderBudgetReport(report)
	assert.Contains(t, out, "2026-10")
	assert.Contains(t, out, "服飾購物")
	assert.Contains(t, out, "-400")
	assert.Contains(t, out, "over")
	for _, c := range model.Categories {
		assert.Contains(t, out, string(c))
	}
}

func TestRenderTotals(t *testing.T) {
	assert.Contains(t, RenderTotals("近 7 天", nil), "無資料")

	out := RenderTotals("近 7 天", []budget.CategoryTotal{
		{Category: model.CategoryFood, Spent: 300, Count: 2},
		{Category: model.CategoryLeisure, Spent: 280, Count: 1},
	})
	assert.Contains(t, out, "近 7 天")
	assert.Contains(t, out, "餐飲食品")
	assert.Contains(t, out, "total 580")
}
