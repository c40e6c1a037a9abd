package extract

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		candidate any
		name      string
		want      model.Expense
		rules     Rules
		wantErr   bool
		errField  string
	}{
		{
			name:      "well formed",
			candidate: map[string]any{"item": "珍奶", "amount": json.Number("50"), "category": "餐飲食品"},
			want:      model.Expense{Item: "珍奶", Amount: 50, Category: model.CategoryFood},
		},
		{
			name:      "missing category defaults to other",
			candidate: map[string]any{"item": "早餐", "amount": json.Number("45")},
			want:      model.Expense{Item: "早餐", Amount: 45, Category: model.CategoryOther},
		},
		{
			name:      "unknown category forced to other",
			candidate: map[string]any{"item": "書", "amount": 300.0, "category": "未知分類"},
			want:      model.Expense{Item: "書", Amount: 300, Category: model.CategoryOther},
		},
		{
			name:      "english label is not in the whitelist",
			candidate: map[string]any{"item": "bus", "amount": 15, "category": "Transport"},
			want:      model.Expense{Item: "bus", Amount: 15, Category: model.CategoryOther},
		},
		{
			name:      "non string category",
			candidate: map[string]any{"item": "a", "amount": 1, "category": 3},
			want:      model.Expense{Item: "a", Amount: 1, Category: model.CategoryOther},
		},
		{
			name:      "missing amount becomes zero",
			candidate: map[string]any{"item": "咖啡", "category": "餐飲食品"},
			want:      model.Expense{Item: "咖啡", Amount: 0, Category: model.CategoryFood},
		},
		{
			name:      "numeric string amount",
			candidate: map[string]any{"item": "計程車", "amount": "NT$1,200", "category": "交通運輸"},
			want:      model.Expense{Item: "計程車", Amount: 1200, Category: model.CategoryTransport},
		},
		{
			name:      "amount with unit suffix",
			candidate: map[string]any{"item": "便當", "amount": "85元"},
			want:      model.Expense{Item: "便當", Amount: 85, Category: model.CategoryOther},
		},
		{
			name:      "non numeric amount becomes zero",
			candidate: map[string]any{"item": "便當", "amount": "about fifty"},
			want:      model.Expense{Item: "便當", Amount: 0, Category: model.CategoryOther},
		},
		{
			name:      "negative amount becomes zero",
			candidate: map[string]any{"item": "refund", "amount": json.Number("-20")},
			want:      model.Expense{Item: "refund", Amount: 0, Category: model.CategoryOther},
		},
		{
			name:      "numeric item is stringified",
			candidate: map[string]any{"item": 7, "amount": 35},
			want:      model.Expense{Item: "7", Amount: 35, Category: model.CategoryOther},
		},
		{
			name:      "item is trimmed",
			candidate: map[string]any{"item": "  牛奶 ", "amount": 60, "category": "餐飲食品"},
			want:      model.Expense{Item: "牛奶", Amount: 60, Category: model.CategoryFood},
		},
		{
			name:      "empty item rejected on text path",
			candidate: map[string]any{"item": "", "amount": 120},
			wantErr:   true,
			errField:  FieldItem,
		},
		{
			name:      "missing item rejected on text path",
			candidate: map[string]any{"amount": 120},
			wantErr:   true,
			errField:  FieldItem,
		},
		{
			name:      "empty item accepted on receipt path",
			candidate: map[string]any{"item": "", "amount": json.Number("120"), "category": "未知分類"},
			rules:     Rules{AllowEmptyItem: true},
			want:      model.Expense{Item: "", Amount: 120, Category: model.CategoryOther},
		},
		{
			name:      "object item rejected",
			candidate: map[string]any{"item": map[string]any{"name": "x"}, "amount": 1},
			rules:     Rules{AllowEmptyItem: true},
			wantErr:   true,
			errField:  FieldItem,
		},
		{
			name:      "narrowed whitelist",
			candidate: map[string]any{"item": "電影", "amount": 280, "category": "休閒娛樂"},
			rules:     Rules{Categories: model.CategorySet{model.CategoryFood, model.CategoryOther}},
			want:      model.Expense{Item: "電影", Amount: 280, Category: model.CategoryOther},
		},
		{name: "array candidate", candidate: []any{map[string]any{"item": "a"}}, wantErr: true},
		{name: "string candidate", candidate: "珍奶 50", wantErr: true},
		{name: "nil candidate", candidate: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.candidate, tt.rules)
			if tt.wantErr {
				require.Error(t, err)
				var valErr *common.ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, tt.errField, valErr.Field)
				assert.NotEmpty(t, valErr.Raw)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, model.Categories.Contains(got.Category))
			assert.GreaterOrEqual(t, got.Amount, 0.0)
		})
	}
}

func TestValidator_Idempotent(t *testing.T) {
	v := NewValidator()

	records := []model.Expense{
		{Item: "珍奶", Amount: 50, Category: model.CategoryFood},
		{Item: "捷運", Amount: 25.5, Category: model.CategoryTransport},
		{Item: "", Amount: 0, Category: model.CategoryOther},
	}

	for _, rec := range records {
		first, err := v.Validate(rec.Fields(), Rules{AllowEmptyItem: true})
		require.NoError(t, err)
		second, err := v.Validate(first.Fields(), Rules{AllowEmptyItem: true})
		require.NoError(t, err)

		assert.Equal(t, rec, first)
		assert.Equal(t, first, second)
	}
}

func TestValidator_Parse(t *testing.T) {
	v := NewValidator()

	t.Run("fenced text path", func(t *testing.T) {
		got, err := v.Parse("```json\n{\"item\":\"珍奶\",\"amount\":50,\"category\":\"餐飲食品\"}\n```", Rules{})
		require.NoError(t, err)
		assert.Equal(t, model.Expense{Item: "珍奶", Amount: 50, Category: model.CategoryFood}, got)
	})

	t.Run("single quotes without category", func(t *testing.T) {
		got, err := v.Parse(`{'item': "早餐", 'amount': 45}`, Rules{})
		require.NoError(t, err)
		assert.Equal(t, model.CategoryOther, got.Category)
		assert.Equal(t, 45.0, got.Amount)
	})

	t.Run("prose fails extraction", func(t *testing.T) {
		_, err := v.Parse("I cannot help with that.", Rules{})
		var extractErr *common.ExtractionError
		assert.ErrorAs(t, err, &extractErr)
	})

	t.Run("json array fails validation", func(t *testing.T) {
		_, err := v.Parse(`[1,2]`, Rules{})
		var valErr *common.ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("vision path with unknown category", func(t *testing.T) {
		got, err := v.Parse(`{"item":"","amount":120,"category":"未知分類"}`, Rules{AllowEmptyItem: true})
		require.NoError(t, err)
		assert.Equal(t, model.Expense{Item: "", Amount: 120, Category: model.CategoryOther}, got)
	})
}

func TestValidator_ParseKeepsRawText(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "fenced array with markup", raw: "```json\n['<b>早餐</b>', 45]\n```"},
		{name: "empty item with repaired quotes", raw: `{'item': "", 'amount': 'a&b'}`, field: FieldItem},
		{name: "nested item", raw: `{"amount": 5, "item": {"name": "x"}}`, field: FieldItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(tt.raw, Rules{})
			var valErr *common.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.raw, valErr.Raw)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		in   any
		name string
		want float64
	}{
		{name: "nil", in: nil, want: 0},
		{name: "int", in: 50, want: 50},
		{name: "float", in: 12.5, want: 12.5},
		{name: "json number", in: json.Number("99.9"), want: 99.9},
		{name: "bad json number", in: json.Number("abc"), want: 0},
		{name: "string", in: "300", want: 300},
		{name: "thousands", in: "12,345", want: 12345},
		{name: "currency prefix", in: "$45", want: 45},
		{name: "two numbers", in: "50-60", want: 0},
		{name: "bool", in: true, want: 0},
		{name: "negative", in: -5, want: 0},
		{name: "nan", in: math.NaN(), want: 0},
		{name: "inf", in: math.Inf(1), want: 0},
		{name: "object", in: map[string]any{"v": 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceAmount(tt.in))
		})
	}
}

func TestValidator_StructBudget(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(model.Budget{Category: model.CategoryFood, Limit: 5000}))
	assert.Error(t, v.Struct(model.Budget{Category: model.CategoryFood, Limit: 25000}))
	assert.Error(t, v.Struct(model.Budget{Category: "零用錢", Limit: 100}))
}
