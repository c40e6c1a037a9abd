package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Field names of the extraction contract.
const (
	FieldItem     = "item"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
)

// Validation errors.
var (
	ErrEmptyItem   = errors.New("item is empty")
	ErrInvalidItem = errors.New("item is not a string")
)

// Rules select the call-site specific parts of validation.
type Rules struct {
	// Categories is the whitelist. Nil means model.Categories.
	Categories model.CategorySet
	// AllowEmptyItem accepts an empty item (the receipt path models
	// "unknown item" explicitly); otherwise an empty item is rejected.
	AllowEmptyItem bool
}

// Validator coerces parsed model output into expenses. It is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the category whitelist registered as
// the "category" struct tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.Categories.Contains(model.Category(fl.Field().String()))
	})
	return &Validator{validate: v}
}

// Struct runs the tag-based invariant checks on any model struct.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Validate applies the item, amount and category rules in order and returns a
// record whose category is in the whitelist and whose amount is non-negative.
//
// Missing or non-numeric amounts become 0 and unknown categories become
// model.CategoryOther rather than failing. A candidate that is not an object
// fails with *common.ValidationError carrying the candidate re-encoded as
// JSON. Use ValidateOutput when the model text is at hand.
func (v *Validator) Validate(candidate any, rules Rules) (model.Expense, error) {
	return v.ValidateOutput(candidate, rawText(candidate), rules)
}

// ValidateOutput is Validate for a candidate decoded from raw. Failures carry
// raw unchanged.
func (v *Validator) ValidateOutput(candidate any, raw string, rules Rules) (model.Expense, error) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return model.Expense{}, &common.ValidationError{
			Err: fmt.Errorf("expected a JSON object, got %s", describeKind(candidate)),
			Raw: raw,
		}
	}

	whitelist := rules.Categories
	if whitelist == nil {
		whitelist = model.Categories
	}

	item, err := coerceItem(obj[FieldItem])
	if err != nil {
		return model.Expense{}, &common.ValidationError{Err: err, Field: FieldItem, Raw: raw}
	}
	if item == "" && !rules.AllowEmptyItem {
		return model.Expense{}, &common.ValidationError{Err: ErrEmptyItem, Field: FieldItem, Raw: raw}
	}

	expense := model.Expense{
		Item:     item,
		Amount:   CoerceAmount(obj[FieldAmount]),
		Category: coerceCategory(obj[FieldCategory], whitelist),
	}

	if err := v.validate.Struct(expense); err != nil {
		return model.Expense{}, &common.ValidationError{Err: err, Raw: raw}
	}
	return expense, nil
}

// coerceItem accepts strings and scalars. Objects and arrays cannot be
// defaulted meaningfully and fail.
func coerceItem(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case map[string]any, []any:
		return "", ErrInvalidItem
	default:
		s, err := cast.ToStringE(val)
		if err != nil {
			return "", ErrInvalidItem
		}
		return strings.TrimSpace(s), nil
	}
}

// CoerceAmount converts a model-supplied amount into a non-negative number.
// Anything that does not read as a number becomes 0.
func CoerceAmount(v any) float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := cast.ToFloat64E(cleanNumber(val))
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		return 0
	default:
		parsed, err := cast.ToFloat64E(val)
		if err != nil {
			return 0
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// cleanNumber strips currency markers, thousands separators and spaces, so
// "NT$1,200" and "50元" read as numbers. Strings with more than one run of
// digits are left alone and fail to parse.
func cleanNumber(s string) string {
	var sb strings.Builder
	runs := 0
	inRun := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsDigit(r) || r == '.':
			if !inRun {
				runs++
				inRun = true
			}
			sb.WriteRune(r)
		case r == ',' && inRun:
			// thousands separator
		case r == '-' && sb.Len() == 0:
			sb.WriteRune(r)
		default:
			inRun = false
		}
	}
	if runs != 1 {
		return s
	}
	return sb.String()
}

func coerceCategory(v any, whitelist model.CategorySet) model.Category {
	s, ok := v.(string)
	if !ok {
		return model.CategoryOther
	}
	c := model.Category(strings.TrimSpace(s))
	if whitelist.Contains(c) && model.Categories.Contains(c) {
		return c
	}
	return model.CategoryOther
}

func describeKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func rawText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Parse runs the full pipeline on raw model text: Repair, JSON decoding and
// validation.
func (v *Validator) Parse(raw string, rules Rules) (model.Expense, error) {
	candidate, err := ExtractValue(raw)
	if err != nil {
		return model.Expense{}, err
	}
	return v.ValidateOutput(candidate, raw, rules)
}
