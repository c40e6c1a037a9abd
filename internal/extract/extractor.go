// Package extract turns raw model text into validated expense records.
//
// Extraction is two steps: Repair strips formatting artifacts the model adds
// around its JSON, and Extract parses the result. The Validator then coerces
// the parsed object into a model.Expense.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/common"
)

// ErrNotObject is returned when the model output parses but is not a JSON object.
var ErrNotObject = errors.New("model output is not a JSON object")

const (
	jsonFence    = "```json"
	genericFence = "```"
)

// Repair normalizes raw model output into text that should parse as JSON:
// surrounding whitespace is trimmed, leading and trailing code fences are
// removed and single quotes become double quotes.
//
// Quote normalization corrupts values that legitimately contain an apostrophe.
// That is a known limitation of this fallback path.
func Repair(raw string) string {
	s := strings.TrimSpace(raw)

	switch {
	case hasPrefixFold(s, jsonFence):
		s = s[len(jsonFence):]
	case strings.HasPrefix(s, genericFence):
		s = s[len(genericFence):]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, genericFence)

	s = strings.ReplaceAll(s, "'", `"`)
	return strings.TrimSpace(s)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// ExtractValue repairs raw and decodes it as any JSON value. Numbers are
// kept as json.Number so large or precise amounts survive until validation.
func ExtractValue(raw string) (any, error) {
	cleaned := Repair(raw)
	if cleaned == "" {
		return nil, &common.ExtractionError{Err: errors.New("empty model output"), Raw: raw}
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &common.ExtractionError{Err: describeJSONError([]byte(cleaned), err), Raw: raw}
	}
	if dec.More() {
		return nil, &common.ExtractionError{Err: errors.New("unexpected trailing content after JSON value"), Raw: raw}
	}
	return v, nil
}

// Extract repairs raw and parses it as a JSON object.
func Extract(raw string) (map[string]any, error) {
	v, err := ExtractValue(raw)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &common.ExtractionError{Err: ErrNotObject, Raw: raw}
	}
	return obj, nil
}

// describeJSONError adds line and column to syntax errors.
func describeJSONError(data []byte, err error) error {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}

	offset := syntaxErr.Offset
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line := 1 + bytes.Count(data[:offset], []byte("\n"))
	col := offset - int64(bytes.LastIndexByte(data[:offset], '\n'))
	return fmt.Errorf("%w (line %d, column %d)", err, line, col)
}
