// Package model defines the core domain models used throughout the application.
package model

import (
	"time"
)

// Source records how an expense entered the system.
type Source string

// Expense sources.
const (
	SourceManual  Source = "manual"
	SourceText    Source = "text"
	SourceVoice   Source = "voice"
	SourceReceipt Source = "receipt"
)

// DateLayout is the calendar date format used for expense dates.
const DateLayout = "2006-01-02"

// Expense is a validated spending record.
//
// Item, Amount and Category come out of the extraction pipeline; the remaining
// fields are attached by the caller and never touched by validation.
type Expense struct {
	CreatedAt time.Time
	Date      time.Time
	ID        string
	Item      string
	Category  Category `validate:"required,category"`
	Note      string
	Source    Source
	Amount    float64 `validate:"gte=0"`
}

// Fields returns the extraction-visible fields as a generic JSON-like object.
// Feeding the result back through validation yields the same expense.
func (e Expense) Fields() map[string]any {
	return map[string]any{
		"item":     e.Item,
		"amount":   e.Amount,
		"category": string(e.Category),
	}
}

// NeedsReview reports whether the amount looks like a failed extraction.
func (e Expense) NeedsReview() bool {
	return e.Amount == 0
}

// Month returns the YYYY-MM key of the expense date.
func (e Expense) Month() string {
	return e.Date.Format("2006-01")
}
