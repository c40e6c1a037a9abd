// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Displayable is implemented by errors that carry a message fit for the user.
type Displayable interface {
	error
	Display() string
}

// DisplayMessage returns the most specific user-facing message in err's chain,
// falling back to err.Error().
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var d Displayable
	if errors.As(err, &d) {
		return d.Display()
	}
	var u *UserError
	if errors.As(err, &u) {
		return u.Error()
	}
	return err.Error()
}

// ConfigurationError reports that no usable credential or setting is present.
// It is fatal to any request and never retried.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Display implements Displayable.
func (e *ConfigurationError) Display() string {
	return fmt.Sprintf("設定錯誤：%v", e.Err)
}

// QuotaExhaustedError is the per-credential failure that triggers rotation.
type QuotaExhaustedError struct {
	Err        error
	Credential string
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("quota exhausted for %s: %v", e.Credential, e.Err)
}

func (e *QuotaExhaustedError) Unwrap() error { return e.Err }

// AllCredentialsExhaustedError is returned once every credential in the pool
// has hit its quota. Err is the last underlying cause.
type AllCredentialsExhaustedError struct {
	Err      error
	Attempts int
}

func (e *AllCredentialsExhaustedError) Error() string {
	return fmt.Sprintf("all %d credentials exhausted, last error: %v", e.Attempts, e.Err)
}

func (e *AllCredentialsExhaustedError) Unwrap() error { return e.Err }

// Display implements Displayable.
func (e *AllCredentialsExhaustedError) Display() string {
	return fmt.Sprintf("所有 API Key 額度皆已耗盡或失敗。Last Error: %v", e.Err)
}

// UpstreamError is any non-quota provider failure. It stops rotation.
type UpstreamError struct {
	Err        error
	Credential string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error via %s: %v", e.Credential, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Display implements Displayable.
func (e *UpstreamError) Display() string {
	return fmt.Sprintf("API Error: %v", e.Err)
}

// ExtractionError reports model output that is not recoverable as JSON.
type ExtractionError struct {
	Err error
	Raw string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract JSON from model output: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Display implements Displayable.
func (e *ExtractionError) Display() string {
	return fmt.Sprintf("AI 解析失敗 (AI parsing failed): %v", e.Err)
}

// ValidationError reports a parsed object that breaks rules which cannot be
// defaulted.
type ValidationError struct {
	Err   error
	Field string
	Raw   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid model output: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Display implements Displayable.
func (e *ValidationError) Display() string {
	if e.Raw != "" {
		return fmt.Sprintf("解析結果不完整：%v（原始輸出：%s）", e.Err, e.Raw)
	}
	return fmt.Sprintf("解析結果不完整：%v", e.Err)
}
