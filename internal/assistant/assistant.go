// Package assistant builds the text, voice, receipt and advisor requests,
// sends them through the credential gateway and turns the answers into
// validated expenses.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/extract"
	"github.com/Veraticus/tally/internal/llm"
	"github.com/Veraticus/tally/internal/model"
)

// Notes attached to records created from media.
const (
	VoiceNotePrefix = "[語音] "
	ReceiptNote     = "[掃描辨識]"
)

// TopExpenseCount is how many of the month's largest expenses the advisor sees.
const TopExpenseCount = 5

// Input errors, raised before any request is sent.
var (
	ErrEmptyInput      = errors.New("input is empty")
	ErrUnsupportedMIME = errors.New("unsupported MIME type")
	ErrEmptyTranscript = errors.New("transcription is empty")
	ErrNoExpenses      = errors.New("no expenses to analyze")
)

// Generator sends one logical request. *llm.Gateway implements it.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (llm.Outcome, error)
}

// VoiceResult is a transcribed and parsed voice note.
type VoiceResult struct {
	Transcript string
	Expense    model.Expense
}

// Receipt is a parsed receipt image.
type Receipt struct {
	Expense model.Expense
	// DateFound is false when the model gave no usable date and today was
	// used instead.
	DateFound bool
}

// Assistant turns user input into model requests and validated records.
type Assistant struct {
	generator  Generator
	prompts    *promptBuilder
	validator  *extract.Validator
	logger     *slog.Logger
	now        func() time.Time
	model      string
	categories model.CategorySet
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithModel selects the model name sent with every request.
func WithModel(name string) Option {
	return func(a *Assistant) {
		if name != "" {
			a.model = name
		}
	}
}

// WithLogger sets the assistant logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock replaces time.Now for record dates.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an Assistant that sends requests through generator.
func New(generator Generator, opts ...Option) (*Assistant, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}

	prompts, err := newPromptBuilder()
	if err != nil {
		return nil, err
	}

	a := &Assistant{
		generator:  generator,
		prompts:    prompts,
		validator:  extract.NewValidator(),
		logger:     slog.Default(),
		now:        time.Now,
		model:      llm.DefaultModel,
		categories: model.Categories,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ParseText extracts one expense from a free-text description. An empty item
// is a validation failure on this path.
func (a *Assistant) ParseText(ctx context.Context, text string) (model.Expense, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Expense{}, fmt.Errorf("%w: nothing to parse", ErrEmptyInput)
	}

	prompt, err := a.prompts.render(promptParseText, parseTextData{
		Fields:     contractFields,
		Text:       text,
		Other:      string(model.CategoryOther),
		Categories: a.categories.Strings(),
	})
	if err != nil {
		return model.Expense{}, err
	}

	out, err := a.generator.Generate(ctx, llm.Request{
		Model:          a.model,
		Parts:          []llm.Part{llm.TextPart(prompt)},
		ResponseSchema: expenseSchema(a.categories, false),
	})
	if err != nil {
		return model.Expense{}, err
	}

	expense, err := a.validator.Parse(out.Text, extract.Rules{Categories: a.categories})
	if err != nil {
		a.logger.Warn("model output rejected", "path", "text", "slot", out.Slot, "error", err)
		return model.Expense{}, err
	}

	expense.Source = model.SourceText
	expense.Date = a.today()
	expense.Note = text
	return expense, nil
}

// Transcribe converts an audio clip into text.
func (a *Assistant) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if err := checkMedia(audio, mimeType, "audio/"); err != nil {
		return "", err
	}

	prompt, err := a.prompts.render(promptTranscribe, nil)
	if err != nil {
		return "", err
	}

	out, err := a.generator.Generate(ctx, llm.Request{
		Model: a.model,
		Parts: []llm.Part{llm.TextPart(prompt), llm.BlobPart(audio, mimeType)},
	})
	if err != nil {
		return "", err
	}

	transcript := strings.TrimSpace(out.Text)
	if transcript == "" {
		return "", ErrEmptyTranscript
	}
	a.logger.Debug("audio transcribed", "slot", out.Slot, "chars", len([]rune(transcript)))
	return transcript, nil
}

// ParseVoice transcribes audio and parses the transcript as text. When
// parsing fails the transcript is still returned alongside the error.
func (a *Assistant) ParseVoice(ctx context.Context, audio []byte, mimeType string) (VoiceResult, error) {
	transcript, err := a.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return VoiceResult{}, err
	}

	expense, err := a.ParseText(ctx, transcript)
	if err != nil {
		return VoiceResult{Transcript: transcript}, err
	}

	expense.Source = model.SourceVoice
	expense.Note = VoiceNotePrefix + transcript
	return VoiceResult{Transcript: transcript, Expense: expense}, nil
}

// ParseReceipt extracts an expense from a receipt image. An empty item is
// accepted here because the model is told to leave unreadable items blank.
func (a *Assistant) ParseReceipt(ctx context.Context, image []byte, mimeType string) (Receipt, error) {
	if err := checkMedia(image, mimeType, "image/"); err != nil {
		return Receipt{}, err
	}

	today := a.today()
	prompt, err := a.prompts.render(promptReceipt, receiptData{
		Fields:     contractFields,
		Today:      today.Format(model.DateLayout),
		Other:      string(model.CategoryOther),
		Categories: a.categories.Strings(),
	})
	if err != nil {
		return Receipt{}, err
	}

	out, err := a.generator.Generate(ctx, llm.Request{
		Model:          a.model,
		Parts:          []llm.Part{llm.TextPart(prompt), llm.BlobPart(image, mimeType)},
		ResponseSchema: expenseSchema(a.categories, true),
	})
	if err != nil {
		return Receipt{}, err
	}

	candidate, err := extract.ExtractValue(out.Text)
	if err != nil {
		a.logger.Warn("model output rejected", "path", "receipt", "slot", out.Slot, "error", err)
		return Receipt{}, err
	}
	expense, err := a.validator.ValidateOutput(candidate, out.Text, extract.Rules{
		Categories:     a.categories,
		AllowEmptyItem: true,
	})
	if err != nil {
		a.logger.Warn("model output rejected", "path", "receipt", "slot", out.Slot, "error", err)
		return Receipt{}, err
	}

	receipt := Receipt{Expense: expense}
	receipt.Expense.Date, receipt.DateFound = receiptDate(candidate, today)
	receipt.Expense.Source = model.SourceReceipt
	receipt.Expense.Note = ReceiptNote
	return receipt, nil
}

// Advise asks the model for a monthly spending review of report. top is
// usually budget.Top of the month's expenses.
func (a *Assistant) Advise(ctx context.Context, report budget.Report, top []model.Expense) (string, error) {
	if report.Count == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoExpenses, report.Month)
	}

	prompt, err := a.prompts.render(promptAdvise, adviseData{
		Month:      report.Month,
		Categories: report.Categories,
		Top:        top,
		Total:      report.Total,
		Count:      report.Count,
	})
	if err != nil {
		return "", err
	}

	out, err := a.generator.Generate(ctx, llm.Request{
		Model: a.model,
		Parts: []llm.Part{llm.TextPart(prompt)},
	})
	if err != nil {
		return "", err
	}

	advice := strings.TrimSpace(out.Text)
	if advice == "" {
		return "", llm.ErrEmptyResponse
	}
	return advice, nil
}

func (a *Assistant) today() time.Time {
	now := a.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// checkMedia rejects empty payloads and MIME types outside the expected
// family before anything is sent upstream.
func checkMedia(data []byte, mimeType, family string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: no %s data", ErrEmptyInput, strings.TrimSuffix(family, "/"))
	}
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mt, family) || len(mt) == len(family) {
		return fmt.Errorf("%w: %q is not %s*", ErrUnsupportedMIME, mimeType, family)
	}
	return nil
}

// receiptDate reads the date field of the model output, falling back to
// today when it is missing or malformed.
func receiptDate(candidate any, today time.Time) (time.Time, bool) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return today, false
	}
	s, ok := obj[extract.FieldDate].(string)
	if !ok {
		return today, false
	}
	d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), today.Location())
	if err != nil {
		return today, false
	}
	return d, true
}

// expenseSchema describes the JSON object the model must return.
func expenseSchema(categories model.CategorySet, withDate bool) *llm.Schema {
	schema := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			extract.FieldItem:     {Type: llm.TypeString, Description: "purchased item"},
			extract.FieldAmount:   {Type: llm.TypeNumber, Description: "amount paid"},
			extract.FieldCategory: {Type: llm.TypeString, Enum: categories.Strings()},
		},
		Required: []string{extract.FieldItem, extract.FieldAmount, extract.FieldCategory},
	}
	if withDate {
		schema.Properties[extract.FieldDate] = &llm.Schema{
			Type:        llm.TypeString,
			Description: "purchase date, YYYY-MM-DD",
		}
		schema.Required = append(schema.Required, extract.FieldDate)
	}
	return schema
}
