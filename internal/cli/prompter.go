package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/model"
	"github.com/spf13/cast"
)

// ErrInputClosed is returned when input ends before the user answered.
var ErrInputClosed = errors.New("input terminated")

// Prompter asks the user to confirm or correct records before they are saved.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.ask(ctx, question+" [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// ReviewExpense shows a preview of e and lets the user save, correct a field
// or discard it. The returned bool is false when the record was discarded.
func (p *Prompter) ReviewExpense(ctx context.Context, title string, e model.Expense) (model.Expense, bool, error) {
	for {
		if _, err := fmt.Fprintln(p.writer, RenderExpense(title, e)); err != nil {
			return e, false, fmt.Errorf("failed to write preview: %w", err)
		}
		if _, err := fmt.Fprintln(p.writer, SubtleStyle.Render("[y] save  [i] item  [a] amount  [c] category  [d] date  [n] discard")); err != nil {
			return e, false, fmt.Errorf("failed to write options: %w", err)
		}

		choice, err := p.promptChoice(ctx, "Choice", []string{"y", "i", "a", "c", "d", "n"})
		if err != nil {
			return e, false, err
		}

		switch choice {
		case "y":
			return e, true, nil
		case "n":
			return e, false, nil
		case "i":
			item, err := p.ask(ctx, "Item")
			if err != nil {
				return e, false, err
			}
			e.Item = item
		case "a":
			amount, err := p.PromptAmount(ctx)
			if err != nil {
				return e, false, err
			}
			e.Amount = amount
		case "c":
			category, err := p.PromptCategory(ctx)
			if err != nil {
				return e, false, err
			}
			e.Category = category
		case "d":
			date, err := p.promptDate(ctx)
			if err != nil {
				return e, false, err
			}
			e.Date = date
		}
	}
}

// PromptAmount reads a non-negative amount, asking again on bad input.
func (p *Prompter) PromptAmount(ctx context.Context) (float64, error) {
	for {
		input, err := p.ask(ctx, "Amount")
		if err != nil {
			return 0, err
		}
		amount, err := ParseAmount(input)
		if err == nil {
			return amount, nil
		}
		p.warn(err.Error())
	}
}

// PromptCategory reads a category by menu number, name or English label.
func (p *Prompter) PromptCategory(ctx context.Context) (model.Category, error) {
	if _, err := fmt.Fprintln(p.writer, RenderCategories()); err != nil {
		return "", fmt.Errorf("failed to write categories: %w", err)
	}
	for {
		input, err := p.ask(ctx, "Category")
		if err != nil {
			return "", err
		}
		if c, ok := ResolveCategory(input); ok {
			return c, nil
		}
		p.warn(fmt.Sprintf("Unknown category %q.", input))
	}
}

func (p *Prompter) promptDate(ctx context.Context) (time.Time, error) {
	for {
		input, err := p.ask(ctx, "Date (YYYY-MM-DD)")
		if err != nil {
			return time.Time{}, err
		}
		d, err := time.ParseInLocation(model.DateLayout, input, time.Local)
		if err == nil {
			return d, nil
		}
		p.warn(fmt.Sprintf("Invalid date %q.", input))
	}
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := p.ask(ctx, prompt)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}
		p.warn("Invalid choice. Please try again.")
	}
}

func (p *Prompter) ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	input, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return input, nil
}

func (p *Prompter) warn(message string) {
	if _, err := fmt.Fprintln(p.writer, FormatError(message)); err != nil {
		slog.Warn("Failed to write error message", "error", err)
	}
}

// ParseAmount reads a user-typed amount. Thousands separators are allowed;
// negative and non-numeric input is rejected.
func ParseAmount(input string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	amount, err := cast.ToFloat64E(cleaned)
	if err != nil || cleaned == "" {
		return 0, fmt.Errorf("invalid amount %q", input)
	}
	if math.IsNaN(amount) || amount < 0 || amount > 1e12 {
		return 0, fmt.Errorf("amount %q out of range", input)
	}
	return amount, nil
}

// ResolveCategory accepts a 1-based menu number, a category name or its
// English label.
func ResolveCategory(input string) (model.Category, bool) {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(model.Categories) {
			return model.Categories[n-1], true
		}
		return "", false
	}
	return model.ParseCategory(input)
}
