package assistant

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/extract"
	"github.com/Veraticus/tally/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names.
const (
	promptParseText  = "parse_text"
	promptTranscribe = "transcribe"
	promptReceipt    = "receipt"
	promptAdvise     = "advise"
)

// fieldNames exposes the extraction contract to the templates so prompts and
// validator cannot drift apart.
type fieldNames struct {
	Item     string
	Amount   string
	Category string
	Date     string
}

var contractFields = fieldNames{
	Item:     extract.FieldItem,
	Amount:   extract.FieldAmount,
	Category: extract.FieldCategory,
	Date:     extract.FieldDate,
}

type parseTextData struct {
	Fields     fieldNames
	Text       string
	Other      string
	Categories []string
}

type receiptData struct {
	Fields     fieldNames
	Today      string
	Other      string
	Categories []string
}

type adviseData struct {
	Month      string
	Categories []budget.CategoryTotal
	Top        []model.Expense
	Total      float64
	Count      int
}

// promptBuilder renders the embedded prompt templates.
type promptBuilder struct {
	templates map[string]*template.Template
}

func newPromptBuilder() (*promptBuilder, error) {
	pb := &promptBuilder{
		templates: make(map[string]*template.Template),
	}

	funcMap := template.FuncMap{
		"formatAmount": formatAmount,
		"formatDate":   formatDate,
		"join":         strings.Join,
	}

	for _, name := range []string{promptParseText, promptTranscribe, promptReceipt, promptAdvise} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(name + ".tmpl").Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pb.templates[name] = tmpl
	}

	return pb, nil
}

func (pb *promptBuilder) render(name string, data any) (string, error) {
	tmpl, ok := pb.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}
