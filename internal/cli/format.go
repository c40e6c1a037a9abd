package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ShortIDLength is how much of an expense ID the tables show. Any unique
// prefix is accepted back by edit and delete.
const ShortIDLength = 8

// FormatAmount renders an amount with thousands separators and no decimals
// unless the amount has cents.
func FormatAmount(amount float64) string {
	neg := amount < 0
	amount = math.Round(math.Abs(amount)*100) / 100

	whole, frac := math.Modf(amount)
	digits := strconv.FormatFloat(whole, 'f', 0, 64)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if cents := math.Round(frac * 100); cents > 0 {
		fmt.Fprintf(&sb, ".%02d", int(cents))
	}
	return sb.String()
}

// ShortID abbreviates an expense ID for display.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// RenderExpense renders a record preview in a box. Zero amounts carry a
// warning so the user looks twice before saving.
func RenderExpense(title string, e model.Expense) string {
	item := e.Item
	if item == "" {
		item = SubtleStyle.Render("(unknown item)")
	}

	lines := []string{
		fmt.Sprintf("品項 Item:     %s", item),
		fmt.Sprintf("分類 Category: %s %s", e.Category, SubtleStyle.Render("("+e.Category.Label()+")")),
		fmt.Sprintf("金額 Amount:   %s", AmountStyle.Render(FormatAmount(e.Amount))),
		fmt.Sprintf("日期 Date:     %s", e.Date.Format(model.DateLayout)),
	}
	if e.Note != "" {
		lines = append(lines, fmt.Sprintf("備註 Note:     %s", e.Note))
	}
	if e.NeedsReview() {
		lines = append(lines, "", FormatWarning("Amount is 0, check it before saving."))
	}

	return RenderBox(title, strings.Join(lines, "\n"))
}

// RenderExpenseTable renders expenses as a table.
func RenderExpenseTable(expenses []model.Expense) string {
	rows := make([][]string, 0, len(expenses))
	var total float64
	for _, e := range expenses {
		rows = append(rows, []string{
			ShortID(e.ID),
			e.Date.Format(model.DateLayout),
			e.Item,
			string(e.Category),
			FormatAmount(e.Amount),
			e.Note,
		})
		total += e.Amount
	}

	t := newTable("ID", "日期", "品項", "分類", "金額", "備註").
		Rows(rows...).
		StyleFunc(alignColumn(4))

	summary := SubtleStyle.Render(fmt.Sprintf("%d records, total %s", len(expenses), FormatAmount(total)))
	return t.String() + "\n" + summary
}

// RenderBudgetReport renders a month's spend against budget per category.
func RenderBudgetReport(r budget.Report) string {
	rows := make([][]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		rows = append(rows, []string{
			string(c.Category),
			FormatAmount(c.Spent),
			FormatAmount(c.Limit),
			FormatAmount(c.Remaining()),
			budgetStatus(c),
		})
	}

	t := newTable("分類", "花費", "預算", "剩餘", "").
		Rows(rows...).
		StyleFunc(alignColumn(1, 2, 3))

	header := FormatTitle(fmt.Sprintf("%s  spent %s of %s", r.Month, FormatAmount(r.Total), FormatAmount(r.Limit)))
	return header + "\n" + t.String()
}

// RenderTotals renders per-category totals of a rolling window.
func RenderTotals(title string, totals []budget.CategoryTotal) string {
	if len(totals) == 0 {
		return TitleStyle.Render(title) + "\n" + SubtleStyle.Render("無資料 (no records)")
	}

	var sum float64
	rows := make([][]string, 0, len(totals))
	for _, c := range totals {
		rows = append(rows, []string{string(c.Category), FormatAmount(c.Spent), strconv.Itoa(c.Count)})
		sum += c.Spent
	}

	t := newTable("分類", "金額", "筆數").
		Rows(rows...).
		StyleFunc(alignColumn(1, 2))
	return TitleStyle.Render(title) + "\n" + t.String() + "\n" +
		SubtleStyle.Render("total "+FormatAmount(sum))
}

// RenderCategories lists the closed category set with its menu numbers.
func RenderCategories() string {
	var sb strings.Builder
	for i, c := range model.Categories {
		fmt.Fprintf(&sb, "  [%d] %s %s\n", i+1, c, SubtleStyle.Render(c.Label()))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func budgetStatus(c budget.CategoryTotal) string {
	switch {
	case c.Over():
		return ErrorStyle.Render(ErrorIcon + " over")
	case c.Near():
		return WarningStyle.Render(WarningIcon + " near")
	case c.Spent > 0:
		return SuccessStyle.Render(SuccessIcon)
	default:
		return ""
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(SubtleColor)).
		Headers(headers...)
}

// alignColumn right-aligns the given numeric columns and bolds the header.
func alignColumn(numeric ...int) table.StyleFunc {
	return func(row, col int) lipgloss.Style {
		style := TableCellStyle
		if row == table.HeaderRow {
			style = style.Bold(true)
		}
		for _, n := range numeric {
			if col == n {
				return style.Align(lipgloss.Right)
			}
		}
		return style
	}
}
