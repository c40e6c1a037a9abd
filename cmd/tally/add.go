package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/spf13/cobra"
)

var errMissingItem = errors.New("item is required")

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add an expense, by hand or from a sentence",
		Long: `Add an expense.

With --manual the record is built from flags and no model is involved:

  tally add --manual --item 午餐 --amount 120 --category 餐飲食品

Without --manual the arguments are parsed like 'tally parse'.`,
		RunE: runAdd,
	}

	cmd.Flags().Bool("manual", false, "Build the record from flags instead of AI")
	cmd.Flags().String("item", "", "What was bought")
	cmd.Flags().String("amount", "", "How much was paid")
	cmd.Flags().String("category", "", "Category name, English label or menu number")
	cmd.Flags().String("date", "", "Date as YYYY-MM-DD (default: today)")
	cmd.Flags().String("note", "", "Free-form note")
	addYesFlag(cmd)

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	manual, _ := cmd.Flags().GetBool("manual")
	if !manual {
		return runParse(cmd, args)
	}

	expense, err := expenseFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	return reviewAndSave(cmd, cfg, "手動新增 Manual entry", expense)
}

func expenseFromFlags(cmd *cobra.Command) (model.Expense, error) {
	item, _ := cmd.Flags().GetString("item")
	amountFlag, _ := cmd.Flags().GetString("amount")
	categoryFlag, _ := cmd.Flags().GetString("category")
	dateFlag, _ := cmd.Flags().GetString("date")
	note, _ := cmd.Flags().GetString("note")

	item = strings.TrimSpace(item)
	if item == "" {
		return model.Expense{}, errMissingItem
	}

	amount, err := cli.ParseAmount(amountFlag)
	if err != nil {
		return model.Expense{}, err
	}

	category := model.CategoryOther
	if categoryFlag != "" {
		var ok bool
		category, ok = cli.ResolveCategory(categoryFlag)
		if !ok {
			return model.Expense{}, fmt.Errorf("unknown category %q, choose one of:\n%s", categoryFlag, cli.RenderCategories())
		}
	}

	date, err := parseDateFlag(dateFlag)
	if err != nil {
		return model.Expense{}, err
	}

	return model.Expense{
		Date:     date,
		Item:     item,
		Amount:   amount,
		Category: category,
		Note:     strings.TrimSpace(note),
		Source:   model.SourceManual,
	}, nil
}

// parseDateFlag reads a YYYY-MM-DD date in local time; empty means today.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		y, m, d := now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	date, err := time.ParseInLocation(model.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return date, nil
}
