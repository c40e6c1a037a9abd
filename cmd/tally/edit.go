package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/spf13/cobra"
)

var errNothingToEdit = errors.New("nothing to change, pass --item, --amount, --category, --date or --note")

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Correct a recorded expense",
		Long: `Correct a recorded expense. The ID may be shortened to any unique prefix.

Fields given as flags are replaced directly; without flags the record is
opened for interactive review.`,
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}

	cmd.Flags().String("item", "", "New item")
	cmd.Flags().String("amount", "", "New amount")
	cmd.Flags().String("category", "", "New category")
	cmd.Flags().String("date", "", "New date as YYYY-MM-DD")
	cmd.Flags().String("note", "", "New note")
	addYesFlag(cmd)

	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	return withStorage(ctx, cfg, func(store service.Storage) error {
		expense, err := findExpense(cmd, store, args[0])
		if err != nil {
			return err
		}

		changed, err := applyEdits(cmd, expense)
		if err != nil {
			return err
		}

		switch {
		case changed:
			writeln(out, cli.RenderExpense("修改 Edit", *expense))
			ok, err := confirm(cmd, "Save changes?")
			if err != nil {
				return err
			}
			if !ok {
				writeln(out, cli.FormatInfo("Nothing changed."))
				return nil
			}
		case skipConfirm(cmd):
			return errNothingToEdit
		default:
			prompter := cli.NewPrompter(cmd.InOrStdin(), out)
			reviewed, keep, err := prompter.ReviewExpense(ctx, "修改 Edit", *expense)
			if err != nil {
				return err
			}
			if !keep {
				writeln(out, cli.FormatInfo("Nothing changed."))
				return nil
			}
			*expense = reviewed
		}

		if err := store.UpdateExpense(ctx, expense); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		writeln(out, cli.FormatSuccess("Updated "+cli.ShortID(expense.ID)))
		return nil
	})
}

// applyEdits copies the flags the user set onto e.
func applyEdits(cmd *cobra.Command, e *model.Expense) (bool, error) {
	flags := cmd.Flags()
	changed := false

	if flags.Changed("item") {
		item, _ := flags.GetString("item")
		item = strings.TrimSpace(item)
		if item == "" {
			return false, errMissingItem
		}
		e.Item = item
		changed = true
	}
	if flags.Changed("amount") {
		value, _ := flags.GetString("amount")
		amount, err := cli.ParseAmount(value)
		if err != nil {
			return false, err
		}
		e.Amount = amount
		changed = true
	}
	if flags.Changed("category") {
		value, _ := flags.GetString("category")
		category, ok := cli.ResolveCategory(value)
		if !ok {
			return false, fmt.Errorf("unknown category %q, choose one of:\n%s", value, cli.RenderCategories())
		}
		e.Category = category
		changed = true
	}
	if flags.Changed("date") {
		value, _ := flags.GetString("date")
		if value == "" {
			return false, fmt.Errorf("date must not be empty")
		}
		date, err := parseDateFlag(value)
		if err != nil {
			return false, err
		}
		e.Date = date
		changed = true
	}
	if flags.Changed("note") {
		note, _ := flags.GetString("note")
		e.Note = strings.TrimSpace(note)
		changed = true
	}

	return changed, nil
}
