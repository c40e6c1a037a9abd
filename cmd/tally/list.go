package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded expenses",
		Long: `List the expenses of a month, newest first.

Use --month all to list every month.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().String("month", "", "Month as YYYY-MM, or 'all' (default: current month)")
	cmd.Flags().String("category", "", "Only show this category")
	cmd.Flags().Int("limit", 0, "Show at most this many records (0 = no limit)")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	filter := service.ExpenseFilter{}
	if month, _ := cmd.Flags().GetString("month"); !strings.EqualFold(month, "all") {
		resolved, err := resolveMonth(cmd)
		if err != nil {
			return err
		}
		filter.Month = resolved
	}
	if categoryFlag, _ := cmd.Flags().GetString("category"); categoryFlag != "" {
		category, ok := cli.ResolveCategory(categoryFlag)
		if !ok {
			return fmt.Errorf("unknown category %q, choose one of:\n%s", categoryFlag, cli.RenderCategories())
		}
		filter.Category = category
	}
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	if filter.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	return withStorage(ctx, cfg, func(store service.Storage) error {
		expenses, err := store.ListExpenses(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}

		title := "All expenses"
		if filter.Month != "" {
			title = filter.Month
		}
		writeln(out, cli.FormatTitle(title))

		if len(expenses) == 0 {
			writeln(out, cli.FormatInfo("No expenses recorded. Use 'tally parse' or 'tally add --manual' to add one."))
			return listMonths(cmd, store)
		}

		writeln(out, cli.RenderExpenseTable(expenses))
		return nil
	})
}

// listMonths hints at the months that do have records.
func listMonths(cmd *cobra.Command, store service.Storage) error {
	months, err := store.Months(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list months: %w", err)
	}
	if len(months) > 0 {
		writeln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Months with records: "+strings.Join(months, ", ")))
	}
	return nil
}

// findExpense looks a record up by full ID or unique prefix.
func findExpense(cmd *cobra.Command, store service.Storage, id string) (*model.Expense, error) {
	expense, err := store.GetExpense(cmd.Context(), strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("failed to find expense %s: %w", id, err)
	}
	return expense, nil
}
