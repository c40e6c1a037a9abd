package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/spf13/cobra"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly budgets per category",
		Long: fmt.Sprintf(`Manage monthly budgets per category.

Categories without a budget use budget.default from the configuration
(%d unless changed). Budgets range from %d to %d.`, model.DefaultBudget, model.MinBudget, model.MaxBudget),
	}

	cmd.AddCommand(budgetSetCmd())
	cmd.AddCommand(budgetShowCmd())

	return cmd
}

func budgetSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Set the monthly budget of a category",
		Args:  cobra.ExactArgs(2),
		RunE:  runBudgetSet,
	}
}

func budgetShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show budgets and this month's spend against them",
		Args:  cobra.NoArgs,
		RunE:  runBudgetShow,
	}

	cmd.Flags().String("month", "", "Month as YYYY-MM (default: current month)")
	return cmd
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	category, ok := cli.ResolveCategory(args[0])
	if !ok {
		return fmt.Errorf("unknown category %q, choose one of:\n%s", args[0], cli.RenderCategories())
	}
	limit, err := cli.ParseAmount(args[1])
	if err != nil {
		return err
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	return withStorage(ctx, cfg, func(store service.Storage) error {
		if err := store.SetBudget(ctx, model.Budget{Category: category, Limit: limit}); err != nil {
			return fmt.Errorf("failed to set budget (allowed %d to %d): %w", model.MinBudget, model.MaxBudget, err)
		}
		writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s budget set to %s", category, cli.FormatAmount(limit))))
		return nil
	})
}

func runBudgetShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	month, err := resolveMonth(cmd)
	if err != nil {
		return err
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	return withStorage(ctx, cfg, func(store service.Storage) error {
		report, _, err := monthlyReport(cmd, store, month, cfg.Budget.Default)
		if err != nil {
			return err
		}
		writeln(cmd.OutOrStdout(), cli.RenderBudgetReport(report))
		return nil
	})
}

// monthlyReport loads a month's records and budgets and totals them. The
// records are returned as well.
func monthlyReport(cmd *cobra.Command, store service.Storage, month string, fallback float64) (budget.Report, []model.Expense, error) {
	ctx := cmd.Context()

	expenses, err := store.ListExpenses(ctx, service.ExpenseFilter{Month: month})
	if err != nil {
		return budget.Report{}, nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	budgets, err := store.GetBudgets(ctx)
	if err != nil {
		return budget.Report{}, nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	return budget.Monthly(month, expenses, budgets, fallback), expenses, nil
}
