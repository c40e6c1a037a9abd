package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/service"
	"github.com/spf13/cobra"
)

// Rolling windows shown under the monthly report, in days.
const (
	weekWindow  = 7
	monthWindow = 30
)

func overviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show spend against budget and recent category totals",
		Long: `Show how a month's spending compares with each category's budget, followed
by category totals for the last 7 and 30 days.`,
		Args: cobra.NoArgs,
		RunE: runOverview,
	}

	cmd.Flags().String("month", "", "Month as YYYY-MM (default: current month)")
	return cmd
}

func runOverview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

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
		writeln(out, cli.RenderBudgetReport(report))

		for _, c := range report.OverBudget() {
			writeln(out, cli.FormatWarning(fmt.Sprintf("%s is over budget by %s", c.Category, cli.FormatAmount(-c.Remaining()))))
		}

		recent, err := store.ListExpenses(ctx, service.ExpenseFilter{})
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		today := now()
		writeln(out)
		writeln(out, cli.RenderTotals(fmt.Sprintf("%s Last %d days", cli.ChartIcon, weekWindow), budget.Window(recent, today, weekWindow)))
		writeln(out)
		writeln(out, cli.RenderTotals(fmt.Sprintf("%s Last %d days", cli.ChartIcon, monthWindow), budget.Window(recent, today, monthWindow)))
		return nil
	})
}
