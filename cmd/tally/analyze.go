package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/assistant"
	"github.com/Veraticus/tally/internal/budget"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the AI advisor about a month's spending",
		Long: fmt.Sprintf(`Send a month's totals, budgets and the %d most expensive records to the
model and print its advice.`, assistant.TopExpenseCount),
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}

	cmd.Flags().String("month", "", "Month as YYYY-MM (default: current month)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
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

	var (
		report budget.Report
		top    []model.Expense
	)
	err = withStorage(ctx, cfg, func(store service.Storage) error {
		var (
			expenses []model.Expense
			loadErr  error
		)
		report, expenses, loadErr = monthlyReport(cmd, store, month, cfg.Budget.Default)
		top = budget.Top(expenses, assistant.TopExpenseCount)
		return loadErr
	})
	if err != nil {
		return err
	}
	if report.Count == 0 {
		writeln(out, cli.FormatInfo(fmt.Sprintf("No expenses recorded in %s, nothing to analyze.", month)))
		return nil
	}

	a, err := newAssistant(cfg)
	if err != nil {
		return err
	}

	var advice string
	err = waitFor(cmd, cli.RobotIcon+" 分析中 Analyzing", func() error {
		var adviseErr error
		advice, adviseErr = a.Advise(ctx, report, top)
		return adviseErr
	})
	if err != nil {
		return fmt.Errorf("failed to analyze spending: %w", err)
	}

	writeln(out, cli.RenderBox(cli.ChartIcon+" "+month+" 財務分析 Analysis", advice))
	return nil
}
