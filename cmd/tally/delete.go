package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/service"
	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded expense",
		Long: `Delete a recorded expense for good. The ID may be shortened to any
unique prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	addYesFlag(cmd)
	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
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

		writeln(out, cli.RenderExpense("刪除 Delete", *expense))
		ok, err := confirm(cmd, "Delete this expense?")
		if err != nil {
			return err
		}
		if !ok {
			writeln(out, cli.FormatInfo("Deletion cancelled."))
			return nil
		}

		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		writeln(out, cli.FormatSuccess("Deleted "+cli.ShortID(expense.ID)))
		return nil
	})
}
