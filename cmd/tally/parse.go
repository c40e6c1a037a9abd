package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/config"
	"github.com/Veraticus/tally/internal/model"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Record an expense described in words",
		Long: `Describe what you bought in a sentence and let the model fill in the
record, for example:

  tally parse 我買了珍奶50元
  echo "午餐便當 85" | tally parse --yes

The extracted record is shown for review before it is saved.`,
		RunE: runParse,
	}

	addYesFlag(cmd)
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	expense, err := parseText(cmd, cfg, text)
	if err != nil {
		return err
	}

	return reviewAndSave(cmd, cfg, "預覽 Preview", expense)
}

func parseText(cmd *cobra.Command, cfg *config.Config, text string) (model.Expense, error) {
	a, err := newAssistant(cfg)
	if err != nil {
		return model.Expense{}, err
	}

	var expense model.Expense
	err = waitFor(cmd, cli.RobotIcon+" 解析中 Parsing", func() error {
		var parseErr error
		expense, parseErr = a.ParseText(cmd.Context(), text)
		return parseErr
	})
	if err != nil {
		return model.Expense{}, fmt.Errorf("failed to parse expense: %w", err)
	}
	return expense, nil
}
