package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/assistant"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/spf13/cobra"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image-file>",
		Short: "Record an expense from a receipt photo",
		Long: `Read the store, total and date off a receipt photo.

When no date can be read the record is dated today.`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().String("mime", "", "MIME type of the image, e.g. image/png")
	addYesFlag(cmd)
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	override, _ := cmd.Flags().GetString("mime")
	image, mimeType, err := readMedia(args[0], override)
	if err != nil {
		return err
	}

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	a, err := newAssistant(cfg)
	if err != nil {
		return err
	}

	var receipt assistant.Receipt
	err = waitFor(cmd, cli.CameraIcon+" 辨識中 Reading receipt", func() error {
		var scanErr error
		receipt, scanErr = a.ParseReceipt(cmd.Context(), image, mimeType)
		return scanErr
	})
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}

	if !receipt.DateFound {
		writeln(cmd.OutOrStdout(), cli.FormatWarning("No date on the receipt, using today."))
	}
	return reviewAndSave(cmd, cfg, cli.CameraIcon+" 確認辨識結果 Receipt", receipt.Expense)
}
