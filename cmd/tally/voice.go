package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/assistant"
	"github.com/Veraticus/tally/internal/cli"
	"github.com/spf13/cobra"
)

func voiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice <audio-file>",
		Short: "Record an expense from a voice note",
		Long: `Transcribe a voice note, then extract the expense from what was said.

The transcript is kept in the record's note. The MIME type is guessed from
the file extension; use --mime when the guess is wrong.`,
		Args: cobra.ExactArgs(1),
		RunE: runVoice,
	}

	cmd.Flags().String("mime", "", "MIME type of the recording, e.g. audio/ogg")
	addYesFlag(cmd)
	return cmd
}

func runVoice(cmd *cobra.Command, args []string) error {
	override, _ := cmd.Flags().GetString("mime")
	audio, mimeType, err := readMedia(args[0], override)
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

	var result assistant.VoiceResult
	err = waitFor(cmd, cli.MicIcon+" 聽打中 Transcribing", func() error {
		var voiceErr error
		result, voiceErr = a.ParseVoice(cmd.Context(), audio, mimeType)
		return voiceErr
	})
	if result.Transcript != "" {
		writeln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("AI 聽到 Heard:「%s」", result.Transcript)))
	}
	if err != nil {
		return fmt.Errorf("failed to parse voice note: %w", err)
	}

	return reviewAndSave(cmd, cfg, cli.MicIcon+" 語音記帳 Voice", result.Expense)
}
