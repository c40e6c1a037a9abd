package main

import (
	"fmt"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/credential"
	"github.com/spf13/cobra"
)

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Show the API keys that will be tried, in order",
		Long: fmt.Sprintf(`Show which of %s..%s are set, in the order requests try them.

Keys are read from the environment first, then from the --env-file. Only the
last four characters of each key are shown.`, credential.Slots[0], credential.Slots[len(credential.Slots)-1]),
		Args: cobra.NoArgs,
		RunE: runKeys,
	}
}

func runKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	pool, err := credential.LoadFromEnv(envFile)
	if err != nil {
		return err
	}

	writeln(out, cli.FormatTitle(fmt.Sprintf("%d API keys", pool.Len())))
	for _, cred := range pool.All() {
		writeln(out, fmt.Sprintf("  %s %d. %s", cli.CheckIcon, cred.Index+1, cred))
	}
	return nil
}
