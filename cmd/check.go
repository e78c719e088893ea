package cmd

import (
	"github.com/spf13/cobra"
)

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.tesc>",
		Short: "Lex, parse and analyse without running any test",
		Long: `Run the front end of the pipeline only. Diagnostics are printed the same
way as a full run, but no child process is spawned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := newUI(cmd)
			defer ui.Close()

			workflow := newWorkflow(cmd, ui)

			return exitWith(workflow.Check(args[0]))
		},
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
