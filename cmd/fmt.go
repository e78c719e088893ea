package cmd

import (
	"github.com/spf13/cobra"
)

// fmtCmd represents the fmt command.
var fmtCmd = newFmtCmd()

func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <file.tesc>",
		Short: "Print the canonical form of a source file",
		Long: `Parse the file and print it back in canonical form. Re-parsing the output
yields the same syntax tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := newUI(cmd)
			defer ui.Close()

			workflow := newWorkflow(cmd, ui)

			return exitWith(workflow.Format(args[0]))
		},
	}
}

func init() {
	rootCmd.AddCommand(fmtCmd)
}
