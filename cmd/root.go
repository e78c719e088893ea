// Package cmd provides the root command and CLI setup for tesc.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tesc.dev/pkg/tesc/internal/adapter"
	"tesc.dev/pkg/tesc/internal/controller"
	"tesc.dev/pkg/tesc/internal/domain"
	m "tesc.dev/pkg/tesc/internal/model"
)

var maxLenFlag int
var noMagicFlag bool
var noWarnFlag bool
var noStyleFlag bool
var debugFlag bool
var tuiFlag bool
var reportFlag string

const rootLongDescription = `tesc interprets conformance-test scripts: each test in a .tesc file spawns
a child command and drives it line by line with input/output expectations.

Regex literals iterate over every string of their language, bounded by
--max-len; tests run sequentially and a failing test does not stop the run.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tesc [file.tesc]",
		Short: "Conformance-test language interpreter",
		Long:  rootLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			ui := newUI(cmd)
			defer ui.Close()

			workflow := newWorkflow(cmd, ui)

			return exitWith(workflow.Run(args[0]))
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().IntVar(&maxLenFlag, maxLenFlagName, viper.GetInt(maxLenConfigKey),
		"bound on regex star/plus repetition unrolling")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(maxLenFlagName), maxLenConfigKey)

	cmd.PersistentFlags().BoolVarP(&noMagicFlag, noMagicFlagName, "M", viper.GetBool(noMagicConfigKey),
		"suppress the magic-numbers lint")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noMagicFlagName), noMagicConfigKey)

	cmd.PersistentFlags().BoolVarP(&noWarnFlag, noWarnFlagName, "W", viper.GetBool(noWarnConfigKey),
		"suppress all warnings")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noWarnFlagName), noWarnConfigKey)

	cmd.PersistentFlags().BoolVarP(&noStyleFlag, noStyleFlagName, "S", viper.GetBool(noStyleConfigKey),
		"suppress style warnings")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noStyleFlagName), noStyleConfigKey)

	cmd.PersistentFlags().BoolVar(&debugFlag, debugFlagName, viper.GetBool(debugConfigKey),
		"echo child i/o traffic")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(debugFlagName), debugConfigKey)

	cmd.PersistentFlags().BoolVar(&tuiFlag, tuiFlagName, viper.GetBool(tuiConfigKey),
		"render the run with an interactive TUI")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(tuiFlagName), tuiConfigKey)

	cmd.PersistentFlags().StringVar(&reportFlag, reportFlagName, viper.GetString(reportConfigKey),
		"write a YAML run report to this path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(reportFlagName), reportConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func newUI(cmd *cobra.Command) controller.UI {
	if viper.GetBool(tuiConfigKey) {
		return controller.NewTUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	return controller.NewSimpleUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func newWorkflow(cmd *cobra.Command, ui controller.UI) *domain.Workflow {
	configureLogger("", viper.GetBool(logVerboseKey))

	ioTimeout := time.Duration(viper.GetInt64(ioTimeoutConfigKey)) * time.Second
	grace := time.Duration(viper.GetInt64(graceConfigKey)) * time.Second

	return domain.NewWorkflow(
		adapter.NewLocalSourceFSAdapter(),
		adapter.NewLocalProcessRunner(ioTimeout),
		adapter.NewYAMLReportStore(),
		ui,
		cmd.OutOrStdout(),
		domain.Options{
			MaxLen: viper.GetInt(maxLenConfigKey),
			Analyser: domain.AnalyserOptions{
				NoWarnings:      viper.GetBool(noWarnConfigKey),
				NoStyleWarnings: viper.GetBool(noStyleConfigKey),
				NoMagicWarnings: viper.GetBool(noMagicConfigKey),
			},
			Debug:  viper.GetBool(debugConfigKey),
			Grace:  grace,
			Report: viper.GetString(reportConfigKey),
		},
	)
}

// exitCodeError carries the interpreter's exit status through cobra.
type exitCodeError struct {
	code m.ExitCode
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e.code))
}

// exitWith converts a workflow exit code to a command error. Diagnostics
// were already rendered by the UI, so the error itself stays silent.
func exitWith(code m.ExitCode) error {
	if code == m.ExitOK {
		return nil
	}
	return &exitCodeError{code: code}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var ec *exitCodeError
	if errors.As(err, &ec) {
		os.Exit(int(ec.code))
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
